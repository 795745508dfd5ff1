package routes

import (
	"net/http"

	"geoclaim/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type routeHandlers struct {
	sim *worker.RouteSimulator
	log *zap.Logger
}

// SetupRouteHandlers registers the route simulator controls
func SetupRouteHandlers(router *gin.RouterGroup, sim *worker.RouteSimulator, log *zap.Logger) {
	h := &routeHandlers{sim: sim, log: log}

	routeGroup := router.Group("/route")
	routeGroup.GET("", h.status)
	routeGroup.POST("/start", h.control("start", sim.Start))
	routeGroup.POST("/stop", h.control("stop", sim.Stop))
	routeGroup.POST("/pause", h.control("pause", sim.Pause))
}

func (h *routeHandlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":    h.sim.State(),
		"position": h.sim.Position(),
	})
}

func (h *routeHandlers) control(action string, fn func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		fn()
		h.log.Info("route simulator", zap.String("action", action))
		h.status(c)
	}
}
