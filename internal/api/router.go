package api

import (
	routes "geoclaim/internal/api/handlers"
	"geoclaim/internal/service/catalog"
	"geoclaim/internal/service/claim"
	"geoclaim/internal/service/collection"
	"geoclaim/internal/service/proximity"
	"geoclaim/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services are the dependencies the HTTP layer serves. Simulator is optional.
type Services struct {
	Catalog    *catalog.Service
	Tracker    *proximity.Tracker
	Engine     *proximity.Engine
	Claims     *claim.Manager
	Collection *collection.Service
	Simulator  *worker.RouteSimulator

	Info routes.Info
}

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, svc Services, log *zap.Logger) {
	r.Use(Logging(log), Recover(log))

	// API group
	api := r.Group("/api")

	routes.SetupMainHandlers(r.Group(""), svc.Info, svc.Catalog, svc.Claims)
	routes.SetupItemHandlers(api, svc.Catalog)
	routes.SetupPositionHandlers(api, svc.Tracker, svc.Engine)
	routes.SetupClaimHandlers(api, svc.Claims)
	routes.SetupProfileHandlers(api, svc.Collection)

	if svc.Simulator != nil {
		routes.SetupRouteHandlers(api, svc.Simulator, log)
	}
}
