package routes

import (
	"net/http"

	"geoclaim/internal/service/catalog"
	"geoclaim/internal/service/claim"

	"github.com/gin-gonic/gin"
)

// Info is the non-secret configuration reported on the index endpoint.
type Info struct {
	Verifier      string  `json:"verifier"`
	ClaimRadiusKm float64 `json:"claim_radius_km"`
	AccuracyAware bool    `json:"accuracy_aware"`
}

// SetupMainHandlers registers the index and health endpoints
func SetupMainHandlers(router *gin.RouterGroup, info Info, items *catalog.Service, claims *claim.Manager) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":  "geoclaim",
			"config":   info,
			"items":    items.Count(),
			"sessions": claims.Count(),
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
