package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/easymo/marketplace-core/internal/api/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// WebSocket connection
		v1.GET("/ws", h.HandleWebSocket)

		// Ranking endpoints
		ranking := v1.Group("/ranking")
		{
			ranking.POST("/drivers", h.RankDrivers)
		}

		// Vendor endpoints
		vendors := v1.Group("/vendors")
		{
			vendors.GET("/:id/entitlements", h.GetEntitlement)
			vendors.POST("/:id/quotes", h.CreateQuote)
		}
	}
}
