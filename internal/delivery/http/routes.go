package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sorashop/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		// Mirrored product images
		api.GET("/images/:key", handler.GetImage)

		// Admin endpoints. Authentication happens upstream of this service;
		// the pipeline assumes the caller is already an authenticated admin.
		admin := api.Group("/admin")
		{
			admin.POST("/products/import", handler.ImportProduct)
		}
	}

	return router
}
