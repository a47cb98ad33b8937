package api

import (
	"github.com/gin-gonic/gin"

	"github.com/signalwatch/propagraph/internal/telemetry"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler, tp *telemetry.Provider) {
	// Health and readiness checks
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)

	if tp != nil {
		router.GET("/metrics", gin.WrapH(tp.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Ingestion endpoints
		content := v1.Group("/content")
		{
			content.POST("", handler.Ingest)                  // POST /api/v1/content
			content.POST("/batch", handler.IngestBatch)       // POST /api/v1/content/batch
			content.GET("/:id", handler.GetContent)           // GET /api/v1/content/:id
			content.GET("/:id/analysis", handler.GetAnalysis) // GET /api/v1/content/:id/analysis
		}

		// Source endpoints
		sources := v1.Group("/sources")
		{
			sources.GET("", handler.ListSources)      // GET /api/v1/sources
			sources.PUT("/:id", handler.UpsertSource) // PUT /api/v1/sources/:id
		}

		// Pipeline endpoints
		v1.GET("/runs", handler.ListRuns)           // GET /api/v1/runs
		v1.POST("/analyze", handler.TriggerAnalyze) // POST /api/v1/analyze
	}
}
