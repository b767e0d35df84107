package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/handlers"
	"github.com/beaconhq/beacon-backend/internal/middleware"
	"github.com/beaconhq/beacon-backend/internal/observability"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	FeatureFlagHandler *handlers.FeatureFlagHandler
	ExperimentHandler  *handlers.ExperimentHandler
	EvaluationHandler  *handlers.EvaluationHandler
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	if observability.Enabled() {
		router.GET("/metrics", handlers.Metrics)
	}
	api := router.Group("/api")
	{
		// Runtime path used by SDKs; no auth, subject ids only.
		api.GET("/evaluate", cfg.EvaluationHandler.Evaluate)
		api.GET("/assign", cfg.EvaluationHandler.Assign)
		api.POST("/convert", cfg.EvaluationHandler.Convert)
	}

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/api")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	// Flags
	admin.GET("/flags", cfg.FeatureFlagHandler.List)
	admin.POST("/flags", cfg.FeatureFlagHandler.Create)
	admin.GET("/flags/:key", cfg.FeatureFlagHandler.Get)
	admin.PUT("/flags/:key", cfg.FeatureFlagHandler.Update)
	admin.DELETE("/flags/:key", cfg.FeatureFlagHandler.Delete)
	admin.POST("/flags/:key/enable", cfg.FeatureFlagHandler.Enable)
	admin.POST("/flags/:key/disable", cfg.FeatureFlagHandler.Disable)
	admin.POST("/flags/:key/rollout", cfg.FeatureFlagHandler.SetRollout)
	// Experiments
	admin.GET("/experiments", cfg.ExperimentHandler.List)
	admin.POST("/experiments", cfg.ExperimentHandler.Create)
	admin.GET("/experiments/:key", cfg.ExperimentHandler.Get)
	admin.PUT("/experiments/:key", cfg.ExperimentHandler.Update)
	admin.POST("/experiments/:key/start", cfg.ExperimentHandler.Start)
	admin.POST("/experiments/:key/pause", cfg.ExperimentHandler.Pause)
	admin.POST("/experiments/:key/complete", cfg.ExperimentHandler.Complete)
	admin.GET("/experiments/:key/metrics", cfg.ExperimentHandler.Metrics)

	return router
}
