package app

import (
	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:     middleware.Auth,
		FeatureFlagHandler: handlerset.FeatureFlag,
		ExperimentHandler:  handlerset.Experiment,
		EvaluationHandler:  handlerset.Evaluation,
		AllowOrigins:       cfg.AllowOrigins,
	})
}
