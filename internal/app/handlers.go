package app

import (
	"github.com/beaconhq/beacon-backend/internal/handlers"
	"github.com/beaconhq/beacon-backend/internal/logger"
)

type Handlers struct {
	FeatureFlag *handlers.FeatureFlagHandler
	Experiment  *handlers.ExperimentHandler
	Evaluation  *handlers.EvaluationHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		FeatureFlag: handlers.NewFeatureFlagHandler(log, serviceset.FeatureFlag),
		Experiment:  handlers.NewExperimentHandler(log, serviceset.Experiment),
		Evaluation:  handlers.NewEvaluationHandler(log, serviceset.Evaluation),
	}
}
