package app

import (
	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/repos"
)

type Repos struct {
	FeatureFlag     repos.FeatureFlagRepo
	Experiment      repos.ExperimentRepo
	ExperimentEvent repos.ExperimentEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		FeatureFlag:     repos.NewFeatureFlagRepo(db, log),
		Experiment:      repos.NewExperimentRepo(db, log),
		ExperimentEvent: repos.NewExperimentEventRepo(db, log),
	}
}
