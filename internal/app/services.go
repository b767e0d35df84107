package app

import (
	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/clients/redis"
	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/services"
)

type Services struct {
	Snapshot    services.SnapshotService
	FeatureFlag services.FeatureFlagService
	Experiment  services.ExperimentService
	Evaluation  services.EvaluationService

	// MetricsStore is kept here so Close can release the Redis connection
	// when one is in use.
	MetricsStore engine.MetricsStore
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	store, err := wireMetricsStore(log, cfg)
	if err != nil {
		return Services{}, err
	}

	snapshotStore := engine.NewStore()
	evaluator := engine.NewEvaluator(engine.EvaluatorPolicy{
		TargetingOverridesDisabled: cfg.TargetingOverridesDisabled,
	})

	snapshotService := services.NewSnapshotService(db, log, reposet.FeatureFlag, reposet.Experiment, snapshotStore)
	flagService := services.NewFeatureFlagService(db, log, reposet.FeatureFlag, snapshotService)
	experimentService := services.NewExperimentService(db, log, reposet.Experiment, store, snapshotService)
	evaluationService := services.NewEvaluationService(log, snapshotService, evaluator, store, reposet.Experiment, reposet.ExperimentEvent)

	return Services{
		Snapshot:     snapshotService,
		FeatureFlag:  flagService,
		Experiment:   experimentService,
		Evaluation:   evaluationService,
		MetricsStore: store,
	}, nil
}

// wireMetricsStore picks the counter backend: Redis when an address is
// configured (shared dedup across replicas), in-memory otherwise.
func wireMetricsStore(log *logger.Logger, cfg Config) (engine.MetricsStore, error) {
	if cfg.RedisAddr == "" {
		log.Info("Using in-memory metrics store")
		return engine.NewMemoryMetricsStore(), nil
	}
	log.Info("Using redis metrics store", "addr", cfg.RedisAddr)
	return redis.NewMetricsStore(log)
}
