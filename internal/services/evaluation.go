package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/observability"
	"github.com/beaconhq/beacon-backend/internal/repos"
	"github.com/beaconhq/beacon-backend/internal/types"
)

// Assignment is what the runtime assign endpoint returns to an SDK.
type Assignment struct {
	ExperimentKey string `json:"experimentKey"`
	VariantID     string `json:"variantId"`
	VariantName   string `json:"variantName,omitempty"`
	FirstExposure bool   `json:"firstExposure"`
}

type ConversionResult struct {
	ExperimentKey   string `json:"experimentKey"`
	VariantID       string `json:"variantId"`
	FirstConversion bool   `json:"firstConversion"`
}

// EvaluationService is the hot path: every call reads the current snapshot
// without locks and never touches the database except to journal first
// events.
type EvaluationService interface {
	EvaluateFlag(ctx context.Context, flagKey string, subject engine.Subject) (bool, error)
	AssignVariant(ctx context.Context, experimentKey, subjectID string) (*Assignment, error)
	RecordConversion(ctx context.Context, experimentKey, subjectID string) (*ConversionResult, error)
	// Warmup reloads the counter read model from the persisted event journal.
	// Called once at boot, before the server accepts traffic.
	Warmup(ctx context.Context) error
}

type evaluationService struct {
	log        *logger.Logger
	snapshots  SnapshotService
	evaluator  *engine.Evaluator
	aggregator *engine.Aggregator
	store      engine.MetricsStore
	expRepo    repos.ExperimentRepo
	eventRepo  repos.ExperimentEventRepo
}

func NewEvaluationService(
	log *logger.Logger,
	snapshots SnapshotService,
	evaluator *engine.Evaluator,
	store engine.MetricsStore,
	expRepo repos.ExperimentRepo,
	eventRepo repos.ExperimentEventRepo,
) EvaluationService {
	serviceLog := log.With("service", "EvaluationService")
	journal := &eventJournal{eventRepo: eventRepo}
	return &evaluationService{
		log:        serviceLog,
		snapshots:  snapshots,
		evaluator:  evaluator,
		aggregator: engine.NewAggregator(store, journal),
		store:      store,
		expRepo:    expRepo,
		eventRepo:  eventRepo,
	}
}

func (es *evaluationService) EvaluateFlag(ctx context.Context, flagKey string, subject engine.Subject) (bool, error) {
	snap := es.snapshots.Current()
	flag, ok := snap.Flag(flagKey)
	if !ok {
		return false, &engine.NotFoundError{Kind: "flag", Key: flagKey}
	}
	enabled := es.evaluator.IsEnabled(flag, subject)
	observability.Current().IncFlagEvaluation(flagKey, enabled)
	return enabled, nil
}

// AssignVariant assigns deterministically and records the subject's first
// exposure as a side effect. Re-assignment of a known subject is a pure
// lookup: same variant, no new events.
func (es *evaluationService) AssignVariant(ctx context.Context, experimentKey, subjectID string) (*Assignment, error) {
	snap := es.snapshots.Current()
	exp, ok := snap.Experiment(experimentKey)
	if !ok {
		return nil, &engine.NotFoundError{Kind: "experiment", Key: experimentKey}
	}
	variantID, err := engine.Assign(exp, subjectID)
	if err != nil {
		observability.Current().IncRejectedEvent(experimentKey, "not_running")
		return nil, err
	}
	observability.Current().IncExperimentAssignment(experimentKey, variantID)

	first, err := es.aggregator.RecordExposure(ctx, experimentKey, variantID, subjectID)
	if err != nil {
		// The assignment itself is still valid; losing one exposure event is
		// preferable to failing the SDK call.
		es.log.Error("Failed to record exposure", "experiment", experimentKey, "subject_id", subjectID, "error", err)
		first = false
	}
	if first {
		observability.Current().IncExperimentExposure(experimentKey, variantID)
	}

	return &Assignment{
		ExperimentKey: experimentKey,
		VariantID:     variantID,
		VariantName:   variantName(exp, variantID),
		FirstExposure: first,
	}, nil
}

// RecordConversion attributes the conversion to the subject's deterministic
// variant. Only RUNNING experiments accept events; conversions for paused or
// completed experiments are rejected rather than silently dropped.
func (es *evaluationService) RecordConversion(ctx context.Context, experimentKey, subjectID string) (*ConversionResult, error) {
	snap := es.snapshots.Current()
	exp, ok := snap.Experiment(experimentKey)
	if !ok {
		return nil, &engine.NotFoundError{Kind: "experiment", Key: experimentKey}
	}
	variantID, err := engine.Assign(exp, subjectID)
	if err != nil {
		observability.Current().IncRejectedEvent(experimentKey, "not_running")
		return nil, err
	}

	first, err := es.aggregator.RecordConversion(ctx, experimentKey, variantID, subjectID)
	if err != nil {
		return nil, err
	}
	if first {
		observability.Current().IncExperimentConversion(experimentKey, variantID)
	}
	return &ConversionResult{
		ExperimentKey:   experimentKey,
		VariantID:       variantID,
		FirstConversion: first,
	}, nil
}

func (es *evaluationService) Warmup(ctx context.Context) error {
	seeder, ok := es.store.(interface {
		Seed(experimentKey, variantID string, counts engine.VariantCounts)
	})
	if !ok {
		// Redis-backed counters survive restarts on their own.
		return nil
	}
	experiments, err := es.expRepo.List(ctx, nil, "")
	if err != nil {
		return err
	}
	seeded := 0
	for _, exp := range experiments {
		aggregates, err := es.eventRepo.Aggregate(ctx, nil, exp.Key)
		if err != nil {
			return err
		}
		for _, agg := range aggregates {
			seeder.Seed(exp.Key, agg.VariantID, engine.VariantCounts{
				UsersExposed: agg.UsersExposed,
				Conversions:  agg.Conversions,
			})
			seeded++
		}
	}
	es.log.Info("Warmed counters from event journal", "experiments", len(experiments), "counters", seeded)
	return nil
}

func variantName(exp *engine.Experiment, variantID string) string {
	for _, v := range exp.Variants {
		if v.ID == variantID {
			return v.Name
		}
	}
	return ""
}

// eventJournal adapts the gorm event repo to the engine's journal interface.
type eventJournal struct {
	eventRepo repos.ExperimentEventRepo
}

func (j *eventJournal) Append(ctx context.Context, experimentKey, variantID, subjectID string, event engine.EventType) (bool, error) {
	return j.eventRepo.Append(ctx, nil, &types.ExperimentEvent{
		ID:            uuid.New(),
		ExperimentKey: experimentKey,
		SubjectID:     subjectID,
		Kind:          string(event),
		VariantID:     variantID,
		CreatedAt:     time.Now().UTC(),
	})
}
