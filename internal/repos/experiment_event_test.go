package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/types"
)

func newEvent(experimentKey, subjectID, variantID string, kind engine.EventType) *types.ExperimentEvent {
	return &types.ExperimentEvent{
		ID:            uuid.New(),
		ExperimentKey: experimentKey,
		SubjectID:     subjectID,
		Kind:          string(kind),
		VariantID:     variantID,
	}
}

func TestExperimentEventRepo_AppendDedupsOnConflict(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewExperimentEventRepo(db, log)
	ctx := context.Background()

	inserted, err := repo.Append(ctx, nil, newEvent("exp", "user-1", "control", engine.EventExposure))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !inserted {
		t.Fatalf("first append should insert")
	}

	inserted, err = repo.Append(ctx, nil, newEvent("exp", "user-1", "control", engine.EventExposure))
	if err != nil {
		t.Fatalf("duplicate append errored: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate append should be a no-op")
	}

	// Same subject, different kind: a distinct dedup key.
	inserted, err = repo.Append(ctx, nil, newEvent("exp", "user-1", "control", engine.EventConversion))
	if err != nil {
		t.Fatalf("append conversion: %v", err)
	}
	if !inserted {
		t.Fatalf("conversion for an exposed subject should insert")
	}
}

func TestExperimentEventRepo_AggregateCountsPerVariant(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewExperimentEventRepo(db, log)
	ctx := context.Background()

	seed := []struct {
		subject string
		variant string
		kind    engine.EventType
	}{
		{"u1", "control", engine.EventExposure},
		{"u2", "control", engine.EventExposure},
		{"u2", "control", engine.EventConversion},
		{"u3", "treatment", engine.EventExposure},
		{"u4", "treatment", engine.EventExposure},
		{"u5", "treatment", engine.EventExposure},
		{"u5", "treatment", engine.EventConversion},
	}
	for _, s := range seed {
		if _, err := repo.Append(ctx, nil, newEvent("exp", s.subject, s.variant, s.kind)); err != nil {
			t.Fatalf("append %+v: %v", s, err)
		}
	}
	// A second experiment's rows must not bleed into the aggregate.
	if _, err := repo.Append(ctx, nil, newEvent("other", "u1", "control", engine.EventExposure)); err != nil {
		t.Fatalf("append other: %v", err)
	}

	aggregates, err := repo.Aggregate(ctx, nil, "exp")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	byVariant := map[string]VariantAggregate{}
	for _, a := range aggregates {
		byVariant[a.VariantID] = a
	}
	control := byVariant["control"]
	if control.UsersExposed != 2 || control.Conversions != 1 {
		t.Fatalf("control aggregate wrong: %+v", control)
	}
	treatment := byVariant["treatment"]
	if treatment.UsersExposed != 3 || treatment.Conversions != 1 {
		t.Fatalf("treatment aggregate wrong: %+v", treatment)
	}
}
