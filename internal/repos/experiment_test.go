package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/types"
)

func newExperiment(key string) *types.Experiment {
	id := uuid.New()
	return &types.Experiment{
		ID:     id,
		Key:    key,
		Name:   "Experiment " + key,
		Status: engine.StatusDraft,
		Variants: []types.Variant{
			{ID: uuid.New(), ExperimentID: id, VariantID: "control", Name: "Control", Weight: 50, Position: 0},
			{ID: uuid.New(), ExperimentID: id, VariantID: "treatment", Name: "Treatment", Weight: 50, Position: 1},
		},
	}
}

func TestExperimentRepo_CreateAndGetPreservesVariantOrder(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewExperimentRepo(db, log)
	ctx := context.Background()

	if err := repo.Create(ctx, nil, newExperiment("checkout")); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetByKey(ctx, nil, "checkout")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(got.Variants))
	}
	if got.Variants[0].VariantID != "control" || got.Variants[1].VariantID != "treatment" {
		t.Fatalf("variant order lost: %s, %s", got.Variants[0].VariantID, got.Variants[1].VariantID)
	}
}

func TestExperimentRepo_ListFiltersByStatus(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewExperimentRepo(db, log)
	ctx := context.Background()

	running := newExperiment("running-one")
	running.Status = engine.StatusRunning
	if err := repo.Create(ctx, nil, running); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, nil, newExperiment("draft-one")); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := repo.List(ctx, nil, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(all))
	}

	onlyRunning, err := repo.List(ctx, nil, engine.StatusRunning)
	if err != nil {
		t.Fatalf("list running: %v", err)
	}
	if len(onlyRunning) != 1 || onlyRunning[0].Key != "running-one" {
		t.Fatalf("status filter wrong: %+v", onlyRunning)
	}
}

func TestExperimentRepo_UpdateReplacesVariants(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewExperimentRepo(db, log)
	ctx := context.Background()

	exp := newExperiment("rework")
	if err := repo.Create(ctx, nil, exp); err != nil {
		t.Fatalf("create: %v", err)
	}

	exp.Variants = []types.Variant{
		{ID: uuid.New(), ExperimentID: exp.ID, VariantID: "a", Name: "A", Weight: 34},
		{ID: uuid.New(), ExperimentID: exp.ID, VariantID: "b", Name: "B", Weight: 33},
		{ID: uuid.New(), ExperimentID: exp.ID, VariantID: "c", Name: "C", Weight: 33},
	}
	if err := repo.Update(ctx, nil, exp); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByKey(ctx, nil, "rework")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Variants) != 3 {
		t.Fatalf("expected 3 variants after replace, got %d", len(got.Variants))
	}
	if got.Variants[0].VariantID != "a" || got.Variants[2].VariantID != "c" {
		t.Fatalf("replaced variant order wrong: %+v", got.Variants)
	}
}

func TestExperimentRepo_UpdateStatus(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewExperimentRepo(db, log)
	ctx := context.Background()

	if err := repo.Create(ctx, nil, newExperiment("finishing")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdateStatus(ctx, nil, "finishing", engine.StatusCompleted, "treatment"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := repo.GetByKey(ctx, nil, "finishing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != engine.StatusCompleted || got.WinningVariantID != "treatment" {
		t.Fatalf("status update lost: %s / %q", got.Status, got.WinningVariantID)
	}

	if err := repo.UpdateStatus(ctx, nil, "ghost", engine.StatusRunning, ""); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not-found for unknown key, got %v", err)
	}
}
