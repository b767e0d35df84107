package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/repos"
	"github.com/beaconhq/beacon-backend/internal/types"
)

type VariantInput struct {
	VariantID string `json:"variantId"`
	Name      string `json:"name"`
	Weight    int    `json:"weight"`
}

type ExperimentInput struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Variants    []VariantInput `json:"variants"`
}

// VariantMetrics is one row of the admin metrics view.
type VariantMetrics struct {
	VariantID      string  `json:"variantId"`
	Name           string  `json:"variantName"`
	UsersExposed   int64   `json:"users"`
	Conversions    int64   `json:"conversions"`
	ConversionRate float64 `json:"conversionRate"`
}

// VariantComparison pairs a treatment variant with its test against the
// control (the first variant in the experiment's order).
type VariantComparison struct {
	VariantID    string                    `json:"variantId"`
	Significance engine.SignificanceResult `json:"significance"`
}

type ExperimentMetrics struct {
	ExperimentKey string           `json:"experimentKey"`
	Status        engine.Status    `json:"status"`
	Variants      []VariantMetrics `json:"variants"`

	// Significance is the control-vs-first-treatment test, the common
	// two-variant case. Comparisons carries the full set for experiments
	// with more than one treatment.
	Significance   engine.SignificanceResult `json:"significance"`
	Comparisons    []VariantComparison       `json:"comparisons,omitempty"`
	Recommendation string                    `json:"recommendation"`
}

type ExperimentService interface {
	Create(ctx context.Context, input ExperimentInput) (*types.Experiment, error)
	GetByKey(ctx context.Context, key string) (*types.Experiment, error)
	List(ctx context.Context, status engine.Status) ([]*types.Experiment, error)
	Update(ctx context.Context, key string, input ExperimentInput) (*types.Experiment, error)
	Start(ctx context.Context, key string) (*types.Experiment, error)
	Pause(ctx context.Context, key string) (*types.Experiment, error)
	Complete(ctx context.Context, key string, winningVariantID string) (*types.Experiment, error)
	Metrics(ctx context.Context, key string) (*ExperimentMetrics, error)
}

type experimentService struct {
	db        *gorm.DB
	log       *logger.Logger
	expRepo   repos.ExperimentRepo
	store     engine.MetricsStore
	snapshots SnapshotService
}

func NewExperimentService(db *gorm.DB, log *logger.Logger, expRepo repos.ExperimentRepo, store engine.MetricsStore, snapshots SnapshotService) ExperimentService {
	serviceLog := log.With("service", "ExperimentService")
	return &experimentService{
		db:        db,
		log:       serviceLog,
		expRepo:   expRepo,
		store:     store,
		snapshots: snapshots,
	}
}

func (es *experimentService) Create(ctx context.Context, input ExperimentInput) (*types.Experiment, error) {
	input.Key = strings.TrimSpace(input.Key)
	draft := toEngineExperiment(input.Key, engine.StatusDraft, input.Variants)
	if err := engine.ValidateExperiment(draft); err != nil {
		return nil, err
	}
	exists, err := es.expRepo.KeyExists(ctx, nil, input.Key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &engine.ConflictError{Kind: "experiment", Key: input.Key}
	}

	now := time.Now().UTC()
	exp := &types.Experiment{
		ID:          uuid.New(),
		Key:         input.Key,
		Name:        input.Name,
		Description: input.Description,
		Status:      engine.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, v := range input.Variants {
		exp.Variants = append(exp.Variants, types.Variant{
			ID:           uuid.New(),
			ExperimentID: exp.ID,
			VariantID:    v.VariantID,
			Name:         v.Name,
			Weight:       v.Weight,
			Position:     i,
		})
	}
	if err := es.expRepo.Create(ctx, nil, exp); err != nil {
		es.log.Error("Failed to create experiment", "key", input.Key, "error", err)
		return nil, err
	}
	if err := es.snapshots.Publish(ctx); err != nil {
		return nil, err
	}
	es.log.Info("Created experiment", "key", exp.Key, "variants", len(exp.Variants))
	return exp, nil
}

func (es *experimentService) GetByKey(ctx context.Context, key string) (*types.Experiment, error) {
	return es.expRepo.GetByKey(ctx, nil, key)
}

func (es *experimentService) List(ctx context.Context, status engine.Status) ([]*types.Experiment, error) {
	if status != "" && !status.Valid() {
		return nil, engine.NewValidationError("status", "unknown status")
	}
	return es.expRepo.List(ctx, nil, status)
}

// Update edits name, description and variants. Variant edits are only legal
// while the experiment is still a DRAFT: changing weights or the variant set
// after assignment has begun would silently reshuffle subjects.
func (es *experimentService) Update(ctx context.Context, key string, input ExperimentInput) (*types.Experiment, error) {
	exp, err := es.expRepo.GetByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	if variantsChanged(exp.Variants, input.Variants) && exp.Status != engine.StatusDraft {
		return nil, &engine.StateError{From: exp.Status, Op: "edit variants of"}
	}
	if err := engine.ValidateExperiment(toEngineExperiment(key, exp.Status, input.Variants)); err != nil {
		return nil, err
	}

	exp.Name = input.Name
	exp.Description = input.Description
	exp.UpdatedAt = time.Now().UTC()
	variants := make([]types.Variant, 0, len(input.Variants))
	for i, v := range input.Variants {
		variants = append(variants, types.Variant{
			ID:           uuid.New(),
			ExperimentID: exp.ID,
			VariantID:    v.VariantID,
			Name:         v.Name,
			Weight:       v.Weight,
			Position:     i,
		})
	}
	exp.Variants = variants
	if err := es.expRepo.Update(ctx, nil, exp); err != nil {
		return nil, err
	}
	if err := es.snapshots.Publish(ctx); err != nil {
		return nil, err
	}
	es.log.Info("Updated experiment", "key", key)
	return exp, nil
}

func (es *experimentService) Start(ctx context.Context, key string) (*types.Experiment, error) {
	return es.transition(ctx, key, "", func(view *engine.Experiment) error {
		return engine.Start(view)
	})
}

func (es *experimentService) Pause(ctx context.Context, key string) (*types.Experiment, error) {
	return es.transition(ctx, key, "", func(view *engine.Experiment) error {
		return engine.Pause(view)
	})
}

func (es *experimentService) Complete(ctx context.Context, key string, winningVariantID string) (*types.Experiment, error) {
	return es.transition(ctx, key, winningVariantID, func(view *engine.Experiment) error {
		return engine.Complete(view, winningVariantID)
	})
}

func (es *experimentService) transition(ctx context.Context, key, winningVariantID string, apply func(*engine.Experiment) error) (*types.Experiment, error) {
	exp, err := es.expRepo.GetByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	view := exp.Engine()
	if err := apply(view); err != nil {
		return nil, err
	}
	exp.Status = view.Status
	exp.WinningVariantID = view.WinningVariantID
	exp.UpdatedAt = time.Now().UTC()
	if err := es.expRepo.UpdateStatus(ctx, nil, key, view.Status, view.WinningVariantID); err != nil {
		return nil, err
	}
	if err := es.snapshots.Publish(ctx); err != nil {
		return nil, err
	}
	es.log.Info("Experiment transitioned", "key", key, "status", view.Status, "winner", winningVariantID)
	return exp, nil
}

func (es *experimentService) Metrics(ctx context.Context, key string) (*ExperimentMetrics, error) {
	exp, err := es.expRepo.GetByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	counts, err := es.store.Counts(ctx, key)
	if err != nil {
		return nil, err
	}

	out := &ExperimentMetrics{
		ExperimentKey: exp.Key,
		Status:        exp.Status,
	}
	for _, v := range exp.Variants {
		c := counts[v.VariantID]
		rate := 0.0
		if c.UsersExposed > 0 {
			rate = float64(c.Conversions) / float64(c.UsersExposed)
		}
		out.Variants = append(out.Variants, VariantMetrics{
			VariantID:      v.VariantID,
			Name:           v.Name,
			UsersExposed:   c.UsersExposed,
			Conversions:    c.Conversions,
			ConversionRate: rate,
		})
	}

	// The first variant in experiment order is the control; every other
	// variant is tested against it.
	if len(exp.Variants) >= 2 {
		control := counts[exp.Variants[0].VariantID]
		for _, v := range exp.Variants[1:] {
			out.Comparisons = append(out.Comparisons, VariantComparison{
				VariantID:    v.VariantID,
				Significance: engine.Significance(control, counts[v.VariantID]),
			})
		}
		out.Significance = out.Comparisons[0].Significance
	}
	out.Recommendation = recommend(out.Comparisons)
	return out, nil
}

func recommend(comparisons []VariantComparison) string {
	best := ""
	bestLift := 0.0
	for _, c := range comparisons {
		if !c.Significance.Computable || !c.Significance.IsSignificant {
			continue
		}
		if c.Significance.LiftPercent > bestLift {
			best = c.VariantID
			bestLift = c.Significance.LiftPercent
		}
	}
	if best == "" {
		return "continue running: no significant difference detected"
	}
	return fmt.Sprintf("variant %s shows a significant lift of %.1f%% over control", best, bestLift)
}

func toEngineExperiment(key string, status engine.Status, variants []VariantInput) *engine.Experiment {
	out := &engine.Experiment{Key: key, Status: status}
	for _, v := range variants {
		out.Variants = append(out.Variants, engine.Variant{
			ID:     v.VariantID,
			Name:   v.Name,
			Weight: v.Weight,
		})
	}
	return out
}

func variantsChanged(current []types.Variant, next []VariantInput) bool {
	if len(current) != len(next) {
		return true
	}
	for i, v := range current {
		if v.VariantID != next[i].VariantID || v.Weight != next[i].Weight {
			return true
		}
	}
	return false
}
