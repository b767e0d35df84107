package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/types"
)

type VariantAggregate struct {
	VariantID    string
	UsersExposed int64
	Conversions  int64
}

type ExperimentEventRepo interface {
	// Append inserts the event row and reports whether it was actually
	// written. A false return means another writer (this replica or a peer)
	// already recorded the same (experiment, subject, kind).
	Append(ctx context.Context, tx *gorm.DB, event *types.ExperimentEvent) (bool, error)
	Aggregate(ctx context.Context, tx *gorm.DB, experimentKey string) ([]VariantAggregate, error)
}

type experimentEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExperimentEventRepo(db *gorm.DB, baseLog *logger.Logger) ExperimentEventRepo {
	repoLog := baseLog.With("repo", "ExperimentEventRepo")
	return &experimentEventRepo{db: db, log: repoLog}
}

func (er *experimentEventRepo) Append(ctx context.Context, tx *gorm.DB, event *types.ExperimentEvent) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (er *experimentEventRepo) Aggregate(ctx context.Context, tx *gorm.DB, experimentKey string) ([]VariantAggregate, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	type row struct {
		VariantID string
		Kind      string
		Total     int64
	}
	var rows []row
	if err := transaction.WithContext(ctx).
		Model(&types.ExperimentEvent{}).
		Select("variant_id, kind, count(*) as total").
		Where("experiment_key = ?", experimentKey).
		Group("variant_id").
		Group("kind").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	byVariant := map[string]*VariantAggregate{}
	order := []string{}
	for _, r := range rows {
		agg := byVariant[r.VariantID]
		if agg == nil {
			agg = &VariantAggregate{VariantID: r.VariantID}
			byVariant[r.VariantID] = agg
			order = append(order, r.VariantID)
		}
		switch engine.EventType(r.Kind) {
		case engine.EventConversion:
			agg.Conversions = r.Total
		default:
			agg.UsersExposed = r.Total
		}
	}
	out := make([]VariantAggregate, 0, len(order))
	for _, id := range order {
		out = append(out, *byVariant[id])
	}
	return out, nil
}
