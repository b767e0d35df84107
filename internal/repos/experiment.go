package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/types"
)

type ExperimentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, exp *types.Experiment) error
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.Experiment, error)
	List(ctx context.Context, tx *gorm.DB, status engine.Status) ([]*types.Experiment, error)
	KeyExists(ctx context.Context, tx *gorm.DB, key string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, exp *types.Experiment) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, key string, status engine.Status, winningVariantID string) error
}

type experimentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExperimentRepo(db *gorm.DB, baseLog *logger.Logger) ExperimentRepo {
	repoLog := baseLog.With("repo", "ExperimentRepo")
	return &experimentRepo{db: db, log: repoLog}
}

func (er *experimentRepo) Create(ctx context.Context, tx *gorm.DB, exp *types.Experiment) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	return transaction.WithContext(ctx).Create(exp).Error
}

func (er *experimentRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.Experiment, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var exp types.Experiment
	if err := transaction.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Where("key = ?", key).
		First(&exp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &engine.NotFoundError{Kind: "experiment", Key: key}
		}
		return nil, err
	}
	return &exp, nil
}

func (er *experimentRepo) List(ctx context.Context, tx *gorm.DB, status engine.Status) ([]*types.Experiment, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	query := transaction.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Order("key asc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var results []*types.Experiment
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *experimentRepo) KeyExists(ctx context.Context, tx *gorm.DB, key string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Experiment{}).
		Where("key = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update rewrites the experiment row and replaces its variant rows. Variants
// are replaced wholesale because position and weight edits arrive together
// from the admin form.
func (er *experimentRepo) Update(ctx context.Context, tx *gorm.DB, exp *types.Experiment) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	db := transaction.WithContext(ctx)
	res := db.Model(&types.Experiment{}).
		Where("key = ?", exp.Key).
		Updates(map[string]any{
			"name":        exp.Name,
			"description": exp.Description,
			"status":      exp.Status,
			"updated_at":  exp.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &engine.NotFoundError{Kind: "experiment", Key: exp.Key}
	}
	if err := db.Where("experiment_id = ?", exp.ID).Delete(&types.Variant{}).Error; err != nil {
		return err
	}
	for i := range exp.Variants {
		exp.Variants[i].ExperimentID = exp.ID
		exp.Variants[i].Position = i
	}
	if len(exp.Variants) > 0 {
		if err := db.Create(&exp.Variants).Error; err != nil {
			return err
		}
	}
	return nil
}

func (er *experimentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, key string, status engine.Status, winningVariantID string) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Experiment{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"status":             status,
			"winning_variant_id": winningVariantID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &engine.NotFoundError{Kind: "experiment", Key: key}
	}
	return nil
}
