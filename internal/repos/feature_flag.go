package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/types"
)

type FeatureFlagRepo interface {
	Create(ctx context.Context, tx *gorm.DB, flag *types.FeatureFlag) error
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.FeatureFlag, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.FeatureFlag, error)
	KeyExists(ctx context.Context, tx *gorm.DB, key string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, flag *types.FeatureFlag) error
	Delete(ctx context.Context, tx *gorm.DB, key string) error
}

type featureFlagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeatureFlagRepo(db *gorm.DB, baseLog *logger.Logger) FeatureFlagRepo {
	repoLog := baseLog.With("repo", "FeatureFlagRepo")
	return &featureFlagRepo{db: db, log: repoLog}
}

func (fr *featureFlagRepo) Create(ctx context.Context, tx *gorm.DB, flag *types.FeatureFlag) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	return transaction.WithContext(ctx).Create(flag).Error
}

func (fr *featureFlagRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.FeatureFlag, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var flag types.FeatureFlag
	if err := transaction.WithContext(ctx).
		Where("key = ?", key).
		First(&flag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &engine.NotFoundError{Kind: "flag", Key: key}
		}
		return nil, err
	}
	return &flag, nil
}

func (fr *featureFlagRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.FeatureFlag, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var results []*types.FeatureFlag
	if err := transaction.WithContext(ctx).
		Order("key asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *featureFlagRepo) KeyExists(ctx context.Context, tx *gorm.DB, key string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.FeatureFlag{}).
		Where("key = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (fr *featureFlagRepo) Update(ctx context.Context, tx *gorm.DB, flag *types.FeatureFlag) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.FeatureFlag{}).
		Where("key = ?", flag.Key).
		Updates(map[string]any{
			"name":            flag.Name,
			"description":     flag.Description,
			"enabled":         flag.Enabled,
			"rollout_percent": flag.RolloutPercent,
			"target_roles":    flag.TargetRoles,
			"target_user_ids": flag.TargetUserIDs,
			"updated_at":      flag.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &engine.NotFoundError{Kind: "flag", Key: flag.Key}
	}
	return nil
}

func (fr *featureFlagRepo) Delete(ctx context.Context, tx *gorm.DB, key string) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	res := transaction.WithContext(ctx).
		Where("key = ?", key).
		Delete(&types.FeatureFlag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &engine.NotFoundError{Kind: "flag", Key: key}
	}
	return nil
}
