package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/repos"
	"github.com/beaconhq/beacon-backend/internal/types"
)

type FlagInput struct {
	Key            string   `json:"key"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Enabled        bool     `json:"enabled"`
	RolloutPercent int      `json:"rolloutPercent"`
	TargetRoles    []string `json:"targetRoles"`
	TargetUserIDs  []string `json:"targetUserIds"`
}

type FeatureFlagService interface {
	Create(ctx context.Context, input FlagInput) (*types.FeatureFlag, error)
	GetByKey(ctx context.Context, key string) (*types.FeatureFlag, error)
	List(ctx context.Context) ([]*types.FeatureFlag, error)
	Update(ctx context.Context, key string, input FlagInput) (*types.FeatureFlag, error)
	SetEnabled(ctx context.Context, key string, enabled bool) (*types.FeatureFlag, error)
	SetRollout(ctx context.Context, key string, percent int) (*types.FeatureFlag, error)
	Delete(ctx context.Context, key string) error
}

type featureFlagService struct {
	db        *gorm.DB
	log       *logger.Logger
	flagRepo  repos.FeatureFlagRepo
	snapshots SnapshotService
}

func NewFeatureFlagService(db *gorm.DB, log *logger.Logger, flagRepo repos.FeatureFlagRepo, snapshots SnapshotService) FeatureFlagService {
	serviceLog := log.With("service", "FeatureFlagService")
	return &featureFlagService{
		db:        db,
		log:       serviceLog,
		flagRepo:  flagRepo,
		snapshots: snapshots,
	}
}

func (fs *featureFlagService) Create(ctx context.Context, input FlagInput) (*types.FeatureFlag, error) {
	input.Key = strings.TrimSpace(input.Key)
	if err := engine.ValidateFlagKey(input.Key); err != nil {
		return nil, err
	}
	if err := engine.ValidateRolloutPercent(input.RolloutPercent); err != nil {
		return nil, err
	}
	exists, err := fs.flagRepo.KeyExists(ctx, nil, input.Key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &engine.ConflictError{Kind: "flag", Key: input.Key}
	}

	now := time.Now().UTC()
	flag := &types.FeatureFlag{
		ID:             uuid.New(),
		Key:            input.Key,
		Name:           input.Name,
		Description:    input.Description,
		Enabled:        input.Enabled,
		RolloutPercent: input.RolloutPercent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := flag.SetTargetRoles(input.TargetRoles); err != nil {
		return nil, err
	}
	if err := flag.SetTargetUserIDs(input.TargetUserIDs); err != nil {
		return nil, err
	}
	if err := fs.flagRepo.Create(ctx, nil, flag); err != nil {
		fs.log.Error("Failed to create flag", "key", input.Key, "error", err)
		return nil, err
	}
	if err := fs.snapshots.Publish(ctx); err != nil {
		return nil, err
	}
	fs.log.Info("Created flag", "key", flag.Key, "enabled", flag.Enabled, "rollout", flag.RolloutPercent)
	return flag, nil
}

func (fs *featureFlagService) GetByKey(ctx context.Context, key string) (*types.FeatureFlag, error) {
	return fs.flagRepo.GetByKey(ctx, nil, key)
}

func (fs *featureFlagService) List(ctx context.Context) ([]*types.FeatureFlag, error) {
	return fs.flagRepo.List(ctx, nil)
}

func (fs *featureFlagService) Update(ctx context.Context, key string, input FlagInput) (*types.FeatureFlag, error) {
	if err := engine.ValidateRolloutPercent(input.RolloutPercent); err != nil {
		return nil, err
	}
	flag, err := fs.flagRepo.GetByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	flag.Name = input.Name
	flag.Description = input.Description
	flag.Enabled = input.Enabled
	flag.RolloutPercent = input.RolloutPercent
	flag.UpdatedAt = time.Now().UTC()
	if err := flag.SetTargetRoles(input.TargetRoles); err != nil {
		return nil, err
	}
	if err := flag.SetTargetUserIDs(input.TargetUserIDs); err != nil {
		return nil, err
	}
	if err := fs.flagRepo.Update(ctx, nil, flag); err != nil {
		return nil, err
	}
	if err := fs.snapshots.Publish(ctx); err != nil {
		return nil, err
	}
	fs.log.Info("Updated flag", "key", key)
	return flag, nil
}

func (fs *featureFlagService) SetEnabled(ctx context.Context, key string, enabled bool) (*types.FeatureFlag, error) {
	flag, err := fs.flagRepo.GetByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	flag.Enabled = enabled
	flag.UpdatedAt = time.Now().UTC()
	if err := fs.flagRepo.Update(ctx, nil, flag); err != nil {
		return nil, err
	}
	if err := fs.snapshots.Publish(ctx); err != nil {
		return nil, err
	}
	fs.log.Info("Toggled flag", "key", key, "enabled", enabled)
	return flag, nil
}

// SetRollout only ever widens or narrows the bucket threshold; bucketing
// itself never changes, so raising the percentage keeps everyone already
// inside the rollout inside it.
func (fs *featureFlagService) SetRollout(ctx context.Context, key string, percent int) (*types.FeatureFlag, error) {
	if err := engine.ValidateRolloutPercent(percent); err != nil {
		return nil, err
	}
	flag, err := fs.flagRepo.GetByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	flag.RolloutPercent = percent
	flag.UpdatedAt = time.Now().UTC()
	if err := fs.flagRepo.Update(ctx, nil, flag); err != nil {
		return nil, err
	}
	if err := fs.snapshots.Publish(ctx); err != nil {
		return nil, err
	}
	fs.log.Info("Updated flag rollout", "key", key, "rollout", percent)
	return flag, nil
}

func (fs *featureFlagService) Delete(ctx context.Context, key string) error {
	if err := fs.flagRepo.Delete(ctx, nil, key); err != nil {
		return err
	}
	if err := fs.snapshots.Publish(ctx); err != nil {
		return err
	}
	fs.log.Info("Deleted flag", "key", key)
	return nil
}
