package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/observability"
	"github.com/beaconhq/beacon-backend/internal/repos"
)

// SnapshotService owns the published evaluation view. Every admin write ends
// with Publish, which rebuilds the whole snapshot from the database and swaps
// it in atomically. Rebuilding from scratch instead of patching keeps the
// write path trivially correct at the definition counts this service sees
// (tens to low hundreds of flags and experiments).
type SnapshotService interface {
	Publish(ctx context.Context) error
	Current() *engine.Snapshot
}

type snapshotService struct {
	db       *gorm.DB
	log      *logger.Logger
	flagRepo repos.FeatureFlagRepo
	expRepo  repos.ExperimentRepo
	store    *engine.Store
}

func NewSnapshotService(db *gorm.DB, log *logger.Logger, flagRepo repos.FeatureFlagRepo, expRepo repos.ExperimentRepo, store *engine.Store) SnapshotService {
	serviceLog := log.With("service", "SnapshotService")
	return &snapshotService{
		db:       db,
		log:      serviceLog,
		flagRepo: flagRepo,
		expRepo:  expRepo,
		store:    store,
	}
}

func (ss *snapshotService) Publish(ctx context.Context) error {
	flags, err := ss.flagRepo.List(ctx, nil)
	if err != nil {
		ss.log.Error("Failed to load flags for snapshot", "error", err)
		return err
	}
	experiments, err := ss.expRepo.List(ctx, nil, "")
	if err != nil {
		ss.log.Error("Failed to load experiments for snapshot", "error", err)
		return err
	}

	next := engine.NewSnapshot()
	for _, row := range flags {
		next.Flags[row.Key] = row.Engine()
	}
	for _, row := range experiments {
		next.Experiments[row.Key] = row.Engine()
	}
	ss.store.Swap(next)
	observability.Current().IncSnapshotPublished()
	ss.log.Debug("Published snapshot", "flags", len(next.Flags), "experiments", len(next.Experiments))
	return nil
}

func (ss *snapshotService) Current() *engine.Snapshot {
	return ss.store.Load()
}
