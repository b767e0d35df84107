package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/beaconhq/beacon-backend/internal/db"
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/observability"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	observability.Init()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	// Publish the first snapshot and warm the counters before the router
	// starts taking traffic, so the first evaluation already sees every
	// definition and every historical count.
	bootCtx := context.Background()
	if err := serviceset.Snapshot.Publish(bootCtx); err != nil {
		log.Sync()
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	if err := serviceset.Evaluation.Warmup(bootCtx); err != nil {
		log.Sync()
		return nil, fmt.Errorf("counter warmup: %w", err)
	}

	middlewareset, err := wireMiddleware(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset)
	router := wireRouter(cfg, handlerset, middlewareset)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if closer, ok := a.Services.MetricsStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
