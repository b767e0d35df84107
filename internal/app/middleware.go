package app

import (
	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/middleware"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) (Middleware, error) {
	log.Info("Wiring middleware...")
	auth, err := middleware.NewAuthMiddleware(log, cfg.JWTSecretKey)
	if err != nil {
		return Middleware{}, err
	}
	return Middleware{Auth: auth}, nil
}
