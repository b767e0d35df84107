package app

import (
	"strings"

	"github.com/beaconhq/beacon-backend/internal/logger"
	"github.com/beaconhq/beacon-backend/internal/utils"
)

type Config struct {
	Port         string
	JWTSecretKey string
	AllowOrigins []string
	RedisAddr    string

	// TargetingOverridesDisabled lets an explicit user target see a flag even
	// when the flag is globally disabled. Off by default: disabling a flag is
	// a kill switch.
	TargetingOverridesDisabled bool
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
	targetingOverrides := utils.GetEnvAsBool("TARGETING_OVERRIDES_DISABLED", false, log)

	return Config{
		Port:                       port,
		JWTSecretKey:               jwtSecretKey,
		AllowOrigins:               splitOrigins(origins),
		RedisAddr:                  redisAddr,
		TargetingOverridesDisabled: targetingOverrides,
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
