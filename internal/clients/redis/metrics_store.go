package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/logger"
)

// MetricsStore is the multi-replica implementation of engine.MetricsStore:
// the seen-set rides on SETNX (atomic check-and-set on the server) and the
// per-variant counters on hash increments, so any number of replicas dedup
// and count against the same state.
type MetricsStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewMetricsStore(log *logger.Logger) (*MetricsStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_METRICS_PREFIX"))
	if prefix == "" {
		prefix = "beacon:metrics"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &MetricsStore{
		log:    log.With("service", "RedisMetricsStore"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (s *MetricsStore) MarkSeen(ctx context.Context, experimentKey, subjectID string, event engine.EventType) (bool, error) {
	if s == nil || s.rdb == nil {
		return false, fmt.Errorf("redis metrics store not initialized")
	}
	key := fmt.Sprintf("%s:seen:%s:%s:%s", s.prefix, experimentKey, string(event), subjectID)
	return s.rdb.SetNX(ctx, key, 1, 0).Result()
}

func (s *MetricsStore) Incr(ctx context.Context, experimentKey, variantID string, event engine.EventType) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis metrics store not initialized")
	}
	key := s.countsKey(experimentKey)
	field := variantID + "|" + string(event)
	return s.rdb.HIncrBy(ctx, key, field, 1).Err()
}

func (s *MetricsStore) Counts(ctx context.Context, experimentKey string) (map[string]engine.VariantCounts, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("redis metrics store not initialized")
	}
	fields, err := s.rdb.HGetAll(ctx, s.countsKey(experimentKey)).Result()
	if err != nil {
		return nil, err
	}
	out := map[string]engine.VariantCounts{}
	for field, raw := range fields {
		sep := strings.LastIndex(field, "|")
		if sep <= 0 {
			continue
		}
		variantID := field[:sep]
		kind := engine.EventType(field[sep+1:])
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.log.Warn("Skipping unparseable counter field", "field", field, "error", err)
			continue
		}
		counts := out[variantID]
		switch kind {
		case engine.EventConversion:
			counts.Conversions = n
		case engine.EventExposure:
			counts.UsersExposed = n
		default:
			continue
		}
		out[variantID] = counts
	}
	return out, nil
}

func (s *MetricsStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *MetricsStore) countsKey(experimentKey string) string {
	return fmt.Sprintf("%s:counts:%s", s.prefix, experimentKey)
}
