package engine

import (
	"context"
	"sync"
	"sync/atomic"
)

type EventType string

const (
	EventExposure   EventType = "exposure"
	EventConversion EventType = "conversion"
)

// VariantCounts is the per-variant read model consumed by the significance
// calculator and the admin metrics endpoint.
type VariantCounts struct {
	UsersExposed int64 `json:"usersExposed"`
	Conversions  int64 `json:"conversions"`
}

// MetricsStore is where the aggregator keeps its seen-set and counters. The
// in-memory implementation below serves a single replica; the Redis
// implementation in internal/clients/redis shares state across replicas.
type MetricsStore interface {
	// MarkSeen records (experimentKey, subjectID, event) and reports whether
	// this was the first occurrence. The check-and-set is atomic, so two
	// racing calls for the same subject cannot both observe "first".
	MarkSeen(ctx context.Context, experimentKey, subjectID string, event EventType) (bool, error)
	Incr(ctx context.Context, experimentKey, variantID string, event EventType) error
	Counts(ctx context.Context, experimentKey string) (map[string]VariantCounts, error)
}

// EventJournal persists each first event durably. Append reports whether the
// row was actually written: a false return means some other writer (a peer
// replica, or this process before a restart) already recorded the event, and
// the counter must not move again.
type EventJournal interface {
	Append(ctx context.Context, experimentKey, variantID, subjectID string, event EventType) (bool, error)
}

// Aggregator applies first-exposure / first-conversion semantics on top of a
// MetricsStore. Counters only ever go up; lifecycle transitions never touch
// them. The journal, when present, is the authority on "first": the seen-set
// in the store is a fast local gate, the journal's unique constraint is what
// holds across restarts and replicas.
type Aggregator struct {
	store   MetricsStore
	journal EventJournal
}

// NewAggregator builds an aggregator. journal may be nil, in which case the
// store's seen-set alone decides firstness.
func NewAggregator(store MetricsStore, journal EventJournal) *Aggregator {
	return &Aggregator{store: store, journal: journal}
}

func (a *Aggregator) RecordExposure(ctx context.Context, experimentKey, variantID, subjectID string) (bool, error) {
	return a.record(ctx, experimentKey, variantID, subjectID, EventExposure)
}

func (a *Aggregator) RecordConversion(ctx context.Context, experimentKey, variantID, subjectID string) (bool, error) {
	return a.record(ctx, experimentKey, variantID, subjectID, EventConversion)
}

func (a *Aggregator) record(ctx context.Context, experimentKey, variantID, subjectID string, event EventType) (bool, error) {
	first, err := a.store.MarkSeen(ctx, experimentKey, subjectID, event)
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}
	if a.journal != nil {
		inserted, err := a.journal.Append(ctx, experimentKey, variantID, subjectID, event)
		if err != nil {
			return false, err
		}
		if !inserted {
			// A fresh seen-set (post-restart) raced a journal that already
			// has the row. The counter was moved when the row was written.
			return false, nil
		}
	}
	if err := a.store.Incr(ctx, experimentKey, variantID, event); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Aggregator) Counts(ctx context.Context, experimentKey string) (map[string]VariantCounts, error) {
	return a.store.Counts(ctx, experimentKey)
}

const seenShards = 16

type variantCounter struct {
	exposed     atomic.Int64
	conversions atomic.Int64
}

type seenShard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// MemoryMetricsStore keeps counters as atomics and the seen-set sharded by a
// cheap hash of the dedup key, so concurrent request handlers rarely contend
// on the same lock.
type MemoryMetricsStore struct {
	shards [seenShards]seenShard

	mu       sync.RWMutex
	counters map[string]map[string]*variantCounter
}

func NewMemoryMetricsStore() *MemoryMetricsStore {
	s := &MemoryMetricsStore{counters: map[string]map[string]*variantCounter{}}
	for i := range s.shards {
		s.shards[i].keys = map[string]struct{}{}
	}
	return s
}

func dedupKey(experimentKey, subjectID string, event EventType) string {
	return experimentKey + "\x00" + subjectID + "\x00" + string(event)
}

func shardIndex(key string) int {
	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return int(h % seenShards)
}

func (s *MemoryMetricsStore) MarkSeen(_ context.Context, experimentKey, subjectID string, event EventType) (bool, error) {
	key := dedupKey(experimentKey, subjectID, event)
	shard := &s.shards[shardIndex(key)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if _, seen := shard.keys[key]; seen {
		return false, nil
	}
	shard.keys[key] = struct{}{}
	return true, nil
}

func (s *MemoryMetricsStore) Incr(_ context.Context, experimentKey, variantID string, event EventType) error {
	c := s.counter(experimentKey, variantID)
	switch event {
	case EventConversion:
		c.conversions.Add(1)
	default:
		c.exposed.Add(1)
	}
	return nil
}

// Seed pre-loads a counter, used at boot to warm the read model from the
// persisted event aggregates.
func (s *MemoryMetricsStore) Seed(experimentKey, variantID string, counts VariantCounts) {
	c := s.counter(experimentKey, variantID)
	c.exposed.Store(counts.UsersExposed)
	c.conversions.Store(counts.Conversions)
}

func (s *MemoryMetricsStore) Counts(_ context.Context, experimentKey string) (map[string]VariantCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]VariantCounts{}
	for variantID, c := range s.counters[experimentKey] {
		out[variantID] = VariantCounts{
			UsersExposed: c.exposed.Load(),
			Conversions:  c.conversions.Load(),
		}
	}
	return out, nil
}

func (s *MemoryMetricsStore) counter(experimentKey, variantID string) *variantCounter {
	s.mu.RLock()
	byVariant := s.counters[experimentKey]
	var c *variantCounter
	if byVariant != nil {
		c = byVariant[variantID]
	}
	s.mu.RUnlock()
	if c != nil {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byVariant = s.counters[experimentKey]
	if byVariant == nil {
		byVariant = map[string]*variantCounter{}
		s.counters[experimentKey] = byVariant
	}
	c = byVariant[variantID]
	if c == nil {
		c = &variantCounter{}
		byVariant[variantID] = c
	}
	return c
}
