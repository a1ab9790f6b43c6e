package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buff/report-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. The tables never change within a process lifetime, so the cache's
// value is fast warm restarts: a freshly started replica reads Redis instead
// of re-scanning Postgres. Shared summaries are kept in Redis only — they are
// ephemeral render artifacts, not facts.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	var txns []model.Transaction
	if s.readCached(ctx, tableKey("transactions"), &txns) {
		return txns, nil
	}

	txns, err := s.primary.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCached(ctx, tableKey("transactions"), txns)
	return txns, nil
}

func (s *CachedStore) Positions(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position
	if s.readCached(ctx, tableKey("positions"), &positions) {
		return positions, nil
	}

	positions, err := s.primary.Positions(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCached(ctx, tableKey("positions"), positions)
	return positions, nil
}

func (s *CachedStore) Chains(ctx context.Context) ([]model.Chain, error) {
	var chains []model.Chain
	if s.readCached(ctx, tableKey("chains"), &chains) {
		return chains, nil
	}

	chains, err := s.primary.Chains(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCached(ctx, tableKey("chains"), chains)
	return chains, nil
}

func (s *CachedStore) PutSharedSummary(ctx context.Context, id string, payload []byte) error {
	return s.rdb.Set(ctx, sharedKey(id), payload, s.ttl).Err()
}

func (s *CachedStore) GetSharedSummary(ctx context.Context, id string) ([]byte, error) {
	payload, err := s.rdb.Get(ctx, sharedKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// readCached unmarshals a cached table into dst, reporting a hit.
func (s *CachedStore) readCached(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *CachedStore) writeCached(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func tableKey(name string) string { return fmt.Sprintf("table:%s", name) }
func sharedKey(id string) string  { return fmt.Sprintf("shared:%s", id) }
