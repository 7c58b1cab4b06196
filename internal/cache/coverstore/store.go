// Package coverstore is a two-tier covering cache: an in-process expirable
// LRU in front of Redis.
package coverstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
)

const (
	TierLocal = "local"
	TierRedis = "redis"
)

// Remote is the subset of redisstore.Client the store needs.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Store struct {
	local  *expirable.LRU[string, model.Cells]
	remote Remote
}

// New builds a store. size <= 0 disables the local tier; remote may be nil
// for a local-only store. localTTL bounds how long the local tier trusts an
// entry.
func New(remote Remote, size int, localTTL time.Duration) *Store {
	s := &Store{remote: remote}
	if size > 0 {
		s.local = expirable.NewLRU[string, model.Cells](size, nil, localTTL)
	}
	return s
}

// Get consults the local tier, then Redis. A Redis hit is copied into the
// local tier.
func (s *Store) Get(ctx context.Context, key string) (model.Cells, bool, error) {
	if s.local != nil {
		if v, ok := s.local.Get(key); ok {
			observability.IncCacheHit(TierLocal)
			return v, true, nil
		}
		observability.IncCacheMiss(TierLocal)
	}
	if s.remote == nil {
		return nil, false, nil
	}

	raw, ok, err := s.remote.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("coverstore get %q: %w", key, err)
	}
	if !ok {
		observability.IncCacheMiss(TierRedis)
		return nil, false, nil
	}
	var cells model.Cells
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, false, fmt.Errorf("coverstore decode %q: %w", key, err)
	}
	if cells == nil {
		cells = model.Cells{}
	}
	observability.IncCacheHit(TierRedis)
	if s.local != nil {
		s.local.Add(key, cells)
	}
	return cells, true, nil
}

// Set writes both tiers. The local tier is filled even when Redis fails.
func (s *Store) Set(ctx context.Context, key string, cells model.Cells, ttl time.Duration) error {
	if s.local != nil {
		s.local.Add(key, cells)
	}
	if s.remote == nil {
		return nil
	}
	raw, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("coverstore encode %q: %w", key, err)
	}
	if err := s.remote.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("coverstore set %q: %w", key, err)
	}
	return nil
}

// Del removes keys from both tiers.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if s.local != nil {
		for _, k := range keys {
			s.local.Remove(k)
		}
	}
	if s.remote == nil || len(keys) == 0 {
		return nil
	}
	if err := s.remote.Del(ctx, keys...); err != nil {
		return fmt.Errorf("coverstore del: %w", err)
	}
	return nil
}

// Len reports the number of entries held by the local tier.
func (s *Store) Len() int {
	if s.local == nil {
		return 0
	}
	return s.local.Len()
}
