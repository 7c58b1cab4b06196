// Package cache defines the contract of the covering cache.
package cache

import (
	"context"
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
)

// Interface stores finished coverings under keys built by package keys.
type Interface interface {
	Get(ctx context.Context, key string) (model.Cells, bool, error)
	Set(ctx context.Context, key string, cells model.Cells, ttl time.Duration) error
}

// Deleter is implemented by stores that can drop entries.
type Deleter interface {
	Del(ctx context.Context, keys ...string) error
}
