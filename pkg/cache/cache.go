// Package cache defines a small byte-oriented cache contract. The Redis
// implementation lives under infra/cache; an in-memory one backs tests and
// local development without Redis.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys with a TTL. A miss is not an
// error; errors mean the backend itself failed and callers should fall
// through to the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
