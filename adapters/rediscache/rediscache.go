// Package rediscache adapts a Redis client to the auth.Cache capability
// the revocation registry consumes.
package rediscache

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-tokenauth"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client behind auth.Cache.
type Cache struct {
	client redis.UniversalClient
}

// New creates a Cache around an already configured client. The client owns
// timeouts and retries; failures surface to callers unmodified in meaning.
func New(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// Get returns the value under key. Absence is reported through the
// boolean, never as an error.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if goerrors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "redis get failed").
			WithMetadata(map[string]any{"key": key})
	}

	return value, true, nil
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "redis set failed").
			WithMetadata(map[string]any{"key": key})
	}
	return nil
}

// Verify interface compliance
var _ auth.Cache = (*Cache)(nil)
