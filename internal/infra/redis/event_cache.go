package redis

import (
	"context"
	"fmt"

	"wallet-flows/internal/domain/ports/repository"

	goredis "github.com/go-redis/redis/v8"
)

const eventCachePrefix = "event-cache:"

var _ repository.EventCache = (*eventCache)(nil)

// eventCache persists one-time UI milestones in Redis. Writes go through a
// single SET per key, which Redis serializes, satisfying the atomic
// per-key write requirement of the port. Milestones never expire.
type eventCache struct {
	cli RedisClient
}

func NewEventCache(cli RedisClient) *eventCache {
	return &eventCache{cli: cli}
}

func (c *eventCache) Get(ctx context.Context, key repository.EventCacheKey) (bool, error) {
	v, err := c.cli.Get(ctx, eventCachePrefix+string(key))
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("event cache get %q: %w", key, err)
	}
	return v == "1", nil
}

func (c *eventCache) Set(ctx context.Context, key repository.EventCacheKey, value bool) error {
	v := "0"
	if value {
		v = "1"
	}
	if err := c.cli.Set(ctx, eventCachePrefix+string(key), v, 0); err != nil {
		return fmt.Errorf("event cache set %q: %w", key, err)
	}
	return nil
}
