package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// EnumCache fronts the alias/ingredient enumeration scans with a TTL'd redis
// value per field. A miss costs a full scroll of the vector index, so even a
// short TTL pays off; the ingest pipeline invalidates after each run.
type EnumCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewEnumCache(client *redisv9.Client, ttl time.Duration) *EnumCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EnumCache{client: client, ttl: ttl}
}

func (c *EnumCache) Get(ctx context.Context, field string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(field)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get enumeration failed: %w", err)
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached enumeration failed: %w", err)
	}
	return values, true, nil
}

func (c *EnumCache) Set(ctx context.Context, field string, values []string) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal enumeration cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(field), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set enumeration failed: %w", err)
	}
	return nil
}

// Invalidate drops all enumeration entries, called after an ingest run.
func (c *EnumCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key("aliases"), c.key("ingredients")).Err(); err != nil {
		return fmt.Errorf("redis delete enumeration failed: %w", err)
	}
	return nil
}

func (c *EnumCache) key(field string) string {
	return "meta:enum:" + field
}
