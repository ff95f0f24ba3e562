package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"unicornfarm/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	UnicornKeyPrefix     = "unicorn:v%d:%d"
	UnicornListKeyPrefix = "unicorns:list:v%d:%d:%d"
	UnicornsVersionKey   = "unicorns:version"
)

const (
	UnicornTTL = 5 * time.Minute
	ListTTL    = 1 * time.Minute
)

// Cache is a best-effort JSON cache in front of the store. A nil Cache, or one
// without a client, behaves as a permanent miss.
//
// Unicorn entries are keyed by a generation number. Writers bump the generation
// after they commit; a reader that raced the commit can only populate a key of
// the old generation, which nobody reads again.
type Cache struct {
	client *redis.Client
}

// New wraps client. client may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// UnicornKey is the cache key for a single visible unicorn in generation gen.
func UnicornKey(gen int64, id uint) string {
	return fmt.Sprintf(UnicornKeyPrefix, gen, id)
}

// UnicornListKey is the cache key for one page of the unicorn listing in generation gen.
func UnicornListKey(gen int64, limit, offset int) string {
	return fmt.Sprintf(UnicornListKeyPrefix, gen, limit, offset)
}

// Generation returns the current unicorn cache generation. ok is false when the
// cache is unusable and the caller should go straight to the store.
func (c *Cache) Generation(ctx context.Context) (gen int64, ok bool) {
	if !c.enabled() {
		return 0, false
	}
	gen, err := c.client.Get(ctx, UnicornsVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		observability.Logger.WarnContext(ctx, "cache generation read failed", slog.String("error", err.Error()))
		return 0, false
	}
	return gen, true
}

// InvalidateUnicorns starts a new generation, orphaning every cached unicorn
// item and listing page. Orphans expire with their TTL.
func (c *Cache) InvalidateUnicorns(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if err := c.client.Incr(ctx, UnicornsVersionKey).Err(); err != nil {
		observability.Logger.WarnContext(ctx, "cache invalidation failed", slog.String("error", err.Error()))
	}
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. Cache failures are logged and never fail the read.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		observability.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		observability.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
