// Package cache is an optional Redis read-through layer. A nil *Cache is
// valid and simply calls through to the source.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PostsListKey  = "posts:list"
	postKeyPrefix = "posts:item:"

	PostsTTL = 5 * time.Minute
)

func PostKey(id string) string {
	return postKeyPrefix + id
}

type Cache struct {
	client *redis.Client
}

// New connects to the Redis server at url (redis://host:port/db).
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Cache{client: client}, nil
}

func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	s, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// Aside serves key from Redis when present, otherwise runs fetch (which must
// fill dest) and stores the result. Entries are stored under the key's
// current generation, read before fetch runs, so a fill that races with
// Invalidate lands under a generation nobody reads any more. Redis failures
// only cost a cache miss.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if c == nil {
		return fetch()
	}
	gen, err := c.generation(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return fetch()
	}
	entry := entryKey(key, gen)

	found, err := c.getJSON(ctx, entry, dest)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	if found {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	if err := c.setJSON(ctx, entry, dest, ttl); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}

// Invalidate bumps the generation of keys, orphaning their entries. Errors
// are logged, not returned.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
			pipe.Expire(ctx, generationKey(key), generationTTL)
		}
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "cache invalidate failed", "keys", keys, "error", err)
	}
}

// generationTTL must outlive every entry TTL so a generation never resets
// while entries written under an older value are still alive.
const generationTTL = 24 * time.Hour

func generationKey(key string) string {
	return "gen:" + key
}

func entryKey(key string, gen int64) string {
	return key + "#" + strconv.FormatInt(gen, 10)
}

func (c *Cache) generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
