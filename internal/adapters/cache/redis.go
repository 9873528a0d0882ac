// Package cache provides shared-memo backends for impact evaluations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/amped/longevity/internal/domain/memo"
	"github.com/amped/longevity/internal/domain/model"
	"github.com/amped/longevity/pkg/logger"
)

const (
	defaultPrefix = "longevity:impact:"
	defaultTTL    = 24 * time.Hour
)

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithPrefix sets the key namespace.
func WithPrefix(p string) Option {
	return func(c *RedisCache) {
		if p != "" {
			c.prefix = p
		}
	}
}

// WithTTL sets how long entries live. Zero keeps entries forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for backend failures.
func WithLogger(l logger.Logger) Option {
	return func(c *RedisCache) {
		if l != nil {
			c.log = l
		}
	}
}

// RedisCache shares memoized impacts across instances. Backend errors are
// logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    logger.Logger

	puts   atomic.Int64
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisClient creates a client for addr and db.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping checks the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// NewRedisCache wraps client as a memo.Cache.
func NewRedisCache(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(k memo.Key) string {
	return c.prefix + k.String()
}

// Get implements memo.Cache.
func (c *RedisCache) Get(ctx context.Context, k memo.Key) (model.ImpactValue, bool) {
	raw, err := c.client.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn(ctx, "memo get failed", logger.String("key", k.String()), logger.Error(err))
		}
		c.misses.Add(1)
		return model.ImpactValue{}, false
	}

	var v model.ImpactValue
	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.Warn(ctx, "memo entry corrupt", logger.String("key", k.String()), logger.Error(err))
		c.misses.Add(1)
		return model.ImpactValue{}, false
	}
	c.hits.Add(1)
	return v, true
}

// Put implements memo.Cache.
func (c *RedisCache) Put(ctx context.Context, k memo.Key, v model.ImpactValue) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(k), raw, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "memo put failed", logger.String("key", k.String()), logger.Error(err))
		return
	}
	c.puts.Add(1)
}

// Size reports the number of successful writes by this instance.
func (c *RedisCache) Size() int64 {
	return c.puts.Load()
}

// Stats reports hit and miss counts.
func (c *RedisCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

var _ memo.Cache = (*RedisCache)(nil)
