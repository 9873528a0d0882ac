package app

import (
	"context"
	"fmt"
	"time"

	"github.com/amped/longevity/internal/adapters/cache"
	"github.com/amped/longevity/internal/config"
	"github.com/amped/longevity/internal/domain/memo"
	"github.com/amped/longevity/pkg/logger"
)

// FromConfig builds an Engine from cfg. The returned close function releases
// the memo backend and is always non-nil.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Engine, func() error, error) {
	noop := func() error { return nil }
	if log == nil {
		log = logger.Nop()
	}

	table, err := cfg.ImpactTable()
	if err != nil {
		return nil, noop, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	closeFn := noop
	var c memo.Cache
	switch cfg.CacheBackend {
	case config.CacheMemory:
		c = memo.NewInMemoryCache(memo.WithMaxSize(cfg.CacheSize))
	case config.CacheRedis:
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := cache.Ping(ctx, client); err != nil {
			// The engine still works without the shared memo.
			log.Warn(ctx, "redis memo unreachable at startup", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		}
		c = cache.NewRedisCache(client,
			cache.WithTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second),
			cache.WithLogger(log.Named("memo")),
		)
		closeFn = client.Close
	case config.CacheNone, "":
	default:
		return nil, noop, fmt.Errorf("%w: unknown cache_backend %q", config.ErrInvalidConfig, cfg.CacheBackend)
	}

	base := []Option{
		WithLogger(log),
		WithTable(table),
		WithDefaultBaseline(cfg.DefaultBaselineYears),
	}
	if c != nil {
		base = append(base, WithCache(c, cfg.CacheBackend))
	}

	e := New(append(base, opts...)...)
	log.Info(ctx, "engine ready",
		logger.String("cache_backend", e.cacheBackend),
		logger.Float64("default_baseline_years", cfg.DefaultBaselineYears),
		logger.Int("overrides", len(cfg.ImpactOverrides)),
	)
	return e, closeFn, nil
}
