// Package cache provides a byte-oriented key/value cache backed by Redis,
// with a no-op implementation when no Redis address is configured. A Redis
// cache that cannot be reached at startup behaves like the no-op cache for the
// life of the process.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/JaimeStill/factotum/pkg/lifecycle"
)

// System caches opaque values by key.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	// Get returns the cached value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key with the configured TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Version reads a counter, 0 when it has never been bumped.
	Version(ctx context.Context, key string) (int64, error)
	// Bump increments a counter and returns its new value. Counters never expire.
	Bump(ctx context.Context, key string) (int64, error)
}

// New returns a Redis cache when cfg.Addr is set, otherwise a no-op cache.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "cache")

	if cfg.Addr == "" {
		return &noop{logger: logger}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeoutDuration(),
	})

	return &redisCache{
		rdb:         rdb,
		prefix:      cfg.Prefix,
		ttl:         cfg.TTLDuration(),
		dialTimeout: cfg.DialTimeoutDuration(),
		logger:      logger,
	}
}

type redisCache struct {
	rdb         *goredis.Client
	prefix      string
	ttl         time.Duration
	dialTimeout time.Duration
	logger      *slog.Logger
	degraded    atomic.Bool
}

func (c *redisCache) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting redis cache")

	// An unreachable cache degrades to database reads; it never blocks readiness.
	lc.OnStartup("cache", func() error {
		ctx, cancel := context.WithTimeout(lc.Context(), c.dialTimeout)
		defer cancel()

		if err := c.rdb.Ping(ctx).Err(); err != nil {
			c.degraded.Store(true)
			c.logger.Warn("redis ping failed, serving without cache", "error", err)
			return nil
		}
		c.logger.Info("redis cache ready")
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := c.rdb.Close(); err != nil {
			c.logger.Error("redis close failed", "error", err)
			return
		}
		c.logger.Info("redis cache closed")
	})

	return nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.degraded.Load() {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) error {
	if c.degraded.Load() {
		return nil
	}
	if err := c.rdb.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Version(ctx context.Context, key string) (int64, error) {
	if c.degraded.Load() {
		return 0, nil
	}
	v, err := c.rdb.Get(ctx, c.prefix+key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version %s: %w", key, err)
	}
	return v, nil
}

func (c *redisCache) Bump(ctx context.Context, key string) (int64, error) {
	if c.degraded.Load() {
		return 0, nil
	}
	v, err := c.rdb.Incr(ctx, c.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache bump %s: %w", key, err)
	}
	return v, nil
}

type noop struct {
	logger *slog.Logger
}

func (n *noop) Start(lc *lifecycle.Coordinator) error {
	n.logger.Info("no redis address configured, caching disabled")
	return nil
}

func (n *noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (n *noop) Set(context.Context, string, []byte) error          { return nil }
func (n *noop) Version(context.Context, string) (int64, error)     { return 0, nil }
func (n *noop) Bump(context.Context, string) (int64, error)        { return 0, nil }
