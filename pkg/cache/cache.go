// Package cache provides a key/value cache with a Redis implementation
// and a no-op fallback for deployments without Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reactit/kycdesk/pkg/lifecycle"
)

// System stores opaque values under string keys with a time-to-live.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New returns a Redis-backed System when cfg.Enabled, otherwise a no-op System.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "cache")

	if !cfg.Enabled {
		return noop{logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeoutDuration(),
	})

	return &redisCache{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: logger,
	}
}

// GetJSON reads key and decodes it into T. A miss returns ok == false.
func GetJSON[T any](ctx context.Context, c System, key string) (T, bool, error) {
	var v T

	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return v, true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, c System, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

type redisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func (r *redisCache) Start(lc *lifecycle.Coordinator) error {
	r.logger.Info("starting cache connection")

	lc.OnStartup(func() {
		if err := r.client.Ping(lc.Context()).Err(); err != nil {
			r.logger.Error("cache ping failed", "error", err)
			return
		}
		r.logger.Info("cache connection established")
	})

	lc.AddProbe("cache", func(ctx context.Context) error {
		return r.client.Ping(ctx).Err()
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := r.client.Close(); err != nil {
			r.logger.Error("cache close failed", "error", err)
			return
		}
		r.logger.Info("cache connection closed")
	})

	return nil
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

type noop struct {
	logger *slog.Logger
}

func (n noop) Start(*lifecycle.Coordinator) error {
	n.logger.Info("cache disabled")
	return nil
}

func (noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (noop) Delete(context.Context, string) error { return nil }
