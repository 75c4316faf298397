package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-io/ticket-service/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. It returns nil
// when no address is configured.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not provided; ticket sequences will be read from postgres")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// SequenceCounter is a per-period atomic counter stored under prefix+period.
type SequenceCounter struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewSequenceCounter builds a counter on top of any redis.Cmdable.
func NewSequenceCounter(client redis.Cmdable, prefix string, ttl time.Duration) *SequenceCounter {
	return &SequenceCounter{client: client, prefix: prefix, ttl: ttl}
}

// SequenceCounter returns a counter bound to this client.
func (r *Redis) SequenceCounter(prefix string, ttl time.Duration) *SequenceCounter {
	if r == nil || r.Client == nil {
		return nil
	}
	return NewSequenceCounter(r.Client, prefix, ttl)
}

// Next increments the period's counter. The first caller of a period seeds
// it with the last sequence already persisted; SETNX keeps concurrent
// seeders from overwriting one another.
func (c *SequenceCounter) Next(ctx context.Context, period string, seed func(context.Context) (int, error)) (int, error) {
	key := c.prefix + period
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		last, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		if err := c.client.SetNX(ctx, key, last, c.ttl).Err(); err != nil {
			return 0, err
		}
	}
	next, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return int(next), nil
}
