package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"promisetracker/internal/promises/models"
	"promisetracker/pkg/platform/circuit"
)

// hashKey holds every cached tally as one field, so invalidation is one DEL.
const hashKey = "promise-tracker:analytics"

// Redis stores tallies in a single hash with a shared expiry.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Lookup returns (nil, false, nil) on a miss.
func (r *Redis) Lookup(ctx context.Context, key string) ([]models.AnalyticsRecord, bool, error) {
	raw, err := r.client.HGet(ctx, hashKey, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis hget: %w", err)
	}
	var records []models.AnalyticsRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false, fmt.Errorf("decode analytics: %w", err)
	}
	return records, true, nil
}

func (r *Redis) Store(ctx context.Context, key string, records []models.AnalyticsRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode analytics: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey, key, raw)
		pipe.Expire(ctx, hashKey, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Forget drops one tally.
func (r *Redis) Forget(ctx context.Context, key string) error {
	return r.client.HDel(ctx, hashKey, key).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, hashKey).Err()
}

// Resilient serves from Redis while it is healthy and from an in-process
// cache while the breaker is open. Invalidation always reaches both. The
// in-process cache owns the generation counter.
type Resilient struct {
	primary  *Redis
	fallback *Memory
	breaker  *circuit.Breaker
	logger   *slog.Logger
	// stale is set when an invalidation could not reach Redis.
	stale atomic.Bool
}

func NewResilient(primary *Redis, fallback *Memory, breaker *circuit.Breaker, logger *slog.Logger) *Resilient {
	return &Resilient{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (c *Resilient) Get(ctx context.Context, key string) ([]models.AnalyticsRecord, bool) {
	if c.stale.Load() {
		if err := c.primary.Clear(ctx); err != nil {
			c.failure(ctx, err)
			return c.fallback.Get(ctx, key)
		}
		c.stale.Store(false)
	}
	records, ok, err := c.primary.Lookup(ctx, key)
	if err != nil {
		c.failure(ctx, err)
		return c.fallback.Get(ctx, key)
	}
	if !c.success(ctx) {
		return c.fallback.Get(ctx, key)
	}
	return records, ok
}

func (c *Resilient) Generation() uint64 {
	return c.fallback.Generation()
}

// Set writes through to Redis. If an Invalidate lands while the write is in
// flight, the key is removed again so the stale tally cannot survive the clear.
func (c *Resilient) Set(ctx context.Context, key string, generation uint64, records []models.AnalyticsRecord) bool {
	if !c.fallback.Set(ctx, key, generation, records) {
		return false
	}
	if err := c.primary.Store(ctx, key, records); err != nil {
		c.failure(ctx, err)
		return true
	}
	c.success(ctx)
	if c.fallback.Generation() != generation {
		if err := c.primary.Forget(ctx, key); err != nil {
			c.stale.Store(true)
			c.failure(ctx, err)
		}
		return false
	}
	return true
}

func (c *Resilient) Invalidate(ctx context.Context) {
	c.fallback.Invalidate(ctx)
	if err := c.primary.Clear(ctx); err != nil {
		c.stale.Store(true)
		c.failure(ctx, err)
		return
	}
	c.success(ctx)
}

func (c *Resilient) failure(ctx context.Context, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "analytics cache circuit opened, using in-process cache",
			"breaker", c.breaker.Name(),
			"error", err,
		)
		return
	}
	c.logger.DebugContext(ctx, "analytics cache call failed", "error", err)
}

func (c *Resilient) success(ctx context.Context) bool {
	usePrimary, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.InfoContext(ctx, "analytics cache circuit closed", "breaker", c.breaker.Name())
	}
	return usePrimary
}
