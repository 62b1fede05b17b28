package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"promisetracker/internal/app"
	"promisetracker/internal/notifications"
	"promisetracker/internal/platform/config"
	"promisetracker/internal/platform/kafka"
	"promisetracker/internal/platform/postgres"
	"promisetracker/internal/platform/redis"
	"promisetracker/internal/promises/cache"
	"promisetracker/internal/ratelimit"
	"promisetracker/internal/storage/memory"
	httptransport "promisetracker/internal/transport/http"
	userservice "promisetracker/internal/users/service"
	"promisetracker/pkg/platform/circuit"
)

// runtime holds the external connections selected by configuration. Each is
// optional; an unset DSN, URL or broker list falls back to an in-process
// implementation.
type runtime struct {
	db       *sql.DB
	redis    *redis.Client
	producer *kgo.Client

	backend    app.Backend
	cache      app.AnalyticsCache
	rateStore  ratelimit.Store
	dispatcher userservice.Dispatcher
	health     map[string]httptransport.HealthCheck
}

// connect dials the configured dependencies concurrently.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{health: map[string]httptransport.HealthCheck{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cfg.Database.DSN == "" {
			return nil
		}
		db, err := postgres.Open(gctx, cfg.Database)
		if err != nil {
			return err
		}
		rt.db = db
		return nil
	})
	g.Go(func() error {
		client, err := redis.New(gctx, cfg.Redis)
		if err != nil {
			return err
		}
		rt.redis = client
		return nil
	})
	g.Go(func() error {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		rt.producer = producer
		return nil
	})
	if err := g.Wait(); err != nil {
		rt.Close()
		return nil, err
	}

	if rt.db != nil {
		rt.backend = app.PostgresBackend(rt.db)
		rt.health["postgres"] = rt.db.PingContext
		logger.InfoContext(ctx, "using postgres storage")
	} else {
		rt.backend = app.MemoryBackend(memory.New())
		logger.WarnContext(ctx, "no database configured, using in-memory storage")
	}

	local := cache.NewMemory(cfg.Redis.AnalyticsTTL)
	if rt.redis != nil {
		breaker := circuit.New("analytics-cache")
		rt.cache = cache.NewResilient(cache.NewRedis(rt.redis.Client, cfg.Redis.AnalyticsTTL), local, breaker, logger)
		rt.rateStore = ratelimit.NewRedisStore(rt.redis.Client)
		rt.health["redis"] = rt.redis.Health
	} else {
		rt.cache = local
		rt.rateStore = ratelimit.NewMemoryStore()
	}

	if rt.producer != nil {
		rt.dispatcher = notifications.NewKafkaDispatcher(rt.producer, cfg.Kafka.VerificationTopic, logger)
		rt.health["kafka"] = rt.producer.Ping
	} else {
		rt.dispatcher = notifications.NewLogDispatcher(logger)
	}
	return rt, nil
}

func (rt *runtime) Close() {
	var errs []error
	if rt.producer != nil {
		rt.producer.Close()
	}
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.db != nil {
		errs = append(errs, rt.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Default().Warn("closing connections", "error", err)
	}
}
