// Package app assembles services, selectors and handlers over a storage
// backend. The server and seed commands share it.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"promisetracker/internal/access"
	classhandler "promisetracker/internal/classifiers/handler"
	classselector "promisetracker/internal/classifiers/selector"
	classservice "promisetracker/internal/classifiers/service"
	jwttoken "promisetracker/internal/jwt_token"
	"promisetracker/internal/platform/metrics"
	promhandler "promisetracker/internal/promises/handler"
	pmodels "promisetracker/internal/promises/models"
	promselector "promisetracker/internal/promises/selector"
	promservice "promisetracker/internal/promises/service"
	"promisetracker/internal/ratelimit"
	"promisetracker/internal/storage/memory"
	"promisetracker/internal/storage/postgres"
	httptransport "promisetracker/internal/transport/http"
	userhandler "promisetracker/internal/users/handler"
	userselector "promisetracker/internal/users/selector"
	userservice "promisetracker/internal/users/service"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/audit/publisher"
	auditmemory "promisetracker/pkg/platform/audit/store/memory"
	auditpostgres "promisetracker/pkg/platform/audit/store/postgres"
	"promisetracker/pkg/platform/tx"
)

// Reader is the read side every selector and the actor resolver query.
type Reader interface {
	access.UserLookup
	userselector.Store
	classselector.Store
	promselector.Store
}

// Backend binds the transactional runners and the read side to one storage
// implementation.
type Backend struct {
	Users       userservice.Runner
	Classifiers tx.Runner[classservice.Store]
	Promises    promservice.Runner
	Reader      Reader
	Audit       audit.Store
}

// MemoryBackend keeps everything in process.
func MemoryBackend(store *memory.Store) Backend {
	return Backend{
		Users:       memory.NewTx[userservice.Store](store),
		Classifiers: memory.NewTx[classservice.Store](store),
		Promises:    memory.NewTx[promservice.Store](store),
		Reader:      store,
		Audit:       auditmemory.NewInMemoryStore(),
	}
}

// PostgresBackend runs each unit of work in a database transaction.
func PostgresBackend(db *sql.DB) Backend {
	return Backend{
		Users:       postgres.NewTx[userservice.Store](db),
		Classifiers: postgres.NewTx[classservice.Store](db),
		Promises:    postgres.NewTx[promservice.Store](db),
		Reader:      postgres.New(db),
		Audit:       auditpostgres.New(db),
	}
}

// AnalyticsCache is read by the analytics selector and cleared by writes that
// change analytics.
type AnalyticsCache interface {
	Get(ctx context.Context, key string) ([]pmodels.AnalyticsRecord, bool)
	Generation() uint64
	Set(ctx context.Context, key string, generation uint64, records []pmodels.AnalyticsRecord) bool
	Invalidate(ctx context.Context)
}

type Options struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Dispatcher  userservice.Dispatcher
	Cache       AnalyticsCache
	Tokens      *jwttoken.JWTService
	TokenTTL    time.Duration
	Settings    userservice.Settings
	AuditBuffer int
	// RateLimiter may be nil, which disables throttling.
	RateLimiter *ratelimit.Middleware
}

type App struct {
	Users       *userservice.UserService
	Auth        *userservice.AuthService
	Classifiers *classservice.Service
	Promises    *promservice.PromiseService
	Results     *promservice.ResultService
	Resolver    *access.Resolver

	handlers []httptransport.Registrar
	audit    *publisher.Publisher
	logger   *slog.Logger
	tokens   *jwttoken.JWTService
	metrics  *metrics.Metrics
	limiter  *ratelimit.Middleware
}

func New(b Backend, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := opts.Settings
	if settings == (userservice.Settings{}) {
		settings = userservice.DefaultSettings()
	}
	auditor := publisher.NewPublisher(b.Audit,
		publisher.WithAsyncBuffer(opts.AuditBuffer),
		publisher.WithLogger(logger),
	)

	users := userservice.NewUserService(b.Users, opts.Dispatcher,
		userservice.WithLogger(logger),
		userservice.WithAuditPublisher(auditor),
		userservice.WithMetrics(opts.Metrics),
		userservice.WithSettings(settings),
	)
	auth := userservice.NewAuthService(b.Users, users, opts.Tokens, opts.TokenTTL,
		userservice.WithLogger(logger),
		userservice.WithAuditPublisher(auditor),
		userservice.WithMetrics(opts.Metrics),
		userservice.WithSettings(settings),
	)

	classOpts := []classservice.Option{
		classservice.WithLogger(logger),
		classservice.WithAuditPublisher(auditor),
	}
	promOpts := []promservice.Option{
		promservice.WithLogger(logger),
		promservice.WithAuditPublisher(auditor),
		promservice.WithMetrics(opts.Metrics),
	}
	analyticsOpts := []promselector.AnalyticsOption{
		promselector.WithLogger(logger),
		promselector.WithCacheMetrics(opts.Metrics),
	}
	if opts.Cache != nil {
		classOpts = append(classOpts, classservice.WithAnalyticsInvalidator(opts.Cache))
		promOpts = append(promOpts, promservice.WithAnalyticsInvalidator(opts.Cache))
		analyticsOpts = append(analyticsOpts, promselector.WithCache(opts.Cache))
	}
	classifiers := classservice.New(b.Classifiers, classOpts...)
	promises := promservice.NewPromiseService(b.Promises, promOpts...)
	results := promservice.NewResultService(b.Promises, promOpts...)

	a := &App{
		Users:       users,
		Auth:        auth,
		Classifiers: classifiers,
		Promises:    promises,
		Results:     results,
		Resolver:    access.NewResolver(b.Reader),
		audit:       auditor,
		logger:      logger,
		tokens:      opts.Tokens,
		metrics:     opts.Metrics,
		limiter:     opts.RateLimiter,
	}
	a.handlers = []httptransport.Registrar{
		userhandler.New(users, auth, userselector.New(b.Reader), logger,
			userhandler.WithThrottle(opts.RateLimiter.Limit(ratelimit.ClassAuth)),
		),
		classhandler.New(classifiers, classselector.New(b.Reader), logger),
		promhandler.New(promhandler.Dependencies{
			Promises:        promises,
			Results:         results,
			PromiseReader:   promselector.NewPromiseSelector(b.Reader),
			ResultReader:    promselector.NewResultSelector(b.Reader),
			AnalyticsReader: promselector.NewAnalyticsSelector(b.Reader, analyticsOpts...),
		}, logger),
	}
	return a
}

// Router mounts every handler behind the shared middleware chain. cfg supplies
// the surface-level settings; authentication and actor resolution come from
// the app.
func (a *App) Router(cfg httptransport.Config) http.Handler {
	cfg.Logger = a.logger
	cfg.Metrics = a.metrics
	cfg.Tokens = jwttoken.NewJWTServiceAdapter(a.tokens)
	cfg.Resolver = a.Resolver
	cfg.WriteLimit = a.limiter.LimitWrites(ratelimit.ClassWrite)
	return httptransport.NewRouter(cfg, a.handlers...)
}

// Close drains buffered audit events.
func (a *App) Close() {
	a.audit.Close()
}
