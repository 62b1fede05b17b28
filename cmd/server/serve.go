package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"promisetracker/internal/app"
	jwttoken "promisetracker/internal/jwt_token"
	"promisetracker/internal/platform/config"
	"promisetracker/internal/platform/httpserver"
	"promisetracker/internal/platform/metrics"
	"promisetracker/internal/ratelimit"
	httptransport "promisetracker/internal/transport/http"
	userservice "promisetracker/internal/users/service"
	request "promisetracker/pkg/platform/middleware/request"
)

func serveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			appOpts, err := appOptions(cfg, rt, logger, metrics.New())
			if err != nil {
				return err
			}
			a := app.New(rt.backend, appOpts)
			defer a.Close()

			router := a.Router(httptransport.Config{
				Gatherer:       prometheus.DefaultGatherer,
				RequestTimeout: cfg.Server.RequestTimeout,
				Health:         rt.health,
			})
			logger.InfoContext(ctx, "starting server", "addr", cfg.Server.Addr)
			if err := httpserver.Run(ctx, httpserver.New(cfg.Server.Addr, router), cfg.Server.ShutdownTimeout); err != nil {
				return err
			}
			logger.InfoContext(ctx, "server stopped")
			return nil
		},
	}
}

func appOptions(cfg *config.Config, rt *runtime, logger *slog.Logger, m *metrics.Metrics) (app.Options, error) {
	limiter, err := rateLimiter(cfg.RateLimit, rt.rateStore, logger, m)
	if err != nil {
		return app.Options{}, err
	}
	return app.Options{
		Logger:     logger,
		Metrics:    m,
		Dispatcher: rt.dispatcher,
		Cache:      rt.cache,
		Tokens:     jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience),
		TokenTTL:   cfg.Auth.AccessTokenTTL,
		Settings: userservice.Settings{
			CodeLength:  cfg.Users.VerificationCodeLength,
			CodeExpiry:  cfg.Users.VerificationCodeExpiry(),
			ResendDelay: cfg.Users.EmailSendingDelay(),
		},
		AuditBuffer: cfg.Audit.BufferSize,
		RateLimiter: limiter,
	}, nil
}

func rateLimiter(cfg config.RateLimitConfig, store ratelimit.Store, logger *slog.Logger, m *metrics.Metrics) (*ratelimit.Middleware, error) {
	if store == nil {
		return nil, nil
	}
	proxies, err := request.NewProxyTrust(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return ratelimit.New(store, map[ratelimit.Class]ratelimit.Limit{
		ratelimit.ClassAuth:  {Requests: cfg.AuthRequests, Window: cfg.AuthWindow},
		ratelimit.ClassWrite: {Requests: cfg.WriteRequests, Window: cfg.WriteWindow},
	}, logger,
		ratelimit.WithDisabled(cfg.Disabled),
		ratelimit.WithMetrics(m),
		ratelimit.WithClientIP(proxies.ClientIP),
	), nil
}
