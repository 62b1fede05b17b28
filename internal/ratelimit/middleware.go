package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/httputil"
	request "promisetracker/pkg/platform/middleware/request"
	"promisetracker/pkg/requestcontext"
)

const TooManyRequestsMessage = "Too many requests. Please try again later."

type Metrics interface {
	IncRateLimited(class string)
}

type Middleware struct {
	store    Store
	limits   map[Class]Limit
	logger   *slog.Logger
	metrics  Metrics
	clientIP func(*http.Request) string
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// WithClientIP replaces the peer-address key, typically with
// (*request.ProxyTrust).ClientIP when running behind a proxy.
func WithClientIP(resolve func(*http.Request) string) Option {
	return func(m *Middleware) {
		m.clientIP = resolve
	}
}

func New(store Store, limits map[Class]Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, limits: limits, logger: logger, clientIP: request.ClientIP}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit counts every request against class. A nil Middleware, a disabled
// one, or a class without a configured limit passes requests through.
func (m *Middleware) Limit(class Class) func(http.Handler) http.Handler {
	return m.limit(class, func(*http.Request) bool { return true })
}

// LimitWrites counts only requests with a mutating method.
func (m *Middleware) LimitWrites(class Class) func(http.Handler) http.Handler {
	return m.limit(class, func(r *http.Request) bool {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return false
		}
		return true
	})
}

func (m *Middleware) limit(class Class, applies func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil || m.disabled {
			return next
		}
		limit, ok := m.limits[class]
		if !ok || limit.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !applies(r) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			ip := m.clientIP(r)

			result, err := m.store.Allow(ctx, bucketKey(class, ip), limit.Requests, limit.Window)
			if err != nil {
				// Fail open.
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"class", string(class),
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			writeHeaders(w, result)
			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.IncRateLimited(string(class))
				}
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class),
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
				httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, TooManyRequestsMessage))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func retryAfterSeconds(result *Result) int {
	return max(int(math.Ceil(result.RetryAfter.Seconds())), 1)
}
