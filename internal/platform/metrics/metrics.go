package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
	PromisesCreated     prometheus.Counter
	ResultsCreated      prometheus.Counter
	ReviewDecisions     *prometheus.CounterVec
	UsersCreated        prometheus.Counter
	Logins              *prometheus.CounterVec
	AnalyticsCache      *prometheus.CounterVec
	VerificationEmails  *prometheus.CounterVec
	RateLimited         *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promise_tracker_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),
		PromisesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "promise_tracker_promises_created_total",
			Help: "Total number of promises created",
		}),
		ResultsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "promise_tracker_promise_results_created_total",
			Help: "Total number of promise results created",
		}),
		ReviewDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promise_tracker_review_decisions_total",
			Help: "Review decisions by entity and resulting status",
		}, []string{"entity", "status"}),
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "promise_tracker_users_created_total",
			Help: "Total number of users created",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promise_tracker_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		AnalyticsCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promise_tracker_analytics_cache_total",
			Help: "Analytics cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		VerificationEmails: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promise_tracker_verification_emails_total",
			Help: "Verification email dispatches by outcome",
		}, []string{"outcome"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promise_tracker_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by endpoint class",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncPromisesCreated() {
	if m != nil {
		m.PromisesCreated.Inc()
	}
}

func (m *Metrics) IncResultsCreated() {
	if m != nil {
		m.ResultsCreated.Inc()
	}
}

func (m *Metrics) IncReviewDecision(entity, status string) {
	if m != nil {
		m.ReviewDecisions.WithLabelValues(entity, status).Inc()
	}
}

func (m *Metrics) IncUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) IncLogin(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncAnalyticsCache(result string) {
	if m != nil {
		m.AnalyticsCache.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncVerificationEmail(outcome string) {
	if m != nil {
		m.VerificationEmails.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncRateLimited(class string) {
	if m != nil {
		m.RateLimited.WithLabelValues(class).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LatencyMiddleware observes request duration labelled by chi route pattern.
func LatencyMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.HTTPRequestDuration.
				WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}
