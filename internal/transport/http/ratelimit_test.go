package httptransport_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promisetracker/internal/app"
	jwttoken "promisetracker/internal/jwt_token"
	"promisetracker/internal/platform/metrics"
	"promisetracker/internal/ratelimit"
	"promisetracker/internal/storage/memory"
	httptransport "promisetracker/internal/transport/http"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/testutil"
)

func throttledRouter(t *testing.T, limits map[ratelimit.Class]ratelimit.Limit) (http.Handler, *metrics.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	a := app.New(app.MemoryBackend(memory.New()), app.Options{
		Logger:      logger,
		Metrics:     m,
		Dispatcher:  &outbox{codes: map[string]string{}},
		Tokens:      jwttoken.NewJWTService("throttle-test-key", "promise-tracker", "promise-tracker-api"),
		TokenTTL:    time.Hour,
		RateLimiter: ratelimit.New(ratelimit.NewMemoryStore(), limits, logger, ratelimit.WithMetrics(m)),
	})
	t.Cleanup(a.Close)
	return a.Router(httptransport.Config{}), m
}

func login(t *testing.T, router http.Handler, ip string) int {
	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong-password",
	})
	req.RemoteAddr = ip + ":4321"
	return testutil.DoRequest(router, req).Code
}

func TestRateLimiting(t *testing.T) {
	testutil.Given(t, "a router allowing two auth attempts per minute", func(t *testing.T) {
		router, m := throttledRouter(t, map[ratelimit.Class]ratelimit.Limit{
			ratelimit.ClassAuth: {Requests: 2, Window: time.Minute},
		})

		testutil.When(t, "one caller keeps failing to log in", func(t *testing.T) {
			first := login(t, router, "198.51.100.7")
			second := login(t, router, "198.51.100.7")
			third := login(t, router, "198.51.100.7")

			testutil.Then(t, "the third attempt is throttled", func(t *testing.T) {
				assert.Equal(t, http.StatusUnauthorized, first)
				assert.Equal(t, http.StatusUnauthorized, second)
				assert.Equal(t, http.StatusTooManyRequests, third)
				assert.Equal(t, 1.0, promtestutil.ToFloat64(m.RateLimited.WithLabelValues("auth")))
			})

			testutil.Then(t, "another caller is unaffected", func(t *testing.T) {
				assert.Equal(t, http.StatusUnauthorized, login(t, router, "203.0.113.9"))
			})
		})

		testutil.When(t, "a caller rotates X-Forwarded-For between attempts", func(t *testing.T) {
			codes := make([]int, 0, 3)
			for _, forged := range []string{"10.1.1.1", "10.2.2.2", "10.3.3.3"} {
				req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
					"email":    "nobody@example.com",
					"password": "wrong-password",
				})
				req.RemoteAddr = "198.51.100.99:4321"
				req.Header.Set("X-Forwarded-For", forged)
				codes = append(codes, testutil.DoRequest(router, req).Code)
			}

			testutil.Then(t, "the forged header does not buy extra attempts", func(t *testing.T) {
				assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
			})
		})

		testutil.When(t, "guests browse promises", func(t *testing.T) {
			codes := make([]int, 0, 5)
			for range 5 {
				req := testutil.NewRequest(t, http.MethodGet, "/promises")
				req.RemoteAddr = "198.51.100.7:4321"
				codes = append(codes, testutil.DoRequest(router, req).Code)
			}

			testutil.Then(t, "reads are never throttled", func(t *testing.T) {
				for _, code := range codes {
					assert.Equal(t, http.StatusOK, code)
				}
			})
		})
	})

	testutil.Given(t, "a router allowing one write per minute", func(t *testing.T) {
		router, _ := throttledRouter(t, map[ratelimit.Class]ratelimit.Limit{
			ratelimit.ClassWrite: {Requests: 1, Window: time.Minute},
		})

		testutil.When(t, "a guest sends two writes", func(t *testing.T) {
			send := func() *http.Request {
				req := testutil.NewJSONRequest(t, http.MethodPost, "/promises", map[string]string{})
				req.RemoteAddr = "192.0.2.1:4321"
				return req
			}
			first := testutil.DoRequest(router, send())
			second := testutil.DoRequest(router, send())

			testutil.Then(t, "the second is rejected before reaching the handler", func(t *testing.T) {
				require.Equal(t, http.StatusUnauthorized, first.Code)
				testutil.AssertStatusAndError(t, second, http.StatusTooManyRequests, string(dErrors.CodeTooManyRequests))
				assert.NotEmpty(t, second.Header().Get("Retry-After"))
			})
		})
	})
}
