package httptransport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"promisetracker/internal/app"
	jwttoken "promisetracker/internal/jwt_token"
	"promisetracker/internal/platform/metrics"
	"promisetracker/internal/storage/memory"
	httptransport "promisetracker/internal/transport/http"
	userhandler "promisetracker/internal/users/handler"
	umodels "promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/testutil"
)

type outbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (o *outbox) SendVerificationEmail(_ context.Context, email, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes[email] = code
	return nil
}

func (o *outbox) code(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.codes[email]
}

type RouterSuite struct {
	suite.Suite
	store    *memory.Store
	tokens   *jwttoken.JWTService
	outbox   *outbox
	registry *prometheus.Registry
	dbErr    error
	app      *app.App
	router   http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.store = memory.New()
	s.tokens = jwttoken.NewJWTService("router-test-key", "promise-tracker", "promise-tracker-api")
	s.outbox = &outbox{codes: map[string]string{}}
	s.registry = prometheus.NewRegistry()
	s.dbErr = nil

	s.app = app.New(app.MemoryBackend(s.store), app.Options{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:    metrics.NewWithRegistry(s.registry),
		Dispatcher: s.outbox,
		Tokens:     s.tokens,
		TokenTTL:   time.Hour,
	})
	s.router = s.app.Router(httptransport.Config{
		Gatherer:       s.registry,
		RequestTimeout: 5 * time.Second,
		Health: map[string]httptransport.HealthCheck{
			"database": func(context.Context) error { return s.dbErr },
		},
	})
}

func (s *RouterSuite) TearDownTest() {
	s.app.Close()
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

func (s *RouterSuite) bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (s *RouterSuite) TestHealth() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Require().Equal(http.StatusOK, rr.Code)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	s.dbErr = errors.New("connection refused")
	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.Contains(rr.Body.String(), "connection refused")
}

func (s *RouterSuite) TestMetricsExposeRouteLatency() {
	s.do(testutil.NewRequest(s.T(), http.MethodGet, "/promises"))

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "promise_tracker_http_request_duration_seconds")
	s.Contains(rr.Body.String(), `route="/promises"`)
}

func (s *RouterSuite) TestUnknownRoute() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/nowhere"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *RouterSuite) TestGuestsCanBrowse() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/promises"))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("application/json", rr.Header().Get("Content-Type"))

	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/promises", map[string]string{"name": "x"}))
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *RouterSuite) TestInvalidToken() {
	rr := s.do(s.bearer(testutil.NewRequest(s.T(), http.MethodGet, "/promises"), "garbage"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestBannedUserTokenRejected() {
	banned := &umodels.User{
		ID:        id.NewUserID(),
		Email:     "banned@example.com",
		Username:  "banned",
		IsActive:  false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Require().NoError(s.store.CreateUser(context.Background(), banned))
	token, _, err := s.tokens.GenerateAccessToken(banned.ID, time.Hour)
	s.Require().NoError(err)

	rr := s.do(s.bearer(testutil.NewRequest(s.T(), http.MethodGet, "/promises"), token))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestRegisterLoginVerify() {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]any{
		"name":             "Jane",
		"surname":          "Doe",
		"email":            "jane@example.com",
		"username":         "jane",
		"password":         "Correct-Horse-Battery-9",
		"password_confirm": "Correct-Horse-Battery-9",
	}))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	created := testutil.UnmarshalResponse[userhandler.UserResponse](s.T(), rr)
	s.False(created.IsVerified)

	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "Correct-Horse-Battery-9",
	}))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	token := testutil.UnmarshalResponse[userhandler.LoginResponse](s.T(), rr).AccessToken

	rr = s.do(s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/promises", map[string]string{"name": "x"}), token))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "permission_denied")

	code := s.outbox.code("jane@example.com")
	s.Require().NotEmpty(code)
	rr = s.do(s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/verify", map[string]string{"code": code}), token))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(s.bearer(testutil.NewRequest(s.T(), http.MethodGet, "/users/"+created.ID.String()), token))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.True(testutil.UnmarshalResponse[userhandler.UserResponse](s.T(), rr).IsVerified)
}
