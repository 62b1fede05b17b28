package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 6, cfg.Users.VerificationCodeLength)
	assert.Equal(t, 2*time.Minute, cfg.Users.EmailSendingDelay())
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, 10, cfg.RateLimit.AuthRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.WriteWindow)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
redis:
  url: "redis://localhost:6379/0"
  analyticsTTL: 1m
users:
  verificationCodeExpiryMins: 30
`), 0o600))

	t.Setenv("PROMISE_TRACKER_SERVER_ADDR", ":7070")
	t.Setenv("PROMISE_TRACKER_AUTH_JWT_SIGNING_KEY", "from-env")
	t.Setenv("PROMISE_TRACKER_RATE_LIMIT_AUTH_REQUESTS", "3")
	t.Setenv("PROMISE_TRACKER_RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr, "env overrides yaml")
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, time.Minute, cfg.Redis.AnalyticsTTL)
	assert.Equal(t, 30*time.Minute, cfg.Users.VerificationCodeExpiry())
	assert.Equal(t, "from-env", cfg.Auth.JWTSigningKey)
	assert.Equal(t, 3, cfg.RateLimit.AuthRequests)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.RateLimit.TrustedProxies)
}

func TestLoad_RejectsNegativeRateLimit(t *testing.T) {
	t.Setenv("PROMISE_TRACKER_RATE_LIMIT_WRITE_REQUESTS", "-1")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
