// Package config loads runtime configuration from an optional YAML file and
// environment variables prefixed with PROMISE_TRACKER_.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "PROMISE_TRACKER"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     UsersConfig     `yaml:"users"`
	Audit     AuditConfig     `yaml:"audit"`
	RateLimit RateLimitConfig `yaml:"rateLimit" split_words:"true"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"            split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"  split_words:"true"`
}

// DatabaseConfig selects PostgreSQL when DSN is set; otherwise the in-memory
// store is used.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"    split_words:"true"`
	MaxIdleConns    int           `yaml:"maxIdleConns"    split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" split_words:"true"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"poolSize"     split_words:"true"`
	MinIdleConns int           `yaml:"minIdleConns" split_words:"true"`
	DialTimeout  time.Duration `yaml:"dialTimeout"  split_words:"true"`
	ReadTimeout  time.Duration `yaml:"readTimeout"  split_words:"true"`
	WriteTimeout time.Duration `yaml:"writeTimeout" split_words:"true"`
	AnalyticsTTL time.Duration `yaml:"analyticsTTL" split_words:"true"`
}

// KafkaConfig enables the Kafka verification-email dispatcher when Brokers is set.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	VerificationTopic string   `yaml:"verificationTopic" split_words:"true"`
	ProduceRetries    int      `yaml:"produceRetries"    split_words:"true"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replicationFactor" split_words:"true"`
}

type AuthConfig struct {
	JWTSigningKey  string        `yaml:"jwtSigningKey"  envconfig:"JWT_SIGNING_KEY"`
	JWTIssuer      string        `yaml:"jwtIssuer"      envconfig:"JWT_ISSUER"`
	JWTAudience    string        `yaml:"jwtAudience"    envconfig:"JWT_AUDIENCE"`
	AccessTokenTTL time.Duration `yaml:"accessTokenTTL" split_words:"true"`
}

type UsersConfig struct {
	VerificationCodeLength     int `yaml:"verificationCodeLength"     split_words:"true"`
	VerificationCodeExpiryMins int `yaml:"verificationCodeExpiryMins" split_words:"true"`
	EmailSendingDelayMins      int `yaml:"emailSendingDelayMins"      split_words:"true"`
}

type AuditConfig struct {
	BufferSize int `yaml:"bufferSize" split_words:"true"`
}

// RateLimitConfig sets per-IP budgets. A zero request count disables that
// class.
type RateLimitConfig struct {
	Disabled      bool          `yaml:"disabled"`
	AuthRequests  int           `yaml:"authRequests"  split_words:"true"`
	AuthWindow    time.Duration `yaml:"authWindow"    split_words:"true"`
	WriteRequests int           `yaml:"writeRequests" split_words:"true"`
	WriteWindow   time.Duration `yaml:"writeWindow"   split_words:"true"`
	// TrustedProxies lists proxy CIDRs or addresses whose X-Forwarded-For is
	// believed. Empty means requests are keyed by the peer address.
	TrustedProxies []string `yaml:"trustedProxies" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			AnalyticsTTL: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			VerificationTopic: "promise-tracker.verification-emails",
			ProduceRetries:    3,
			Partitions:        1,
			ReplicationFactor: 1,
		},
		Auth: AuthConfig{
			JWTSigningKey:  "dev-secret-key-change-in-production",
			JWTIssuer:      "promise-tracker",
			JWTAudience:    "promise-tracker-api",
			AccessTokenTTL: 12 * time.Hour,
		},
		Users: UsersConfig{
			VerificationCodeLength:     6,
			VerificationCodeExpiryMins: 10,
			EmailSendingDelayMins:      2,
		},
		Audit: AuditConfig{BufferSize: 256},
		RateLimit: RateLimitConfig{
			AuthRequests:  10,
			AuthWindow:    time.Minute,
			WriteRequests: 60,
			WriteWindow:   time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load overlays the YAML file at path (if non-empty) and then the environment
// onto Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("auth.jwtSigningKey is required")
	}
	if c.Users.VerificationCodeLength < 4 {
		return fmt.Errorf("users.verificationCodeLength must be at least 4")
	}
	if c.Users.VerificationCodeExpiryMins <= 0 || c.Users.EmailSendingDelayMins < 0 {
		return fmt.Errorf("users verification timings must be positive")
	}
	if c.RateLimit.AuthRequests < 0 || c.RateLimit.WriteRequests < 0 {
		return fmt.Errorf("rateLimit request counts must not be negative")
	}
	return nil
}

func (u UsersConfig) VerificationCodeExpiry() time.Duration {
	return time.Duration(u.VerificationCodeExpiryMins) * time.Minute
}

func (u UsersConfig) EmailSendingDelay() time.Duration {
	return time.Duration(u.EmailSendingDelayMins) * time.Minute
}
