//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"promisetracker/internal/promises/cache"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/circuit"
	"promisetracker/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Redis
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = cache.NewRedis(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestStoreLookupClear() {
	ctx := context.Background()
	want := []models.AnalyticsRecord{{Name: "Unity", ID: id.NewPartyID(), CompletedCount: 3}}

	_, ok, err := s.cache.Lookup(ctx, "all")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.Store(ctx, "all", want))
	got, ok, err := s.cache.Lookup(ctx, "all")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(want, got)

	ttl, err := s.redis.Client.TTL(ctx, "promise-tracker:analytics").Result()
	s.Require().NoError(err)
	s.Positive(ttl)

	s.Require().NoError(s.cache.Clear(ctx))
	_, ok, err = s.cache.Lookup(ctx, "all")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestResilientInvalidationReachesRedis() {
	ctx := context.Background()
	c := cache.NewResilient(s.cache, cache.NewMemory(time.Minute), circuit.New("analytics-cache"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	want := []models.AnalyticsRecord{{Name: "Green", ID: id.NewPartyID(), UncompletedCount: 1}}
	s.True(c.Set(ctx, "party:green", c.Generation(), want))

	got, ok := c.Get(ctx, "party:green")
	s.Require().True(ok)
	s.Equal(want, got)

	c.Invalidate(ctx)
	_, ok, err := s.cache.Lookup(ctx, "party:green")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestResilientDropsTallyFromRetiredGeneration() {
	ctx := context.Background()
	c := cache.NewResilient(s.cache, cache.NewMemory(time.Minute), circuit.New("analytics-cache"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	before := c.Generation()
	c.Invalidate(ctx)
	s.False(c.Set(ctx, "all", before, []models.AnalyticsRecord{{Name: "Unity", ID: id.NewPartyID()}}))

	_, ok, err := s.cache.Lookup(ctx, "all")
	s.Require().NoError(err)
	s.False(ok)
}
