package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/circuit"
)

func records() []models.AnalyticsRecord {
	return []models.AnalyticsRecord{{Name: "Unity", ID: id.NewPartyID(), CompletedCount: 2, UncompletedCount: 1}}
}

func TestMemoryExpiresAndInvalidates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	want := records()
	require.True(t, m.Set(ctx, "all", m.Generation(), want))

	got, ok := m.Get(ctx, "all")
	require.True(t, ok)
	assert.Equal(t, want, got)

	got[0].CompletedCount = 99
	again, _ := m.Get(ctx, "all")
	assert.Equal(t, 2, again[0].CompletedCount, "callers get a copy")

	now = now.Add(time.Minute)
	_, ok = m.Get(ctx, "all")
	assert.False(t, ok, "entry expires after ttl")

	require.True(t, m.Set(ctx, "all", m.Generation(), want))
	m.Invalidate(ctx)
	_, ok = m.Get(ctx, "all")
	assert.False(t, ok)
}

func TestMemoryDropsTallyComputedBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	before := m.Generation()
	m.Invalidate(ctx)
	assert.NotEqual(t, before, m.Generation())

	assert.False(t, m.Set(ctx, "all", before, records()))
	_, ok := m.Get(ctx, "all")
	assert.False(t, ok)

	assert.True(t, m.Set(ctx, "all", m.Generation(), records()))
	_, ok = m.Get(ctx, "all")
	assert.True(t, ok)
}

func TestResilientFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	breaker := circuit.New("analytics-cache-test", circuit.WithFailureThreshold(1))
	c := NewResilient(NewRedis(client, time.Minute), NewMemory(time.Minute), breaker,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	want := records()
	c.Set(ctx, "all", c.Generation(), want)
	assert.True(t, breaker.IsOpen())

	got, ok := c.Get(ctx, "all")
	require.True(t, ok)
	assert.Equal(t, want, got)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "all")
	assert.False(t, ok)
}
