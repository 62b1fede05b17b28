// Package cache stores computed analytics between review decisions.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"promisetracker/internal/promises/models"
)

type entry struct {
	records   []models.AnalyticsRecord
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Every Invalidate starts a new
// generation; a Set carrying an older generation is dropped.
type Memory struct {
	mu         sync.RWMutex
	ttl        time.Duration
	entries    map[string]entry
	generation uint64
	now        func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]models.AnalyticsRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false
	}
	return slices.Clone(e.records), true
}

// Generation identifies the current invalidation epoch. Capture it before
// computing a tally and hand it back to Set.
func (m *Memory) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Set stores records unless an Invalidate ran since generation was read.
func (m *Memory) Set(_ context.Context, key string, generation uint64, records []models.AnalyticsRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		return false
	}
	m.entries[key] = entry{records: slices.Clone(records), expiresAt: m.now().Add(m.ttl)}
	return true
}

func (m *Memory) Invalidate(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	clear(m.entries)
}
