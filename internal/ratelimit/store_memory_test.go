package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	now   time.Time
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.store.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestAllow() {
	s.Run("counts down to zero", func() {
		for want := testLimit - 1; want >= 0; want-- {
			result, err := s.store.Allow(s.ctx, "k:count", testLimit, testWindow)
			s.Require().NoError(err)
			s.True(result.Allowed)
			s.Equal(want, result.Remaining)
			s.Equal(testLimit, result.Limit)
		}
	})

	s.Run("rejects over the limit", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "k:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "k:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(testWindow, result.RetryAfter)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "k:a", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "k:b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *MemoryStoreSuite) TestWindowSlides() {
	start := s.now
	_, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)

	s.now = start.Add(30 * time.Second)
	for range testLimit - 1 {
		_, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
		s.Require().NoError(err)
	}
	result, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(start.Add(testWindow), result.ResetAt)
	s.Equal(30*time.Second, result.RetryAfter)

	// The first hit leaves the window exactly one window later.
	s.now = start.Add(testWindow)
	result, err = s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(0, result.Remaining)
}

func (s *MemoryStoreSuite) TestReset() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "k"))

	result, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *MemoryStoreSuite) TestConcurrentHitsNeverExceedLimit() {
	const limit = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "k:race", limit, testWindow)
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(limit, allowed)
}
