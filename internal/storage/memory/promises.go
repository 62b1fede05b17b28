package memory

import (
	"context"
	"sort"

	pmodels "promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/sentinel"
	pstrings "promisetracker/pkg/platform/strings"
)

func (s *Store) promiseNameTakenLocked(name string, except id.PromiseID) bool {
	for _, p := range s.promises {
		if p.ID != except && p.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreatePromise(_ context.Context, promise *pmodels.Promise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.promiseNameTakenLocked(promise.Name, promise.ID) {
		return sentinel.ErrConflict
	}
	s.promises[promise.ID] = clonePromise(promise)
	return nil
}

func (s *Store) UpdatePromise(_ context.Context, promise *pmodels.Promise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promises[promise.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.promiseNameTakenLocked(promise.Name, promise.ID) {
		return sentinel.ErrConflict
	}
	s.promises[promise.ID] = clonePromise(promise)
	return nil
}

// DeletePromise removes the promise together with its results.
func (s *Store) DeletePromise(_ context.Context, promiseID id.PromiseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promises[promiseID]; !ok {
		return sentinel.ErrNotFound
	}
	for resultID, r := range s.results {
		if r.PromiseID == promiseID {
			delete(s.results, resultID)
		}
	}
	delete(s.promises, promiseID)
	return nil
}

// FindPromise needs no row lock here: Tx already serializes writers.
func (s *Store) FindPromise(_ context.Context, promiseID id.PromiseID) (*pmodels.Promise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.promises[promiseID]; ok {
		return clonePromise(p), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) approvedFinalStatusLocked(promiseID id.PromiseID) *pmodels.CompletionStatus {
	for _, r := range s.results {
		if r.PromiseID == promiseID && r.IsApprovedFinal() {
			return r.Status
		}
	}
	return nil
}

func (s *Store) ListPromises(_ context.Context, query pmodels.PromiseQuery) ([]*pmodels.Promise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*pmodels.Promise, 0, len(s.promises))
	for _, p := range s.promises {
		if !query.Visibility.Allows(p.Review, p.CreatedBy) {
			continue
		}
		if !pstrings.ContainsFold(p.Name, query.NameContains) {
			continue
		}
		if query.PartyID != nil && p.PartyID != *query.PartyID {
			continue
		}
		if query.ConvocationID != nil && p.ConvocationID != *query.ConvocationID {
			continue
		}
		if query.OnlyPending && p.Review.IsReviewed() {
			continue
		}
		if query.FinalStatus != nil {
			status := s.approvedFinalStatusLocked(p.ID)
			if status == nil || *status != *query.FinalStatus {
				continue
			}
		}
		out = append(out, clonePromise(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}
