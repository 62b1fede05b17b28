package memory

import (
	"context"
	"sort"

	pmodels "promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/sentinel"
)

// checkResultLocked enforces the unique name per promise and the single
// approved final result per promise.
func (s *Store) checkResultLocked(result *pmodels.Result) error {
	for _, r := range s.results {
		if r.ID == result.ID || r.PromiseID != result.PromiseID {
			continue
		}
		if r.Name == result.Name {
			return sentinel.ErrConflict
		}
		if result.IsApprovedFinal() && r.IsApprovedFinal() {
			return sentinel.ErrConflict
		}
	}
	return nil
}

func (s *Store) CreateResult(_ context.Context, result *pmodels.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promises[result.PromiseID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkResultLocked(result); err != nil {
		return err
	}
	s.results[result.ID] = cloneResult(result)
	return nil
}

func (s *Store) UpdateResult(_ context.Context, result *pmodels.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[result.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.promises[result.PromiseID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkResultLocked(result); err != nil {
		return err
	}
	s.results[result.ID] = cloneResult(result)
	return nil
}

func (s *Store) DeleteResult(_ context.Context, resultID id.ResultID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[resultID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.results, resultID)
	return nil
}

func (s *Store) FindResult(_ context.Context, resultID id.ResultID) (*pmodels.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.results[resultID]; ok {
		return cloneResult(r), nil
	}
	return nil, sentinel.ErrNotFound
}

// ListResultsByPromise returns every result of the promise, date ascending.
func (s *Store) ListResultsByPromise(ctx context.Context, promiseID id.PromiseID) (pmodels.Results, error) {
	return s.ListResults(ctx, pmodels.ResultQuery{
		Visibility: pmodels.Visibility{Scope: pmodels.ScopeAll},
		PromiseID:  &promiseID,
	})
}

func (s *Store) ListResults(_ context.Context, query pmodels.ResultQuery) ([]*pmodels.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*pmodels.Result, 0)
	for _, r := range s.results {
		if query.PromiseID != nil && r.PromiseID != *query.PromiseID {
			continue
		}
		if !query.Visibility.Allows(r.Review, r.CreatedBy) {
			continue
		}
		if query.OnlyPending && r.Review.IsReviewed() {
			continue
		}
		out = append(out, cloneResult(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if query.OrderDesc {
			a, b = b, a
		}
		if a.Date.Equal(b.Date) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Date.Before(b.Date)
	})
	return out, nil
}
