package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	cmodels "promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/sentinel"
	pstrings "promisetracker/pkg/platform/strings"
)

func (s *Store) CreateParty(_ context.Context, party *cmodels.PoliticalParty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.partyNameTakenLocked(party.Name, party.ID) {
		return sentinel.ErrConflict
	}
	s.parties[party.ID] = cloneParty(party)
	return nil
}

func (s *Store) UpdateParty(_ context.Context, party *cmodels.PoliticalParty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[party.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.partyNameTakenLocked(party.Name, party.ID) {
		return sentinel.ErrConflict
	}
	s.parties[party.ID] = cloneParty(party)
	return nil
}

func (s *Store) partyNameTakenLocked(name string, except id.PartyID) bool {
	for _, p := range s.parties {
		if p.ID != except && p.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) DeleteParty(_ context.Context, partyID id.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[partyID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.parties, partyID)
	return nil
}

func (s *Store) FindParty(_ context.Context, partyID id.PartyID) (*cmodels.PoliticalParty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.parties[partyID]; ok {
		return cloneParty(p), nil
	}
	return nil, sentinel.ErrNotFound
}

// FindPartiesByIDs returns the parties that exist, skipping unknown ids.
func (s *Store) FindPartiesByIDs(_ context.Context, partyIDs []id.PartyID) ([]*cmodels.PoliticalParty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*cmodels.PoliticalParty, 0, len(partyIDs))
	for _, partyID := range partyIDs {
		if p, ok := s.parties[partyID]; ok {
			out = append(out, cloneParty(p))
		}
	}
	return out, nil
}

func (s *Store) PartyHasConvocations(_ context.Context, partyID id.PartyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.convocations {
		if c.HasParty(partyID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) PartyHasPromises(_ context.Context, partyID id.PartyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.promises {
		if p.PartyID == partyID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListParties(_ context.Context, filter cmodels.PartyFilter, asOf time.Time) ([]*cmodels.PoliticalParty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*cmodels.PoliticalParty, 0, len(s.parties))
	for _, p := range s.parties {
		if !pstrings.ContainsFold(p.Name, filter.NameContains) {
			continue
		}
		if filter.IsActive != nil && p.IsActive(asOf) != *filter.IsActive {
			continue
		}
		out = append(out, cloneParty(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateConvocation(_ context.Context, convocation *cmodels.Convocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.convocationNameTakenLocked(convocation.Name, convocation.ID) {
		return sentinel.ErrConflict
	}
	s.convocations[convocation.ID] = cloneConvocation(convocation)
	return nil
}

func (s *Store) UpdateConvocation(_ context.Context, convocation *cmodels.Convocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convocations[convocation.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.convocationNameTakenLocked(convocation.Name, convocation.ID) {
		return sentinel.ErrConflict
	}
	s.convocations[convocation.ID] = cloneConvocation(convocation)
	return nil
}

func (s *Store) convocationNameTakenLocked(name string, except id.ConvocationID) bool {
	for _, c := range s.convocations {
		if c.ID != except && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) DeleteConvocation(_ context.Context, convocationID id.ConvocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convocations[convocationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.convocations, convocationID)
	return nil
}

func (s *Store) FindConvocation(_ context.Context, convocationID id.ConvocationID) (*cmodels.Convocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.convocations[convocationID]; ok {
		return cloneConvocation(c), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ConvocationHasPromises(_ context.Context, convocationID id.ConvocationID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.promises {
		if p.ConvocationID == convocationID {
			return true, nil
		}
	}
	return false, nil
}

// ListConvocations keeps convocations containing any of filter.PartyIDs.
func (s *Store) ListConvocations(_ context.Context, filter cmodels.ConvocationFilter) ([]*cmodels.Convocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*cmodels.Convocation, 0, len(s.convocations))
	for _, c := range s.convocations {
		if !pstrings.ContainsFold(c.Name, filter.NameContains) {
			continue
		}
		if len(filter.PartyIDs) > 0 && !slices.ContainsFunc(filter.PartyIDs, c.HasParty) {
			continue
		}
		out = append(out, cloneConvocation(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
