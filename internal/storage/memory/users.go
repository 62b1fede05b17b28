package memory

import (
	"context"
	"sort"

	umodels "promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/sentinel"
)

func (s *Store) emailTakenLocked(email string, except id.UserID) bool {
	for _, u := range s.users {
		if u.ID != except && u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(_ context.Context, user *umodels.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return sentinel.ErrConflict
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return sentinel.ErrConflict
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) UpdateUser(_ context.Context, user *umodels.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return sentinel.ErrConflict
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) FindUser(_ context.Context, userID id.UserID) (*umodels.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return cloneUser(u), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*umodels.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, filter umodels.UserFilter) ([]*umodels.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*umodels.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Matches(u) {
			out = append(out, cloneUser(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
