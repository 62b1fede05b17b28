// Package selector serves the read side of parties and convocations.
// Classifiers are public reference data, so no visibility scoping applies.
package selector

import (
	"context"
	"errors"
	"time"

	"promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/requestcontext"
)

const (
	partyNotFoundMessage       = "Political party not found."
	convocationNotFoundMessage = "Convocation not found."
)

// Store lists are ordered by creation time, newest first.
type Store interface {
	ListParties(ctx context.Context, filter models.PartyFilter, asOf time.Time) ([]*models.PoliticalParty, error)
	FindParty(ctx context.Context, partyID id.PartyID) (*models.PoliticalParty, error)
	ListConvocations(ctx context.Context, filter models.ConvocationFilter) ([]*models.Convocation, error)
	FindConvocation(ctx context.Context, convocationID id.ConvocationID) (*models.Convocation, error)
}

type Selector struct {
	store Store
}

func New(store Store) *Selector {
	return &Selector{store: store}
}

func (s *Selector) Parties(ctx context.Context, filter models.PartyFilter) ([]*models.PoliticalParty, error) {
	parties, err := s.store.ListParties(ctx, filter, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list political parties")
	}
	return parties, nil
}

func (s *Selector) PartyByID(ctx context.Context, partyID id.PartyID) (*models.PoliticalParty, error) {
	party, err := s.store.FindParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound(partyNotFoundMessage)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load political party")
	}
	return party, nil
}

func (s *Selector) Convocations(ctx context.Context, filter models.ConvocationFilter) ([]*models.Convocation, error) {
	convocations, err := s.store.ListConvocations(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list convocations")
	}
	return convocations, nil
}

func (s *Selector) ConvocationByID(ctx context.Context, convocationID id.ConvocationID) (*models.Convocation, error) {
	convocation, err := s.store.FindConvocation(ctx, convocationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound(convocationNotFoundMessage)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load convocation")
	}
	return convocation, nil
}
