package service

import (
	"context"
	"errors"
	"fmt"

	"promisetracker/internal/access"
	"promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/requestcontext"
)

const (
	PartyNotFoundMessage                = "Political party not found."
	PartyEstablishedInFutureMessage     = "Established date is in the future."
	PartyLiquidatedInFutureMessage      = "Liquidated date is in the future."
	PartyLiquidatedBeforeEstablished    = "Liquidated date is smaller than established date."
	PartyCannotDeleteElectedMessage     = "Cannot delete political party because it has been elected in convocations!"
	PartyCannotDeleteHasPromisesMessage = "Cannot delete political party because it has associated promises!"
)

func partyUniqueMessage(name string) string {
	return fmt.Sprintf("A political party %s already exists.", name)
}

func ensurePartyDatesValid(ctx context.Context, in *models.PartyInput) error {
	now := requestcontext.Now(ctx)
	if id.IsFutureDate(in.EstablishedDate, now) {
		return dErrors.Application(PartyEstablishedInFutureMessage)
	}
	if in.LiquidatedDate != nil {
		if id.IsFutureDate(*in.LiquidatedDate, now) {
			return dErrors.Application(PartyLiquidatedInFutureMessage)
		}
		if in.LiquidatedDate.Before(in.EstablishedDate) {
			return dErrors.Application(PartyLiquidatedBeforeEstablished)
		}
	}
	return nil
}

func (s *Service) CreateParty(ctx context.Context, actor access.Actor, in models.PartyInput) (*models.PoliticalParty, error) {
	ctx, span := s.tracer.Start(ctx, "classifiers.CreateParty")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ensurePartyDatesValid(ctx, &in); err != nil {
		return nil, err
	}

	party := &models.PoliticalParty{
		ID:              id.NewPartyID(),
		Name:            in.Name,
		EstablishedDate: in.EstablishedDate,
		LiquidatedDate:  in.LiquidatedDate,
	}
	party.Stamp(actor.Ref(), requestcontext.Now(ctx))

	err := s.tx.RunInTx(ctx, func(store Store) error {
		return store.CreateParty(ctx, party)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Application(partyUniqueMessage(in.Name))
		}
		return nil, internal(err, "failed to create political party")
	}

	s.logger.InfoContext(ctx, "political party created",
		"party_id", party.ID.String(),
		"name", party.Name,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventPartyCreated, "political_party", party.ID.String(), actor.Ref())
	return party, nil
}

func (s *Service) EditParty(ctx context.Context, actor access.Actor, partyID id.PartyID, in models.PartyInput) (*models.PoliticalParty, error) {
	ctx, span := s.tracer.Start(ctx, "classifiers.EditParty")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var party *models.PoliticalParty
	err := s.tx.RunInTx(ctx, func(store Store) error {
		var err error
		party, err = store.FindParty(ctx, partyID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.NotFound(PartyNotFoundMessage)
			}
			return err
		}
		if err := ensurePartyDatesValid(ctx, &in); err != nil {
			return err
		}
		party.Name = in.Name
		party.EstablishedDate = in.EstablishedDate
		party.LiquidatedDate = in.LiquidatedDate
		party.Stamp(actor.Ref(), requestcontext.Now(ctx))
		if err := store.UpdateParty(ctx, party); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Application(partyUniqueMessage(in.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to edit political party")
	}

	s.logger.InfoContext(ctx, "political party edited",
		"party_id", party.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventPartyEdited, "political_party", party.ID.String(), actor.Ref())
	s.invalidateAnalytics(ctx)
	return party, nil
}

func (s *Service) DeleteParty(ctx context.Context, actor access.Actor, partyID id.PartyID) error {
	ctx, span := s.tracer.Start(ctx, "classifiers.DeleteParty")
	defer span.End()

	err := s.tx.RunInTx(ctx, func(store Store) error {
		if _, err := store.FindParty(ctx, partyID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.NotFound(PartyNotFoundMessage)
			}
			return err
		}
		elected, err := store.PartyHasConvocations(ctx, partyID)
		if err != nil {
			return err
		}
		if elected {
			return dErrors.Application(PartyCannotDeleteElectedMessage)
		}
		hasPromises, err := store.PartyHasPromises(ctx, partyID)
		if err != nil {
			return err
		}
		if hasPromises {
			return dErrors.Application(PartyCannotDeleteHasPromisesMessage)
		}
		return store.DeleteParty(ctx, partyID)
	})
	if err != nil {
		return internal(err, "failed to delete political party")
	}

	s.logger.InfoContext(ctx, "political party deleted",
		"party_id", partyID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventPartyDeleted, "political_party", partyID.String(), actor.Ref())
	return nil
}

// internal passes domain errors through and wraps everything else.
func internal(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
