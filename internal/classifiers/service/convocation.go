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
	ConvocationNotFoundMessage            = "Convocation not found."
	ConvocationPartiesInvalidMessage      = "Political parties list is not valid!"
	ConvocationStartInFutureMessage       = "Start date is in the future."
	ConvocationEndInFutureMessage         = "End date is in the future."
	ConvocationEndBeforeStartMessage      = "End date is smaller than start date."
	ConvocationCannotDeleteHasPromisesMsg = "Cannot delete convocation because it has associated promises!"
)

func convocationUniqueMessage(name string) string {
	return fmt.Sprintf("Convocation %s already exists!", name)
}

func ensureConvocationDatesValid(ctx context.Context, in *models.ConvocationInput) error {
	now := requestcontext.Now(ctx)
	if id.IsFutureDate(in.StartDate, now) {
		return dErrors.Application(ConvocationStartInFutureMessage)
	}
	if in.EndDate != nil {
		if id.IsFutureDate(*in.EndDate, now) {
			return dErrors.Application(ConvocationEndInFutureMessage)
		}
		if in.EndDate.Before(in.StartDate) {
			return dErrors.Application(ConvocationEndBeforeStartMessage)
		}
	}
	return nil
}

// fetchParties resolves the elected party set. Duplicates or unknown ids
// invalidate the whole list.
func fetchParties(ctx context.Context, store Store, partyIDs []id.PartyID) ([]*models.PoliticalParty, error) {
	if len(partyIDs) == 0 {
		return nil, nil
	}
	seen := make(map[id.PartyID]struct{}, len(partyIDs))
	for _, pid := range partyIDs {
		if pid.IsNil() {
			return nil, dErrors.Application(ConvocationPartiesInvalidMessage)
		}
		if _, dup := seen[pid]; dup {
			return nil, dErrors.Application(ConvocationPartiesInvalidMessage)
		}
		seen[pid] = struct{}{}
	}
	parties, err := store.FindPartiesByIDs(ctx, partyIDs)
	if err != nil {
		return nil, err
	}
	if len(parties) != len(partyIDs) {
		return nil, dErrors.Application(ConvocationPartiesInvalidMessage)
	}
	return parties, nil
}

// ensurePartiesFitTerm rejects parties that did not exist during the term.
func ensurePartiesFitTerm(parties []*models.PoliticalParty, in *models.ConvocationInput) error {
	for _, party := range parties {
		if party.LiquidatedDate != nil && party.LiquidatedDate.Before(in.StartDate) {
			return dErrors.Applicationf("Party %s liquidated date is smaller than convocation start date!", party.Name)
		}
		if in.EndDate != nil && party.EstablishedDate.After(*in.EndDate) {
			return dErrors.Applicationf("Party %s established date is greater than convocation end date!", party.Name)
		}
	}
	return nil
}

func (s *Service) CreateConvocation(ctx context.Context, actor access.Actor, in models.ConvocationInput) (*models.Convocation, error) {
	ctx, span := s.tracer.Start(ctx, "classifiers.CreateConvocation")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ensureConvocationDatesValid(ctx, &in); err != nil {
		return nil, err
	}

	convocation := &models.Convocation{
		ID:        id.NewConvocationID(),
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		PartyIDs:  in.PartyIDs,
	}
	convocation.Stamp(actor.Ref(), requestcontext.Now(ctx))

	err := s.tx.RunInTx(ctx, func(store Store) error {
		parties, err := fetchParties(ctx, store, in.PartyIDs)
		if err != nil {
			return err
		}
		if err := ensurePartiesFitTerm(parties, &in); err != nil {
			return err
		}
		if err := store.CreateConvocation(ctx, convocation); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Application(convocationUniqueMessage(in.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to create convocation")
	}

	s.logger.InfoContext(ctx, "convocation created",
		"convocation_id", convocation.ID.String(),
		"name", convocation.Name,
		"parties", len(convocation.PartyIDs),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventConvocationCreated, "convocation", convocation.ID.String(), actor.Ref())
	return convocation, nil
}

// EditConvocation replaces the convocation fields and its elected party set.
func (s *Service) EditConvocation(ctx context.Context, actor access.Actor, convocationID id.ConvocationID, in models.ConvocationInput) (*models.Convocation, error) {
	ctx, span := s.tracer.Start(ctx, "classifiers.EditConvocation")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var convocation *models.Convocation
	err := s.tx.RunInTx(ctx, func(store Store) error {
		var err error
		convocation, err = store.FindConvocation(ctx, convocationID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.NotFound(ConvocationNotFoundMessage)
			}
			return err
		}
		if err := ensureConvocationDatesValid(ctx, &in); err != nil {
			return err
		}
		parties, err := fetchParties(ctx, store, in.PartyIDs)
		if err != nil {
			return err
		}
		if err := ensurePartiesFitTerm(parties, &in); err != nil {
			return err
		}
		convocation.Name = in.Name
		convocation.StartDate = in.StartDate
		convocation.EndDate = in.EndDate
		convocation.PartyIDs = in.PartyIDs
		convocation.Stamp(actor.Ref(), requestcontext.Now(ctx))
		if err := store.UpdateConvocation(ctx, convocation); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Application(convocationUniqueMessage(in.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to edit convocation")
	}

	s.logger.InfoContext(ctx, "convocation edited",
		"convocation_id", convocation.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventConvocationEdited, "convocation", convocation.ID.String(), actor.Ref())
	return convocation, nil
}

func (s *Service) DeleteConvocation(ctx context.Context, actor access.Actor, convocationID id.ConvocationID) error {
	ctx, span := s.tracer.Start(ctx, "classifiers.DeleteConvocation")
	defer span.End()

	err := s.tx.RunInTx(ctx, func(store Store) error {
		if _, err := store.FindConvocation(ctx, convocationID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.NotFound(ConvocationNotFoundMessage)
			}
			return err
		}
		hasPromises, err := store.ConvocationHasPromises(ctx, convocationID)
		if err != nil {
			return err
		}
		if hasPromises {
			return dErrors.Application(ConvocationCannotDeleteHasPromisesMsg)
		}
		return store.DeleteConvocation(ctx, convocationID)
	})
	if err != nil {
		return internal(err, "failed to delete convocation")
	}

	s.logger.InfoContext(ctx, "convocation deleted",
		"convocation_id", convocationID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventConvocationDeleted, "convocation", convocationID.String(), actor.Ref())
	return nil
}
