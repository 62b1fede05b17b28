package service

import (
	"context"
	"errors"
	"fmt"

	"promisetracker/internal/access"
	cmodels "promisetracker/internal/classifiers/models"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/requestcontext"
)

const (
	PromiseNotFoundMessage             = "Promise not found."
	PromisePartyNotFoundMessage        = "Political party does not exist!"
	PromiseConvocationNotFoundMessage  = "Convocation does not exist!"
	PromiseCannotEditReviewedMessage   = "Cannot modify reviewed promise!"
	PromiseCannotDeleteReviewedMessage = "Cannot delete reviewed promise!"
	PromiseCannotEvaluateReviewedMsg   = "Cannot evaluate already reviewed promise!"
	PromiseCannotDeleteHasResultsMsg   = "Cannot delete promise because it has reviewed results!"
	PromiseDateInFutureMessage         = "Promise date is in the future."
)

func promiseUniqueMessage(name string) string {
	return fmt.Sprintf("Promise %s already exists!", name)
}

type PromiseService struct {
	deps
}

func NewPromiseService(runner Runner, opts ...Option) *PromiseService {
	return &PromiseService{deps: newDeps(runner, opts)}
}

// ensureValidReferences runs the checks shared by create and edit, in order:
// date, party, convocation, election, party lifetime.
func ensureValidReferences(ctx context.Context, store Store, in *models.PromiseInput) error {
	if id.IsFutureDate(in.Date, requestcontext.Now(ctx)) {
		return dErrors.Application(PromiseDateInFutureMessage)
	}
	party, err := store.FindParty(ctx, in.PartyID)
	if err != nil {
		return notFound(err, PromisePartyNotFoundMessage)
	}
	convocation, err := store.FindConvocation(ctx, in.ConvocationID)
	if err != nil {
		return notFound(err, PromiseConvocationNotFoundMessage)
	}
	if !convocation.HasParty(party.ID) {
		return dErrors.Applicationf("Party %s is not elected in convocation %s.", party.Name, convocation.Name)
	}
	return ensurePartyExisted(party, in)
}

// ensurePartyExisted requires established <= date < liquidated.
func ensurePartyExisted(party *cmodels.PoliticalParty, in *models.PromiseInput) error {
	if party.EstablishedDate.After(in.Date) {
		return dErrors.Applicationf("Party %s established date is later than the promise date.", party.Name)
	}
	if party.LiquidatedDate != nil && !party.LiquidatedDate.After(in.Date) {
		return dErrors.Applicationf("Party %s liquidated date is earlier than the promise date.", party.Name)
	}
	return nil
}

func (s *PromiseService) Create(ctx context.Context, actor access.Actor, in models.PromiseInput) (*models.Promise, error) {
	ctx, span := s.tracer.Start(ctx, "promises.Create")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	promise := &models.Promise{
		ID:            id.NewPromiseID(),
		Name:          in.Name,
		Description:   in.Description,
		Sources:       in.Sources,
		Date:          in.Date,
		PartyID:       in.PartyID,
		ConvocationID: in.ConvocationID,
		Review:        models.Review{Status: models.ReviewPending},
	}
	promise.Stamp(actor.Ref(), requestcontext.Now(ctx))

	err := s.tx.RunInTx(ctx, func(store Store) error {
		if err := ensureValidReferences(ctx, store, &in); err != nil {
			return err
		}
		if err := store.CreatePromise(ctx, promise); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Application(promiseUniqueMessage(in.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to create promise")
	}

	if s.metrics != nil {
		s.metrics.IncPromisesCreated()
	}
	s.logger.InfoContext(ctx, "promise created",
		"promise_id", promise.ID.String(),
		"name", promise.Name,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventPromiseCreated),
		ActorID:     actorRef(actor.Ref()),
		SubjectType: "promise",
		Subject:     promise.ID.String(),
	})
	return promise, nil
}

func (s *PromiseService) Edit(ctx context.Context, actor access.Actor, promiseID id.PromiseID, in models.PromiseInput) (*models.Promise, error) {
	ctx, span := s.tracer.Start(ctx, "promises.Edit")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var promise *models.Promise
	err := s.tx.RunInTx(ctx, func(store Store) error {
		var err error
		promise, err = store.FindPromise(ctx, promiseID)
		if err != nil {
			return notFound(err, PromiseNotFoundMessage)
		}
		if err := actor.RequireOwnerOrAdmin(promise.CreatedBy); err != nil {
			s.logger.WarnContext(ctx, "promise edit denied",
				"promise_id", promiseID.String(),
				"user_id", actor.UserID().String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			return err
		}
		if !promise.CanModify() {
			return dErrors.Application(PromiseCannotEditReviewedMessage)
		}
		if err := ensureValidReferences(ctx, store, &in); err != nil {
			return err
		}

		promise.Name = in.Name
		promise.Description = in.Description
		promise.Sources = in.Sources
		promise.Date = in.Date
		promise.PartyID = in.PartyID
		promise.ConvocationID = in.ConvocationID
		promise.Stamp(actor.Ref(), requestcontext.Now(ctx))

		if err := store.UpdatePromise(ctx, promise); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Application(promiseUniqueMessage(in.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to edit promise")
	}

	s.logger.InfoContext(ctx, "promise edited",
		"promise_id", promise.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventPromiseEdited),
		ActorID:     actorRef(actor.Ref()),
		SubjectType: "promise",
		Subject:     promise.ID.String(),
	})
	return promise, nil
}

// Delete removes an unreviewed promise together with its pending results.
func (s *PromiseService) Delete(ctx context.Context, actor access.Actor, promiseID id.PromiseID) error {
	ctx, span := s.tracer.Start(ctx, "promises.Delete")
	defer span.End()

	err := s.tx.RunInTx(ctx, func(store Store) error {
		promise, err := store.FindPromise(ctx, promiseID)
		if err != nil {
			return notFound(err, PromiseNotFoundMessage)
		}
		if err := actor.RequireOwnerOrAdmin(promise.CreatedBy); err != nil {
			return err
		}
		if !promise.CanModify() {
			return dErrors.Application(PromiseCannotDeleteReviewedMessage)
		}
		results, err := store.ListResultsByPromise(ctx, promiseID)
		if err != nil {
			return err
		}
		if results.HasReviewed() {
			return dErrors.Application(PromiseCannotDeleteHasResultsMsg)
		}
		return store.DeletePromise(ctx, promiseID)
	})
	if err != nil {
		return internal(err, "failed to delete promise")
	}

	s.logger.InfoContext(ctx, "promise deleted",
		"promise_id", promiseID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventPromiseDeleted),
		ActorID:     actorRef(actor.Ref()),
		SubjectType: "promise",
		Subject:     promiseID.String(),
	})
	return nil
}

// Evaluate moves a pending promise to status. Callers gate this to
// administrators.
func (s *PromiseService) Evaluate(ctx context.Context, actor access.Actor, promiseID id.PromiseID, status models.ReviewStatus) (*models.Promise, error) {
	ctx, span := s.tracer.Start(ctx, "promises.Evaluate")
	defer span.End()

	if err := validateDecision(status); err != nil {
		return nil, err
	}

	var promise *models.Promise
	err := s.tx.RunInTx(ctx, func(store Store) error {
		var err error
		promise, err = store.FindPromise(ctx, promiseID)
		if err != nil {
			return notFound(err, PromiseNotFoundMessage)
		}
		if !promise.Review.CanEvaluate() {
			return dErrors.Application(PromiseCannotEvaluateReviewedMsg)
		}
		if promise.Review.Status == status {
			return dErrors.Applicationf("Promise is already in status %s!", status)
		}
		now := requestcontext.Now(ctx)
		promise.Review.ApplyEvaluation(status, actor.UserID(), now)
		promise.Stamp(actor.Ref(), now)
		return store.UpdatePromise(ctx, promise)
	})
	if err != nil {
		return nil, internal(err, "failed to evaluate promise")
	}

	s.recordDecision(ctx, "promise", status)
	s.logger.InfoContext(ctx, "promise evaluated",
		"promise_id", promise.ID.String(),
		"review_status", string(status),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventPromiseEvaluated),
		ActorID:     actor.UserID(),
		SubjectType: "promise",
		Subject:     promise.ID.String(),
		Decision:    string(status),
	})
	return promise, nil
}
