package service

import (
	"context"
	"errors"
	"fmt"

	"promisetracker/internal/access"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/requestcontext"
)

const (
	ResultNotFoundMessage                   = "Promise result not found."
	ResultPromiseNotFoundMessage            = "Promise does not exist!"
	ResultCannotAddToFinalPromiseMessage    = "Cannot add result to final promise!"
	ResultCannotAddFinalLaterResultsMessage = "Cannot add final result because promise has later results!"
	ResultFinalStatusNotSpecifiedMessage    = "Final result status is not specified!"
	ResultStatusNotAllowedMessage           = "Cannot specify result status when result is not final!"
	ResultCannotEditReviewedMessage         = "Cannot modify reviewed result!"
	ResultCannotDeleteReviewedMessage       = "Cannot delete reviewed result!"
	ResultCannotChangeStatusMessage         = "Cannot change status of already reviewed result!"
	ResultCannotEvaluateHasFinalMessage     = "Cannot evaluate result, because promise has a final result!"
	ResultCannotEvaluateFinalLaterMessage   = "Cannot evaluate final result, because promise has later approved final results!"
	ResultDateInFutureMessage               = "Promise result date is in the future."
	ResultEarlierThanPromiseMessage         = "Result date is earlier than promise date."
	ResultPendingDecisionMessage            = "Promise result is already in status PENDING!"
)

func resultUniqueMessage(name string) string {
	return fmt.Sprintf("Result %s already exists!", name)
}

type ResultService struct {
	deps
}

func NewResultService(runner Runner, opts ...Option) *ResultService {
	return &ResultService{deps: newDeps(runner, opts)}
}

func ensureResultDate(ctx context.Context, promise *models.Promise, in *models.ResultInput) error {
	if id.IsFutureDate(in.Date, requestcontext.Now(ctx)) {
		return dErrors.Application(ResultDateInFutureMessage)
	}
	if in.Date.Before(promise.Date) {
		return dErrors.Application(ResultEarlierThanPromiseMessage)
	}
	return nil
}

// ensureFinalRules checks the final flag against status and against the
// promise's approved results. An approved result on the same day does not
// count as later.
func ensureFinalRules(results models.Results, in *models.ResultInput) error {
	if in.IsFinal {
		if in.Status == nil {
			return dErrors.Application(ResultFinalStatusNotSpecifiedMessage)
		}
		if results.HasApprovedAfter(in.Date) {
			return dErrors.Application(ResultCannotAddFinalLaterResultsMessage)
		}
	}
	if in.Status != nil && !in.IsFinal {
		return dErrors.Application(ResultStatusNotAllowedMessage)
	}
	return nil
}

func (s *ResultService) Create(ctx context.Context, actor access.Actor, in models.ResultInput) (*models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "results.Create")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	result := &models.Result{
		ID:          id.NewResultID(),
		PromiseID:   in.PromiseID,
		Name:        in.Name,
		Description: in.Description,
		Sources:     in.Sources,
		Date:        in.Date,
		IsFinal:     in.IsFinal,
		Status:      in.Status,
		Review:      models.Review{Status: models.ReviewPending},
	}
	result.Stamp(actor.Ref(), requestcontext.Now(ctx))

	err := s.tx.RunInTx(ctx, func(store Store) error {
		promise, err := store.FindPromise(ctx, in.PromiseID)
		if err != nil {
			return notFound(err, ResultPromiseNotFoundMessage)
		}
		results, err := store.ListResultsByPromise(ctx, promise.ID)
		if err != nil {
			return err
		}
		if results.HasApprovedFinal() {
			return dErrors.Application(ResultCannotAddToFinalPromiseMessage)
		}
		if err := ensureResultDate(ctx, promise, &in); err != nil {
			return err
		}
		if err := ensureFinalRules(results, &in); err != nil {
			return err
		}
		if err := store.CreateResult(ctx, result); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Application(resultUniqueMessage(in.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to create promise result")
	}

	if s.metrics != nil {
		s.metrics.IncResultsCreated()
	}
	s.logger.InfoContext(ctx, "promise result created",
		"result_id", result.ID.String(),
		"promise_id", result.PromiseID.String(),
		"is_final", result.IsFinal,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventResultCreated),
		ActorID:     actorRef(actor.Ref()),
		SubjectType: "promise_result",
		Subject:     result.ID.String(),
	})
	return result, nil
}

// Edit rewrites an unreviewed result. in.PromiseID may move it to another
// promise; the target promise's rules apply.
func (s *ResultService) Edit(ctx context.Context, actor access.Actor, resultID id.ResultID, in models.ResultInput) (*models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "results.Edit")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var result *models.Result
	err := s.tx.RunInTx(ctx, func(store Store) error {
		var err error
		result, err = store.FindResult(ctx, resultID)
		if err != nil {
			return notFound(err, ResultNotFoundMessage)
		}
		if err := actor.RequireOwnerOrAdmin(result.CreatedBy); err != nil {
			return err
		}
		if !result.CanModify() {
			return dErrors.Application(ResultCannotEditReviewedMessage)
		}
		promise, err := store.FindPromise(ctx, in.PromiseID)
		if err != nil {
			return notFound(err, ResultPromiseNotFoundMessage)
		}
		results, err := store.ListResultsByPromise(ctx, promise.ID)
		if err != nil {
			return err
		}
		if err := ensureResultDate(ctx, promise, &in); err != nil {
			return err
		}
		if results.HasApprovedFinal() {
			return dErrors.Application(ResultCannotAddToFinalPromiseMessage)
		}
		if err := ensureFinalRules(results, &in); err != nil {
			return err
		}

		result.PromiseID = promise.ID
		result.Name = in.Name
		result.Description = in.Description
		result.Sources = in.Sources
		result.Date = in.Date
		result.IsFinal = in.IsFinal
		result.Status = in.Status
		result.Stamp(actor.Ref(), requestcontext.Now(ctx))

		if err := store.UpdateResult(ctx, result); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Application(resultUniqueMessage(in.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to edit promise result")
	}

	s.logger.InfoContext(ctx, "promise result edited",
		"result_id", result.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventResultEdited),
		ActorID:     actorRef(actor.Ref()),
		SubjectType: "promise_result",
		Subject:     result.ID.String(),
	})
	return result, nil
}

func (s *ResultService) Delete(ctx context.Context, actor access.Actor, resultID id.ResultID) error {
	ctx, span := s.tracer.Start(ctx, "results.Delete")
	defer span.End()

	err := s.tx.RunInTx(ctx, func(store Store) error {
		result, err := store.FindResult(ctx, resultID)
		if err != nil {
			return notFound(err, ResultNotFoundMessage)
		}
		if err := actor.RequireOwnerOrAdmin(result.CreatedBy); err != nil {
			return err
		}
		if !result.CanModify() {
			return dErrors.Application(ResultCannotDeleteReviewedMessage)
		}
		return store.DeleteResult(ctx, resultID)
	})
	if err != nil {
		return internal(err, "failed to delete promise result")
	}

	s.logger.InfoContext(ctx, "promise result deleted",
		"result_id", resultID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventResultDeleted),
		ActorID:     actorRef(actor.Ref()),
		SubjectType: "promise_result",
		Subject:     resultID.String(),
	})
	return nil
}

// Evaluate moves a pending result to status. Approval keeps at most one
// approved final result per promise, dated no earlier than any other
// approved result. Callers gate this to administrators.
func (s *ResultService) Evaluate(ctx context.Context, actor access.Actor, resultID id.ResultID, status models.ReviewStatus) (*models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "results.Evaluate")
	defer span.End()

	if err := validateDecision(status); err != nil {
		return nil, err
	}

	var result *models.Result
	err := s.tx.RunInTx(ctx, func(store Store) error {
		var err error
		result, err = store.FindResult(ctx, resultID)
		if err != nil {
			return notFound(err, ResultNotFoundMessage)
		}
		if !result.Review.CanEvaluate() {
			return dErrors.Application(ResultCannotChangeStatusMessage)
		}
		if status == models.ReviewPending {
			return dErrors.Application(ResultPendingDecisionMessage)
		}
		if status == models.ReviewApproved {
			// Lock the promise before reading its result set.
			if _, err := store.FindPromise(ctx, result.PromiseID); err != nil {
				return notFound(err, ResultPromiseNotFoundMessage)
			}
			results, err := store.ListResultsByPromise(ctx, result.PromiseID)
			if err != nil {
				return err
			}
			if results.HasApprovedFinal() {
				return dErrors.Application(ResultCannotEvaluateHasFinalMessage)
			}
			if result.IsFinal && results.HasApprovedAfter(result.Date) {
				return dErrors.Application(ResultCannotEvaluateFinalLaterMessage)
			}
		}
		now := requestcontext.Now(ctx)
		result.Review.ApplyEvaluation(status, actor.UserID(), now)
		result.Stamp(actor.Ref(), now)
		return store.UpdateResult(ctx, result)
	})
	if err != nil {
		return nil, internal(err, "failed to evaluate promise result")
	}

	s.recordDecision(ctx, "promise_result", status)
	s.logger.InfoContext(ctx, "promise result evaluated",
		"result_id", result.ID.String(),
		"review_status", string(status),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      string(audit.EventResultEvaluated),
		ActorID:     actor.UserID(),
		SubjectType: "promise_result",
		Subject:     result.ID.String(),
		Decision:    string(status),
	})
	return result, nil
}
