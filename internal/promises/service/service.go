// Package service implements the promise and promise-result write paths:
// creation checks, owner gating and the one-way review state machine.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	cmodels "promisetracker/internal/classifiers/models"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/platform/tx"
	"promisetracker/pkg/requestcontext"
)

// Store is the persistence view used inside a transaction. FindPromise locks
// the promise row for the rest of the transaction where the backend supports
// it, which serializes result writes per promise.
type Store interface {
	FindParty(ctx context.Context, partyID id.PartyID) (*cmodels.PoliticalParty, error)
	FindConvocation(ctx context.Context, convocationID id.ConvocationID) (*cmodels.Convocation, error)

	CreatePromise(ctx context.Context, promise *models.Promise) error
	UpdatePromise(ctx context.Context, promise *models.Promise) error
	// DeletePromise removes the promise and cascades to its results.
	DeletePromise(ctx context.Context, promiseID id.PromiseID) error
	FindPromise(ctx context.Context, promiseID id.PromiseID) (*models.Promise, error)

	CreateResult(ctx context.Context, result *models.Result) error
	UpdateResult(ctx context.Context, result *models.Result) error
	DeleteResult(ctx context.Context, resultID id.ResultID) error
	FindResult(ctx context.Context, resultID id.ResultID) (*models.Result, error)
	ListResultsByPromise(ctx context.Context, promiseID id.PromiseID) (models.Results, error)
}

// Runner opens the transactional boundary over Store.
type Runner = tx.Runner[Store]

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Metrics is the subset of counters the write paths bump.
type Metrics interface {
	IncPromisesCreated()
	IncResultsCreated()
	IncReviewDecision(entity, status string)
}

// AnalyticsInvalidator drops cached analytics after review decisions.
type AnalyticsInvalidator interface {
	Invalidate(ctx context.Context)
}

type deps struct {
	tx          Runner
	logger      *slog.Logger
	auditor     AuditPublisher
	metrics     Metrics
	invalidator AnalyticsInvalidator
	tracer      trace.Tracer
}

type Option func(*deps)

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) {
		d.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(d *deps) {
		d.auditor = publisher
	}
}

func WithMetrics(m Metrics) Option {
	return func(d *deps) {
		d.metrics = m
	}
}

func WithAnalyticsInvalidator(inv AnalyticsInvalidator) Option {
	return func(d *deps) {
		d.invalidator = inv
	}
}

func newDeps(runner Runner, opts []Option) deps {
	d := deps{
		tx:     runner,
		logger: slog.Default(),
		tracer: otel.Tracer("promisetracker/promises"),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d *deps) emit(ctx context.Context, event audit.Event) {
	if d.auditor == nil {
		return
	}
	if err := d.auditor.Emit(ctx, event); err != nil {
		d.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (d *deps) recordDecision(ctx context.Context, entity string, status models.ReviewStatus) {
	if d.metrics != nil {
		d.metrics.IncReviewDecision(entity, string(status))
	}
	if d.invalidator != nil {
		d.invalidator.Invalidate(ctx)
	}
}

func actorRef(userID *id.UserID) id.UserID {
	if userID == nil {
		return id.UserID{}
	}
	return *userID
}

// notFound maps sentinel.ErrNotFound to a NotFound domain error with msg.
func notFound(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.NotFound(msg)
	}
	return err
}

// internal passes domain errors through and wraps everything else.
func internal(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// validateDecision rejects unknown review statuses.
func validateDecision(status models.ReviewStatus) error {
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be APPROVED or REJECTED")
	}
	return nil
}
