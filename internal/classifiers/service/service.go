// Package service implements the write paths for political parties and
// convocations.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/tx"
	"promisetracker/pkg/requestcontext"
)

// Store is the persistence view used inside a transaction. Implementations
// return sentinel.ErrNotFound for missing rows and sentinel.ErrConflict for
// unique name violations.
type Store interface {
	CreateParty(ctx context.Context, party *models.PoliticalParty) error
	UpdateParty(ctx context.Context, party *models.PoliticalParty) error
	DeleteParty(ctx context.Context, partyID id.PartyID) error
	FindParty(ctx context.Context, partyID id.PartyID) (*models.PoliticalParty, error)
	FindPartiesByIDs(ctx context.Context, partyIDs []id.PartyID) ([]*models.PoliticalParty, error)
	PartyHasConvocations(ctx context.Context, partyID id.PartyID) (bool, error)
	PartyHasPromises(ctx context.Context, partyID id.PartyID) (bool, error)

	CreateConvocation(ctx context.Context, convocation *models.Convocation) error
	UpdateConvocation(ctx context.Context, convocation *models.Convocation) error
	DeleteConvocation(ctx context.Context, convocationID id.ConvocationID) error
	FindConvocation(ctx context.Context, convocationID id.ConvocationID) (*models.Convocation, error)
	ConvocationHasPromises(ctx context.Context, convocationID id.ConvocationID) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AnalyticsInvalidator drops cached analytics that embed party names.
type AnalyticsInvalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	tx          tx.Runner[Store]
	logger      *slog.Logger
	auditor     AuditPublisher
	invalidator AnalyticsInvalidator
	tracer      trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithAnalyticsInvalidator(inv AnalyticsInvalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

func New(runner tx.Runner[Store], opts ...Option) *Service {
	s := &Service{
		tx:     runner,
		logger: slog.Default(),
		tracer: otel.Tracer("promisetracker/classifiers"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subjectType, subject string, actor *id.UserID) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:      string(action),
		SubjectType: subjectType,
		Subject:     subject,
	}
	if actor != nil {
		event.ActorID = *actor
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action,
			"subject", subject,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) invalidateAnalytics(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}
