// Package service implements account lifecycle, email verification,
// moderation and login.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/platform/tx"
	"promisetracker/pkg/requestcontext"
)

// Runner opens the transactional boundary over Store.
type Runner = tx.Runner[Store]

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Metrics interface {
	IncUsersCreated()
	IncLogin(outcome string)
	IncVerificationEmail(outcome string)
}

// Settings holds the verification timings.
type Settings struct {
	CodeLength  int
	CodeExpiry  time.Duration
	ResendDelay time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		CodeLength:  6,
		CodeExpiry:  10 * time.Minute,
		ResendDelay: 2 * time.Minute,
	}
}

type deps struct {
	tx       Runner
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  Metrics
	settings Settings
	tracer   trace.Tracer
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

func WithSettings(settings Settings) Option {
	return func(d *deps) {
		d.settings = settings
	}
}

func newDeps(runner Runner, opts []Option) deps {
	d := deps{
		tx:       runner,
		logger:   slog.Default(),
		settings: DefaultSettings(),
		tracer:   otel.Tracer("promisetracker/users"),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d *deps) emit(ctx context.Context, action audit.AuditEvent, subject id.UserID, actor id.UserID) {
	if d.auditor == nil {
		return
	}
	event := audit.Event{
		Action:      string(action),
		SubjectType: "user",
		Subject:     subject.String(),
		ActorID:     actor,
	}
	if err := d.auditor.Emit(ctx, event); err != nil {
		d.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action,
			"subject", subject.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

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
