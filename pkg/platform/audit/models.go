package audit

import (
	"context"
	"time"

	id "promisetracker/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so stores can
// apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers moderation decisions and account lifecycle.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers authentication failures and bans.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine content changes.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from services to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	ActorID     id.UserID // zero for guests
	SubjectType string    // "promise", "promise_result", "political_party", ...
	Subject     string    // subject identifier
	Action      string
	Decision    string // review status for evaluate events
	Reason      string
	RequestID   string
}

type AuditEvent string

const (
	EventPromiseCreated   AuditEvent = "promise_created"
	EventPromiseEdited    AuditEvent = "promise_edited"
	EventPromiseDeleted   AuditEvent = "promise_deleted"
	EventPromiseEvaluated AuditEvent = "promise_evaluated"

	EventResultCreated   AuditEvent = "promise_result_created"
	EventResultEdited    AuditEvent = "promise_result_edited"
	EventResultDeleted   AuditEvent = "promise_result_deleted"
	EventResultEvaluated AuditEvent = "promise_result_evaluated"

	EventPartyCreated       AuditEvent = "political_party_created"
	EventPartyEdited        AuditEvent = "political_party_edited"
	EventPartyDeleted       AuditEvent = "political_party_deleted"
	EventConvocationCreated AuditEvent = "convocation_created"
	EventConvocationEdited  AuditEvent = "convocation_edited"
	EventConvocationDeleted AuditEvent = "convocation_deleted"

	EventUserCreated  AuditEvent = "user_created"
	EventUserEdited   AuditEvent = "user_edited"
	EventUserDeleted  AuditEvent = "user_deleted"
	EventUserVerified AuditEvent = "user_verified"
	EventUserBanned   AuditEvent = "user_banned"
	EventUserUnbanned AuditEvent = "user_unbanned"
	EventAuthFailed   AuditEvent = "auth_failed"
	EventTokenIssued  AuditEvent = "token_issued"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPromiseEvaluated: CategoryCompliance,
	EventResultEvaluated:  CategoryCompliance,
	EventUserCreated:      CategoryCompliance,
	EventUserDeleted:      CategoryCompliance,

	EventAuthFailed:   CategorySecurity,
	EventUserBanned:   CategorySecurity,
	EventUserUnbanned: CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
