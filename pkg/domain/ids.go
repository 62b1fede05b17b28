// Package domain holds identifier and date primitives shared across bounded
// contexts. Typed IDs prevent passing a PartyID where a PromiseID is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "promisetracker/pkg/domain-errors"
)

type (
	UserID        uuid.UUID
	PartyID       uuid.UUID
	ConvocationID uuid.UUID
	PromiseID     uuid.UUID
	ResultID      uuid.UUID
)

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewPartyID() PartyID             { return PartyID(uuid.New()) }
func NewConvocationID() ConvocationID { return ConvocationID(uuid.New()) }
func NewPromiseID() PromiseID         { return PromiseID(uuid.New()) }
func NewResultID() ResultID           { return ResultID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id PartyID) String() string       { return uuid.UUID(id).String() }
func (id ConvocationID) String() string { return uuid.UUID(id).String() }
func (id PromiseID) String() string     { return uuid.UUID(id).String() }
func (id ResultID) String() string      { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id PartyID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ConvocationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PromiseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ResultID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id PartyID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id ConvocationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id PromiseID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ResultID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error  { return unmarshalID(b, (*uuid.UUID)(id), "user") }
func (id *PartyID) UnmarshalText(b []byte) error { return unmarshalID(b, (*uuid.UUID)(id), "party") }
func (id *ConvocationID) UnmarshalText(b []byte) error {
	return unmarshalID(b, (*uuid.UUID)(id), "convocation")
}
func (id *PromiseID) UnmarshalText(b []byte) error {
	return unmarshalID(b, (*uuid.UUID)(id), "promise")
}
func (id *ResultID) UnmarshalText(b []byte) error { return unmarshalID(b, (*uuid.UUID)(id), "result") }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParsePartyID(s string) (PartyID, error) {
	u, err := parseUUID(s, "party")
	return PartyID(u), err
}

func ParseConvocationID(s string) (ConvocationID, error) {
	u, err := parseUUID(s, "convocation")
	return ConvocationID(u), err
}

func ParsePromiseID(s string) (PromiseID, error) {
	u, err := parseUUID(s, "promise")
	return PromiseID(u), err
}

func ParseResultID(s string) (ResultID, error) {
	u, err := parseUUID(s, "result")
	return ResultID(u), err
}

// parseUUID rejects empty, malformed and nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s ID required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s ID", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s ID cannot be nil", kind)
	}
	return u, nil
}

func unmarshalID(b []byte, dst *uuid.UUID, kind string) error {
	u, err := parseUUID(string(b), kind)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}
