package sentinel

import "errors"

// Sentinel errors for persistence facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors:
// - ErrNotFound: row does not exist
// - ErrConflict: a unique constraint rejected the write
// - ErrInvalidState: row is in the wrong state for the requested write
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
