// Package tx declares the transactional boundary used by write services.
package tx

import (
	"context"
	"time"
)

// DefaultTimeout bounds a transaction when the caller context has no deadline.
const DefaultTimeout = 5 * time.Second

// Runner executes fn atomically against a store view S. Implementations wrap
// a SQL transaction or, in memory, a coarse lock. Returning an error from fn
// rolls the unit back where the backend supports it.
type Runner[S any] interface {
	RunInTx(ctx context.Context, fn func(store S) error) error
}
