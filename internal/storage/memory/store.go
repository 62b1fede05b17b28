// Package memory is the in-process backend used in development and tests.
// One Store serves every per-service store interface so cross-aggregate
// checks (party has promises, promise has results) see the same data.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	cmodels "promisetracker/internal/classifiers/models"
	pmodels "promisetracker/internal/promises/models"
	umodels "promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/tx"
)

// Store keeps records by value and hands out copies, so callers never mutate
// stored state without an explicit write.
type Store struct {
	mu           sync.RWMutex
	users        map[id.UserID]*umodels.User
	parties      map[id.PartyID]*cmodels.PoliticalParty
	convocations map[id.ConvocationID]*cmodels.Convocation
	promises     map[id.PromiseID]*pmodels.Promise
	results      map[id.ResultID]*pmodels.Result

	// txMu serializes RunInTx callers across every runner built on this store.
	txMu sync.Mutex
}

func New() *Store {
	return &Store{
		users:        make(map[id.UserID]*umodels.User),
		parties:      make(map[id.PartyID]*cmodels.PoliticalParty),
		convocations: make(map[id.ConvocationID]*cmodels.Convocation),
		promises:     make(map[id.PromiseID]*pmodels.Promise),
		results:      make(map[id.ResultID]*pmodels.Result),
	}
}

// Tx runs units of work one at a time under the store-wide lock. There is no
// rollback: services perform every check before their writes.
type Tx[S any] struct {
	store   *Store
	view    S
	timeout time.Duration
}

// NewTx binds a runner for the view S. It panics when *Store does not
// implement S, which is a wiring error.
func NewTx[S any](store *Store) *Tx[S] {
	view, ok := any(store).(S)
	if !ok {
		panic(fmt.Sprintf("memory.Store does not implement %T", (*S)(nil)))
	}
	return &Tx[S]{store: store, view: view, timeout: tx.DefaultTimeout}
}

var _ tx.Runner[any] = (*Tx[any])(nil)

func (t *Tx[S]) RunInTx(ctx context.Context, fn func(store S) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(t.view)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUserRef(u *id.UserID) *id.UserID {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

func cloneUser(u *umodels.User) *umodels.User {
	c := *u
	c.VerificationCodeExpiresAt = cloneTime(u.VerificationCodeExpiresAt)
	c.VerificationEmailSentAt = cloneTime(u.VerificationEmailSentAt)
	return &c
}

func cloneClassifierAudit(a cmodels.Audit) cmodels.Audit {
	a.CreatedBy = cloneUserRef(a.CreatedBy)
	a.UpdatedBy = cloneUserRef(a.UpdatedBy)
	return a
}

func clonePromiseAudit(a pmodels.Audit) pmodels.Audit {
	a.CreatedBy = cloneUserRef(a.CreatedBy)
	a.UpdatedBy = cloneUserRef(a.UpdatedBy)
	return a
}

func cloneReview(r pmodels.Review) pmodels.Review {
	r.Date = cloneTime(r.Date)
	r.Reviewer = cloneUserRef(r.Reviewer)
	return r
}

func cloneParty(p *cmodels.PoliticalParty) *cmodels.PoliticalParty {
	c := *p
	c.LiquidatedDate = cloneTime(p.LiquidatedDate)
	c.Audit = cloneClassifierAudit(p.Audit)
	return &c
}

func cloneConvocation(cv *cmodels.Convocation) *cmodels.Convocation {
	c := *cv
	c.EndDate = cloneTime(cv.EndDate)
	c.PartyIDs = slices.Clone(cv.PartyIDs)
	c.Audit = cloneClassifierAudit(cv.Audit)
	return &c
}

func clonePromise(p *pmodels.Promise) *pmodels.Promise {
	c := *p
	c.Sources = slices.Clone(p.Sources)
	c.Review = cloneReview(p.Review)
	c.Audit = clonePromiseAudit(p.Audit)
	return &c
}

func cloneResult(r *pmodels.Result) *pmodels.Result {
	c := *r
	c.Sources = slices.Clone(r.Sources)
	if r.Status != nil {
		status := *r.Status
		c.Status = &status
	}
	c.Review = cloneReview(r.Review)
	c.Audit = clonePromiseAudit(r.Audit)
	return &c
}
