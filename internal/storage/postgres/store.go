// Package postgres is the PostgreSQL backend. One Store serves every
// per-service store interface; inside RunInTx it is bound to the open
// transaction and takes row locks where a service relies on them.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"promisetracker/internal/platform/postgres"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/platform/tx"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE operand matching s literally anywhere.
// Pair it with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	q    querier
	inTx bool
}

func New(db *sql.DB) *Store {
	return &Store{q: db}
}

func newTxStore(sqlTx *sql.Tx) *Store {
	return &Store{q: sqlTx, inTx: true}
}

// forUpdate appends a row lock when running inside a transaction.
func (s *Store) forUpdate(query string) string {
	if s.inTx {
		return query + " FOR UPDATE"
	}
	return query
}

// Tx opens one SQL transaction per unit of work.
type Tx[S any] struct {
	db      *sql.DB
	timeout time.Duration
	bind    func(*Store) S
}

// NewTx binds a runner for the view S. It panics when *Store does not
// implement S, which is a wiring error.
func NewTx[S any](db *sql.DB) *Tx[S] {
	if _, ok := any((*Store)(nil)).(S); !ok {
		panic(fmt.Sprintf("postgres.Store does not implement %T", (*S)(nil)))
	}
	return &Tx[S]{
		db:      db,
		timeout: tx.DefaultTimeout,
		bind:    func(s *Store) S { return any(s).(S) },
	}
}

func (t *Tx[S]) RunInTx(ctx context.Context, fn func(store S) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(t.bind(newTxStore(sqlTx))); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction timed out")
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// writeErr maps driver failures onto sentinel errors.
func writeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func readErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectRow returns ErrNotFound when an update or delete touched nothing.
func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func userRef(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func fromUserRef(n uuid.NullUUID) *id.UserID {
	if !n.Valid {
		return nil
	}
	v := id.UserID(n.UUID)
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

func fromNullDate(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := id.Day(n.Time)
	return &v
}

type scanner interface {
	Scan(dest ...any) error
}
