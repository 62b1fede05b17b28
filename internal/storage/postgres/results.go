package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"promisetracker/internal/platform/postgres"
	pmodels "promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/sentinel"
)

const resultColumns = `
	id, promise_id, name, description, sources, date, is_final, status,
	review_status, review_date, reviewer_id,
	created_by, updated_by, created_at, updated_at`

func (s *Store) CreateResult(ctx context.Context, r *pmodels.Result) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO promise_results (`+resultColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(r.ID), uuid.UUID(r.PromiseID), r.Name, r.Description, pq.Array(r.Sources),
		r.Date, r.IsFinal, statusValue(r.Status),
		string(r.Review.Status), nullTime(r.Review.Date), userRef(r.Review.Reviewer),
		userRef(r.CreatedBy), userRef(r.UpdatedBy), r.CreatedAt, r.UpdatedAt,
	)
	return resultWriteErr(err, "insert promise result")
}

func (s *Store) UpdateResult(ctx context.Context, r *pmodels.Result) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE promise_results SET
			promise_id = $2, name = $3, description = $4, sources = $5, date = $6,
			is_final = $7, status = $8,
			review_status = $9, review_date = $10, reviewer_id = $11,
			updated_by = $12, updated_at = $13
		WHERE id = $1`,
		uuid.UUID(r.ID), uuid.UUID(r.PromiseID), r.Name, r.Description, pq.Array(r.Sources),
		r.Date, r.IsFinal, statusValue(r.Status),
		string(r.Review.Status), nullTime(r.Review.Date), userRef(r.Review.Reviewer),
		userRef(r.UpdatedBy), r.UpdatedAt,
	)
	if err != nil {
		return resultWriteErr(err, "update promise result")
	}
	return expectRow(res, "update promise result")
}

// resultWriteErr reports a missing parent promise as not found.
func resultWriteErr(err error, op string) error {
	if postgres.IsForeignKeyViolation(err) {
		return sentinel.ErrNotFound
	}
	return writeErr(err, op)
}

func (s *Store) DeleteResult(ctx context.Context, resultID id.ResultID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM promise_results WHERE id = $1`, uuid.UUID(resultID))
	if err != nil {
		return writeErr(err, "delete promise result")
	}
	return expectRow(res, "delete promise result")
}

func (s *Store) FindResult(ctx context.Context, resultID id.ResultID) (*pmodels.Result, error) {
	row := s.q.QueryRowContext(ctx,
		s.forUpdate(`SELECT `+resultColumns+` FROM promise_results WHERE id = $1`), uuid.UUID(resultID))
	r, err := scanResult(row)
	if err != nil {
		return nil, readErr(err, "find promise result")
	}
	return r, nil
}

// ListResultsByPromise returns every result of the promise, date ascending.
func (s *Store) ListResultsByPromise(ctx context.Context, promiseID id.PromiseID) (pmodels.Results, error) {
	return s.ListResults(ctx, pmodels.ResultQuery{
		Visibility: pmodels.Visibility{Scope: pmodels.ScopeAll},
		PromiseID:  &promiseID,
	})
}

func (s *Store) ListResults(ctx context.Context, query pmodels.ResultQuery) ([]*pmodels.Result, error) {
	var w whereBuilder
	w.visibility("r", query.Visibility)
	if query.PromiseID != nil {
		w.add("r.promise_id = $%d", uuid.UUID(*query.PromiseID))
	}
	if query.OnlyPending {
		w.add("r.review_status = $%d", string(pmodels.ReviewPending))
	}
	order := ` ORDER BY r.date, r.created_at`
	if query.OrderDesc {
		order = ` ORDER BY r.date DESC, r.created_at DESC`
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+prefixed("r", resultColumns)+` FROM promise_results r`+w.clause()+order, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list promise results: %w", err)
	}
	defer rows.Close()

	out := make([]*pmodels.Result, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promise result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func statusValue(s *pmodels.CompletionStatus) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

func scanResult(row scanner) (*pmodels.Result, error) {
	var (
		r            pmodels.Result
		resultID     uuid.UUID
		promiseID    uuid.UUID
		status       sql.NullString
		reviewStatus string
		reviewDate   sql.NullTime
		reviewer     uuid.NullUUID
		createdBy    uuid.NullUUID
		updatedBy    uuid.NullUUID
	)
	if err := row.Scan(&resultID, &promiseID, &r.Name, &r.Description, pq.Array(&r.Sources),
		&r.Date, &r.IsFinal, &status, &reviewStatus, &reviewDate, &reviewer,
		&createdBy, &updatedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = id.ResultID(resultID)
	r.PromiseID = id.PromiseID(promiseID)
	r.Date = id.Day(r.Date)
	if status.Valid {
		cs := pmodels.CompletionStatus(status.String)
		r.Status = &cs
	}
	r.Review = pmodels.Review{
		Status:   pmodels.ReviewStatus(reviewStatus),
		Date:     fromNullTime(reviewDate),
		Reviewer: fromUserRef(reviewer),
	}
	r.CreatedBy = fromUserRef(createdBy)
	r.UpdatedBy = fromUserRef(updatedBy)
	return &r, nil
}
