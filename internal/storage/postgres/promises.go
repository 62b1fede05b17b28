package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pmodels "promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
)

const promiseColumns = `
	id, name, description, sources, date, party_id, convocation_id,
	review_status, review_date, reviewer_id,
	created_by, updated_by, created_at, updated_at`

func (s *Store) CreatePromise(ctx context.Context, p *pmodels.Promise) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO promises (`+promiseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(p.ID), p.Name, p.Description, pq.Array(p.Sources), p.Date,
		uuid.UUID(p.PartyID), uuid.UUID(p.ConvocationID),
		string(p.Review.Status), nullTime(p.Review.Date), userRef(p.Review.Reviewer),
		userRef(p.CreatedBy), userRef(p.UpdatedBy), p.CreatedAt, p.UpdatedAt,
	)
	return writeErr(err, "insert promise")
}

func (s *Store) UpdatePromise(ctx context.Context, p *pmodels.Promise) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE promises SET
			name = $2, description = $3, sources = $4, date = $5,
			party_id = $6, convocation_id = $7,
			review_status = $8, review_date = $9, reviewer_id = $10,
			updated_by = $11, updated_at = $12
		WHERE id = $1`,
		uuid.UUID(p.ID), p.Name, p.Description, pq.Array(p.Sources), p.Date,
		uuid.UUID(p.PartyID), uuid.UUID(p.ConvocationID),
		string(p.Review.Status), nullTime(p.Review.Date), userRef(p.Review.Reviewer),
		userRef(p.UpdatedBy), p.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "update promise")
	}
	return expectRow(res, "update promise")
}

// DeletePromise relies on the foreign key cascade to drop the results.
func (s *Store) DeletePromise(ctx context.Context, promiseID id.PromiseID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM promises WHERE id = $1`, uuid.UUID(promiseID))
	if err != nil {
		return writeErr(err, "delete promise")
	}
	return expectRow(res, "delete promise")
}

func (s *Store) FindPromise(ctx context.Context, promiseID id.PromiseID) (*pmodels.Promise, error) {
	row := s.q.QueryRowContext(ctx,
		s.forUpdate(`SELECT `+promiseColumns+` FROM promises WHERE id = $1`), uuid.UUID(promiseID))
	p, err := scanPromise(row)
	if err != nil {
		return nil, readErr(err, "find promise")
	}
	return p, nil
}

func (s *Store) ListPromises(ctx context.Context, query pmodels.PromiseQuery) ([]*pmodels.Promise, error) {
	var w whereBuilder
	w.visibility("p", query.Visibility)
	if query.NameContains != "" {
		w.add(`p.name ILIKE $%d ESCAPE '\'`, containsPattern(query.NameContains))
	}
	if query.PartyID != nil {
		w.add("p.party_id = $%d", uuid.UUID(*query.PartyID))
	}
	if query.ConvocationID != nil {
		w.add("p.convocation_id = $%d", uuid.UUID(*query.ConvocationID))
	}
	if query.OnlyPending {
		w.add("p.review_status = $%d", string(pmodels.ReviewPending))
	}
	if query.FinalStatus != nil {
		w.add(`EXISTS (
			SELECT 1 FROM promise_results r
			WHERE r.promise_id = p.id AND r.is_final
			  AND r.review_status = 'APPROVED' AND r.status = $%d)`, string(*query.FinalStatus))
	}

	sqlQuery := `SELECT ` + prefixed("p", promiseColumns) + ` FROM promises p` +
		w.clause() + ` ORDER BY p.date, p.created_at`
	rows, err := s.q.QueryContext(ctx, sqlQuery, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list promises: %w", err)
	}
	defer rows.Close()

	out := make([]*pmodels.Promise, 0)
	for rows.Next() {
		p, err := scanPromise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promise: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPromise(row scanner) (*pmodels.Promise, error) {
	var (
		p             pmodels.Promise
		promiseID     uuid.UUID
		partyID       uuid.UUID
		convocationID uuid.UUID
		status        string
		reviewDate    sql.NullTime
		reviewer      uuid.NullUUID
		createdBy     uuid.NullUUID
		updatedBy     uuid.NullUUID
	)
	if err := row.Scan(&promiseID, &p.Name, &p.Description, pq.Array(&p.Sources), &p.Date,
		&partyID, &convocationID, &status, &reviewDate, &reviewer,
		&createdBy, &updatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PromiseID(promiseID)
	p.PartyID = id.PartyID(partyID)
	p.ConvocationID = id.ConvocationID(convocationID)
	p.Date = id.Day(p.Date)
	p.Review = pmodels.Review{
		Status:   pmodels.ReviewStatus(status),
		Date:     fromNullTime(reviewDate),
		Reviewer: fromUserRef(reviewer),
	}
	p.CreatedBy = fromUserRef(createdBy)
	p.UpdatedBy = fromUserRef(updatedBy)
	return &p, nil
}

// whereBuilder numbers positional parameters as conditions are added.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends a condition whose single %d verb is the next parameter index.
func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) raw(cond string) {
	w.conds = append(w.conds, cond)
}

// visibility translates the scope into SQL over the alias's review columns.
func (w *whereBuilder) visibility(alias string, v pmodels.Visibility) {
	approved := alias + ".review_status = 'APPROVED'"
	switch v.Scope {
	case pmodels.ScopeAll:
	case pmodels.ScopeOwnOnly:
		w.add(alias+".created_by = $%d", uuid.UUID(v.OwnerID))
	case pmodels.ScopeApprovedOrOwn:
		w.add("("+approved+" OR "+alias+".created_by = $%d)", uuid.UUID(v.OwnerID))
	default:
		w.raw(approved)
	}
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// prefixed qualifies a column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
