package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	cmodels "promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
)

const partyColumns = `
	id, name, established_date, liquidated_date,
	created_by, updated_by, created_at, updated_at`

func (s *Store) CreateParty(ctx context.Context, p *cmodels.PoliticalParty) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO political_parties (`+partyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(p.ID), p.Name, p.EstablishedDate, nullTime(p.LiquidatedDate),
		userRef(p.CreatedBy), userRef(p.UpdatedBy), p.CreatedAt, p.UpdatedAt,
	)
	return writeErr(err, "insert political party")
}

func (s *Store) UpdateParty(ctx context.Context, p *cmodels.PoliticalParty) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE political_parties SET
			name = $2, established_date = $3, liquidated_date = $4,
			updated_by = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(p.ID), p.Name, p.EstablishedDate, nullTime(p.LiquidatedDate),
		userRef(p.UpdatedBy), p.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "update political party")
	}
	return expectRow(res, "update political party")
}

func (s *Store) DeleteParty(ctx context.Context, partyID id.PartyID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM political_parties WHERE id = $1`, uuid.UUID(partyID))
	if err != nil {
		return writeErr(err, "delete political party")
	}
	return expectRow(res, "delete political party")
}

func (s *Store) FindParty(ctx context.Context, partyID id.PartyID) (*cmodels.PoliticalParty, error) {
	row := s.q.QueryRowContext(ctx,
		s.forUpdate(`SELECT `+partyColumns+` FROM political_parties WHERE id = $1`), uuid.UUID(partyID))
	p, err := scanParty(row)
	if err != nil {
		return nil, readErr(err, "find political party")
	}
	return p, nil
}

func (s *Store) FindPartiesByIDs(ctx context.Context, partyIDs []id.PartyID) ([]*cmodels.PoliticalParty, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+partyColumns+` FROM political_parties WHERE id = ANY($1)`, pq.Array(uuidStrings(partyIDs)))
	if err != nil {
		return nil, fmt.Errorf("find political parties: %w", err)
	}
	defer rows.Close()
	return scanParties(rows)
}

func (s *Store) PartyHasConvocations(ctx context.Context, partyID id.PartyID) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM convocation_parties WHERE party_id = $1)`, uuid.UUID(partyID))
}

func (s *Store) PartyHasPromises(ctx context.Context, partyID id.PartyID) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM promises WHERE party_id = $1)`, uuid.UUID(partyID))
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return ok, nil
}

// ListParties evaluates the active flag against asOf's calendar day.
func (s *Store) ListParties(ctx context.Context, filter cmodels.PartyFilter, asOf time.Time) ([]*cmodels.PoliticalParty, error) {
	var (
		where []string
		args  []any
	)
	if filter.NameContains != "" {
		args = append(args, containsPattern(filter.NameContains))
		where = append(where, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, id.Day(asOf))
		if *filter.IsActive {
			where = append(where, fmt.Sprintf("(liquidated_date IS NULL OR liquidated_date > $%d)", len(args)))
		} else {
			where = append(where, fmt.Sprintf("liquidated_date <= $%d", len(args)))
		}
	}
	query := `SELECT ` + partyColumns + ` FROM political_parties`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list political parties: %w", err)
	}
	defer rows.Close()
	return scanParties(rows)
}

func scanParty(row scanner) (*cmodels.PoliticalParty, error) {
	var (
		p          cmodels.PoliticalParty
		partyID    uuid.UUID
		liquidated sql.NullTime
		createdBy  uuid.NullUUID
		updatedBy  uuid.NullUUID
	)
	if err := row.Scan(&partyID, &p.Name, &p.EstablishedDate, &liquidated,
		&createdBy, &updatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PartyID(partyID)
	p.EstablishedDate = id.Day(p.EstablishedDate)
	p.LiquidatedDate = fromNullDate(liquidated)
	p.CreatedBy = fromUserRef(createdBy)
	p.UpdatedBy = fromUserRef(updatedBy)
	return &p, nil
}

func scanParties(rows *sql.Rows) ([]*cmodels.PoliticalParty, error) {
	var out []*cmodels.PoliticalParty
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan political party: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const convocationColumns = `
	id, name, start_date, end_date,
	created_by, updated_by, created_at, updated_at`

func (s *Store) CreateConvocation(ctx context.Context, c *cmodels.Convocation) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO convocations (`+convocationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(c.ID), c.Name, c.StartDate, nullTime(c.EndDate),
		userRef(c.CreatedBy), userRef(c.UpdatedBy), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "insert convocation")
	}
	return s.replaceConvocationParties(ctx, c)
}

func (s *Store) UpdateConvocation(ctx context.Context, c *cmodels.Convocation) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE convocations SET
			name = $2, start_date = $3, end_date = $4, updated_by = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(c.ID), c.Name, c.StartDate, nullTime(c.EndDate), userRef(c.UpdatedBy), c.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "update convocation")
	}
	if err := expectRow(res, "update convocation"); err != nil {
		return err
	}
	return s.replaceConvocationParties(ctx, c)
}

func (s *Store) replaceConvocationParties(ctx context.Context, c *cmodels.Convocation) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM convocation_parties WHERE convocation_id = $1`, uuid.UUID(c.ID)); err != nil {
		return writeErr(err, "clear convocation parties")
	}
	if len(c.PartyIDs) == 0 {
		return nil
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO convocation_parties (convocation_id, party_id)
		SELECT $1, unnest($2::uuid[])`,
		uuid.UUID(c.ID), pq.Array(uuidStrings(c.PartyIDs)),
	)
	return writeErr(err, "insert convocation parties")
}

func (s *Store) DeleteConvocation(ctx context.Context, convocationID id.ConvocationID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM convocations WHERE id = $1`, uuid.UUID(convocationID))
	if err != nil {
		return writeErr(err, "delete convocation")
	}
	return expectRow(res, "delete convocation")
}

func (s *Store) FindConvocation(ctx context.Context, convocationID id.ConvocationID) (*cmodels.Convocation, error) {
	row := s.q.QueryRowContext(ctx,
		s.forUpdate(`SELECT `+convocationColumns+` FROM convocations WHERE id = $1`), uuid.UUID(convocationID))
	c, err := scanConvocation(row)
	if err != nil {
		return nil, readErr(err, "find convocation")
	}
	if err := s.loadConvocationParties(ctx, []*cmodels.Convocation{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ConvocationHasPromises(ctx context.Context, convocationID id.ConvocationID) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM promises WHERE convocation_id = $1)`, uuid.UUID(convocationID))
}

// ListConvocations keeps convocations containing any of filter.PartyIDs.
func (s *Store) ListConvocations(ctx context.Context, filter cmodels.ConvocationFilter) ([]*cmodels.Convocation, error) {
	var (
		where []string
		args  []any
	)
	if filter.NameContains != "" {
		args = append(args, containsPattern(filter.NameContains))
		where = append(where, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(filter.PartyIDs) > 0 {
		args = append(args, pq.Array(uuidStrings(filter.PartyIDs)))
		where = append(where, fmt.Sprintf(
			"id IN (SELECT convocation_id FROM convocation_parties WHERE party_id = ANY($%d))", len(args)))
	}
	query := `SELECT ` + convocationColumns + ` FROM convocations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list convocations: %w", err)
	}
	var out []*cmodels.Convocation
	for rows.Next() {
		c, err := scanConvocation(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan convocation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.loadConvocationParties(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) loadConvocationParties(ctx context.Context, convocations []*cmodels.Convocation) error {
	if len(convocations) == 0 {
		return nil
	}
	byID := make(map[id.ConvocationID]*cmodels.Convocation, len(convocations))
	ids := make([]string, 0, len(convocations))
	for _, c := range convocations {
		byID[c.ID] = c
		ids = append(ids, c.ID.String())
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT convocation_id, party_id FROM convocation_parties
		WHERE convocation_id = ANY($1)
		ORDER BY party_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load convocation parties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var convocationID, partyID uuid.UUID
		if err := rows.Scan(&convocationID, &partyID); err != nil {
			return fmt.Errorf("scan convocation party: %w", err)
		}
		if c, ok := byID[id.ConvocationID(convocationID)]; ok {
			c.PartyIDs = append(c.PartyIDs, id.PartyID(partyID))
		}
	}
	return rows.Err()
}

func scanConvocation(row scanner) (*cmodels.Convocation, error) {
	var (
		c             cmodels.Convocation
		convocationID uuid.UUID
		end           sql.NullTime
		createdBy     uuid.NullUUID
		updatedBy     uuid.NullUUID
	)
	if err := row.Scan(&convocationID, &c.Name, &c.StartDate, &end,
		&createdBy, &updatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.ConvocationID(convocationID)
	c.StartDate = id.Day(c.StartDate)
	c.EndDate = fromNullDate(end)
	c.CreatedBy = fromUserRef(createdBy)
	c.UpdatedBy = fromUserRef(updatedBy)
	return &c, nil
}

func uuidStrings[T interface{ String() string }](ids []T) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		out = append(out, v.String())
	}
	return out
}
