package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pmodels "promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
)

// FinalResultCounts tallies approved final results of approved promises by
// party, ordered by party name.
func (s *Store) FinalResultCounts(ctx context.Context, partyID *id.PartyID) ([]pmodels.AnalyticsRecord, error) {
	var w whereBuilder
	w.raw("p.review_status = 'APPROVED'")
	w.raw("r.is_final AND r.review_status = 'APPROVED'")
	if partyID != nil {
		w.add("pp.id = $%d", uuid.UUID(*partyID))
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT pp.id, pp.name,
			COUNT(*) FILTER (WHERE r.status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE r.status = 'ABANDONED')
		FROM promise_results r
		JOIN promises p ON p.id = r.promise_id
		JOIN political_parties pp ON pp.id = p.party_id`+
		w.clause()+`
		GROUP BY pp.id, pp.name
		ORDER BY pp.name`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("count final results: %w", err)
	}
	defer rows.Close()

	out := make([]pmodels.AnalyticsRecord, 0)
	for rows.Next() {
		var (
			rec     pmodels.AnalyticsRecord
			partyID uuid.UUID
		)
		if err := rows.Scan(&partyID, &rec.Name, &rec.CompletedCount, &rec.UncompletedCount); err != nil {
			return nil, fmt.Errorf("scan analytics record: %w", err)
		}
		rec.ID = id.PartyID(partyID)
		out = append(out, rec)
	}
	return out, rows.Err()
}
