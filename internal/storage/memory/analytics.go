package memory

import (
	"context"
	"sort"

	pmodels "promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
)

// FinalResultCounts tallies approved final results of approved promises by
// party, ordered by party name.
func (s *Store) FinalResultCounts(_ context.Context, partyID *id.PartyID) ([]pmodels.AnalyticsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byParty := make(map[id.PartyID]*pmodels.AnalyticsRecord)
	for _, r := range s.results {
		if !r.IsApprovedFinal() || r.Status == nil {
			continue
		}
		promise, ok := s.promises[r.PromiseID]
		if !ok || !promise.Review.IsApproved() {
			continue
		}
		if partyID != nil && promise.PartyID != *partyID {
			continue
		}
		party, ok := s.parties[promise.PartyID]
		if !ok {
			continue
		}
		rec, ok := byParty[party.ID]
		if !ok {
			rec = &pmodels.AnalyticsRecord{Name: party.Name, ID: party.ID}
			byParty[party.ID] = rec
		}
		switch *r.Status {
		case pmodels.StatusCompleted:
			rec.CompletedCount++
		case pmodels.StatusAbandoned:
			rec.UncompletedCount++
		}
	}

	out := make([]pmodels.AnalyticsRecord, 0, len(byParty))
	for _, rec := range byParty {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}
