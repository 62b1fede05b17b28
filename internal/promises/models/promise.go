package models

import (
	"time"

	id "promisetracker/pkg/domain"
)

type Promise struct {
	ID            id.PromiseID
	Name          string
	Description   string
	Sources       []string
	Date          time.Time
	PartyID       id.PartyID
	ConvocationID id.ConvocationID
	Review        Review
	Audit
}

// CanModify reports whether edit or delete is still allowed.
func (p *Promise) CanModify() bool {
	return !p.Review.IsReviewed()
}
