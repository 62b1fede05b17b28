package models

import (
	"time"

	id "promisetracker/pkg/domain"
)

// CompletionStatus is the outcome carried by a final result.
type CompletionStatus string

const (
	StatusCompleted CompletionStatus = "COMPLETED"
	StatusAbandoned CompletionStatus = "ABANDONED"
)

func (s CompletionStatus) IsValid() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type Result struct {
	ID          id.ResultID
	PromiseID   id.PromiseID
	Name        string
	Description string
	Sources     []string
	Date        time.Time
	IsFinal     bool
	Status      *CompletionStatus
	Review      Review
	Audit
}

// IsApprovedFinal reports whether this result closes its promise.
func (r *Result) IsApprovedFinal() bool {
	return r.IsFinal && r.Review.IsApproved()
}

func (r *Result) CanModify() bool {
	return !r.Review.IsReviewed()
}

// Results is the result set of one promise.
type Results []*Result

// ApprovedFinal returns the promise's final result, if one is approved.
func (rs Results) ApprovedFinal() *Result {
	for _, r := range rs {
		if r.IsApprovedFinal() {
			return r
		}
	}
	return nil
}

func (rs Results) HasApprovedFinal() bool {
	return rs.ApprovedFinal() != nil
}

// LatestApprovedDate is the latest date among approved results, or nil.
func (rs Results) LatestApprovedDate() *time.Time {
	var latest *time.Time
	for _, r := range rs {
		if !r.Review.IsApproved() {
			continue
		}
		if latest == nil || r.Date.After(*latest) {
			d := r.Date
			latest = &d
		}
	}
	return latest
}

// HasApprovedAfter reports whether some approved result is dated strictly
// after date. Equal dates do not count as later.
func (rs Results) HasApprovedAfter(date time.Time) bool {
	latest := rs.LatestApprovedDate()
	return latest != nil && latest.After(date)
}

// HasReviewed reports whether any result has left PENDING.
func (rs Results) HasReviewed() bool {
	for _, r := range rs {
		if r.Review.IsReviewed() {
			return true
		}
	}
	return false
}
