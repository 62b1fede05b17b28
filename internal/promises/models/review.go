// Package models holds promises, their results and the review state machine
// both share.
package models

import (
	"time"

	id "promisetracker/pkg/domain"
)

// ReviewStatus is one-way: PENDING moves to APPROVED or REJECTED and stays.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

func (s ReviewStatus) String() string { return string(s) }

// Review is the moderation state embedded by Promise and Result.
// ReviewDate is set exactly when Status is not PENDING.
type Review struct {
	Status   ReviewStatus
	Date     *time.Time
	Reviewer *id.UserID
}

func (r Review) IsReviewed() bool { return r.Status != ReviewPending }
func (r Review) IsApproved() bool { return r.Status == ReviewApproved }
func (r Review) IsRejected() bool { return r.Status == ReviewRejected }
func (r Review) IsConsistent() bool {
	return r.Status.IsValid() && (r.Status == ReviewPending) == (r.Date == nil)
}

// CanEvaluate reports whether the record may still be moved out of PENDING.
func (r Review) CanEvaluate() bool {
	return r.Status == ReviewPending
}

// ApplyEvaluation moves the review to a terminal status and stamps it.
func (r *Review) ApplyEvaluation(status ReviewStatus, reviewer id.UserID, now time.Time) {
	r.Status = status
	r.Date = &now
	r.Reviewer = &reviewer
}

// Audit carries the creator/editor stamps.
type Audit struct {
	CreatedBy *id.UserID
	UpdatedBy *id.UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Audit) Stamp(actor *id.UserID, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
		a.CreatedBy = actor
	}
	a.UpdatedAt = now
	a.UpdatedBy = actor
}
