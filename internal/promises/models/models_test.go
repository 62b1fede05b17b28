package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func approved(date time.Time, final bool) *Result {
	r := &Result{Date: date, IsFinal: final}
	r.Review.ApplyEvaluation(ReviewApproved, id.NewUserID(), date)
	return r
}

func TestReviewLifecycle(t *testing.T) {
	var r Review
	r.Status = ReviewPending
	assert.True(t, r.CanEvaluate())
	assert.True(t, r.IsConsistent())

	reviewer := id.NewUserID()
	now := day(2024, time.May, 1)
	r.ApplyEvaluation(ReviewRejected, reviewer, now)
	assert.False(t, r.CanEvaluate())
	assert.True(t, r.IsRejected())
	assert.True(t, r.IsConsistent())
	require.NotNil(t, r.Reviewer)
	assert.Equal(t, reviewer, *r.Reviewer)
	assert.Equal(t, now, *r.Date)

	assert.False(t, Review{Status: ReviewApproved}.IsConsistent(), "approved without a date")
	assert.False(t, ReviewStatus("MAYBE").IsValid())
}

func TestResultsRules(t *testing.T) {
	pending := &Result{Date: day(2020, time.March, 1), Review: Review{Status: ReviewPending}}
	early := approved(day(2020, time.January, 1), false)
	late := approved(day(2021, time.January, 1), false)
	final := approved(day(2021, time.June, 1), true)

	t.Run("latest approved date ignores pending", func(t *testing.T) {
		rs := Results{pending, early}
		require.NotNil(t, rs.LatestApprovedDate())
		assert.Equal(t, early.Date, *rs.LatestApprovedDate())
		assert.Nil(t, Results{pending}.LatestApprovedDate())
	})
	t.Run("equal dates are not later", func(t *testing.T) {
		rs := Results{early, late}
		assert.False(t, rs.HasApprovedAfter(late.Date))
		assert.True(t, rs.HasApprovedAfter(late.Date.AddDate(0, 0, -1)))
	})
	t.Run("approved final", func(t *testing.T) {
		assert.False(t, Results{early, late}.HasApprovedFinal())
		rs := Results{early, final}
		assert.True(t, rs.HasApprovedFinal())
		assert.Same(t, final, rs.ApprovedFinal())
	})
	t.Run("reviewed", func(t *testing.T) {
		assert.False(t, Results{pending}.HasReviewed())
		assert.True(t, Results{pending, early}.HasReviewed())
	})
}

func TestVisibility(t *testing.T) {
	owner := id.NewUserID()
	stranger := id.NewUserID()
	pending := Review{Status: ReviewPending}
	ok := Review{Status: ReviewApproved}

	tests := []struct {
		name      string
		v         Visibility
		review    Review
		createdBy *id.UserID
		want      bool
	}{
		{"guest sees approved", Visibility{Scope: ScopeApprovedOnly}, ok, &owner, true},
		{"guest misses pending", Visibility{Scope: ScopeApprovedOnly}, pending, &owner, false},
		{"user sees own pending", Visibility{Scope: ScopeApprovedOrOwn, OwnerID: owner}, pending, &owner, true},
		{"user misses others pending", Visibility{Scope: ScopeApprovedOrOwn, OwnerID: stranger}, pending, &owner, false},
		{"mine excludes others approved", Visibility{Scope: ScopeOwnOnly, OwnerID: stranger}, ok, &owner, false},
		{"mine excludes anonymous", Visibility{Scope: ScopeOwnOnly, OwnerID: owner}, ok, nil, false},
		{"admin sees all", Visibility{Scope: ScopeAll}, pending, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Allows(tt.review, tt.createdBy))
		})
	}
}

func TestPromiseInputValidate(t *testing.T) {
	valid := func() PromiseInput {
		return PromiseInput{
			Name:          " Lower taxes ",
			Description:   "Cut VAT.",
			Sources:       []string{" https://example.com "},
			Date:          time.Date(2020, 1, 1, 13, 0, 0, 0, time.UTC),
			PartyID:       id.NewPartyID(),
			ConvocationID: id.NewConvocationID(),
		}
	}

	in := valid()
	in.Normalize()
	require.NoError(t, in.Validate())
	assert.Equal(t, "Lower taxes", in.Name)
	assert.Equal(t, []string{"https://example.com"}, in.Sources)
	assert.Equal(t, day(2020, time.January, 1), in.Date)

	tests := []struct {
		name   string
		mutate func(*PromiseInput)
		msg    string
	}{
		{"long name wins over missing description", func(in *PromiseInput) {
			in.Name = strings.Repeat("a", MaxNameLength+1)
			in.Description = ""
		}, "name must be 255 characters or less"},
		{"no sources", func(in *PromiseInput) { in.Sources = nil }, "Sources list is not valid."},
		{"no party", func(in *PromiseInput) { in.PartyID = id.PartyID{} }, "party is required"},
		{"no date", func(in *PromiseInput) { in.Date = time.Time{} }, "date is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := in.Validate()
			de, ok := dErrors.As(err)
			require.True(t, ok)
			assert.Equal(t, dErrors.CodeValidation, de.Code)
			assert.Equal(t, tt.msg, de.Message)
		})
	}
}

func TestResultInputNormalizeDropsEmptyStatus(t *testing.T) {
	empty := CompletionStatus("")
	in := ResultInput{
		PromiseID:   id.NewPromiseID(),
		Name:        "n",
		Description: "d",
		Sources:     []string{"s"},
		Date:        day(2021, time.January, 1),
		Status:      &empty,
	}
	in.Normalize()
	assert.Nil(t, in.Status)
	assert.NoError(t, in.Validate())

	bogus := CompletionStatus("DONE")
	in.Status = &bogus
	assert.Error(t, in.Validate())
}
