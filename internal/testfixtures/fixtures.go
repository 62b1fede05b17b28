// Package testfixtures builds valid domain records for tests. Every builder
// returns a record that passes service validation; options tweak one field.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	cmodels "promisetracker/internal/classifiers/models"
	pmodels "promisetracker/internal/promises/models"
	umodels "promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
)

// Epoch anchors fixture dates so tests are independent of the wall clock.
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// User

type UserOption func(*umodels.User)

func User(opts ...UserOption) *umodels.User {
	n := next()
	u := &umodels.User{
		ID:         id.NewUserID(),
		Name:       "Test",
		Surname:    fmt.Sprintf("User%d", n),
		Email:      fmt.Sprintf("user%d@example.com", n),
		Username:   fmt.Sprintf("user%d", n),
		IsActive:   true,
		IsVerified: true,
		CreatedAt:  Epoch.Add(time.Duration(n) * time.Second),
		UpdatedAt:  Epoch.Add(time.Duration(n) * time.Second),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func AsAdmin() UserOption    { return func(u *umodels.User) { u.IsAdmin = true } }
func Unverified() UserOption { return func(u *umodels.User) { u.IsVerified = false } }
func Banned() UserOption     { return func(u *umodels.User) { u.IsActive = false } }
func Deleted() UserOption    { return func(u *umodels.User) { u.IsDeleted = true } }
func WithEmail(email string) UserOption {
	return func(u *umodels.User) { u.Email = email }
}
func WithPasswordHash(hash string) UserOption {
	return func(u *umodels.User) { u.PasswordHash = hash }
}

// Classifiers

type PartyOption func(*cmodels.PoliticalParty)

func Party(opts ...PartyOption) *cmodels.PoliticalParty {
	n := next()
	p := &cmodels.PoliticalParty{
		ID:              id.NewPartyID(),
		Name:            fmt.Sprintf("Party %d", n),
		EstablishedDate: Date(2000, time.January, 1),
	}
	p.CreatedAt = Epoch.Add(time.Duration(n) * time.Second)
	p.UpdatedAt = p.CreatedAt
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func PartyName(name string) PartyOption {
	return func(p *cmodels.PoliticalParty) { p.Name = name }
}

func Established(date time.Time) PartyOption {
	return func(p *cmodels.PoliticalParty) { p.EstablishedDate = date }
}

func Liquidated(date time.Time) PartyOption {
	return func(p *cmodels.PoliticalParty) { p.LiquidatedDate = &date }
}

type ConvocationOption func(*cmodels.Convocation)

// Convocation elects parties for a term starting 2010-01-01 and ending
// 2014-01-01.
func Convocation(parties []*cmodels.PoliticalParty, opts ...ConvocationOption) *cmodels.Convocation {
	n := next()
	end := Date(2014, time.January, 1)
	c := &cmodels.Convocation{
		ID:        id.NewConvocationID(),
		Name:      fmt.Sprintf("Convocation %d", n),
		StartDate: Date(2010, time.January, 1),
		EndDate:   &end,
	}
	for _, p := range parties {
		c.PartyIDs = append(c.PartyIDs, p.ID)
	}
	c.CreatedAt = Epoch.Add(time.Duration(n) * time.Second)
	c.UpdatedAt = c.CreatedAt
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Term(start time.Time, end *time.Time) ConvocationOption {
	return func(c *cmodels.Convocation) {
		c.StartDate = start
		c.EndDate = end
	}
}

// Promises

type PromiseOption func(*pmodels.Promise)

// Promise is pending and dated 2011-06-01, inside the default term.
func Promise(party *cmodels.PoliticalParty, convocation *cmodels.Convocation, opts ...PromiseOption) *pmodels.Promise {
	n := next()
	p := &pmodels.Promise{
		ID:            id.NewPromiseID(),
		Name:          fmt.Sprintf("Promise %d", n),
		Description:   "Build more schools.",
		Sources:       []string{"https://example.com/manifesto"},
		Date:          Date(2011, time.June, 1),
		PartyID:       party.ID,
		ConvocationID: convocation.ID,
		Review:        pmodels.Review{Status: pmodels.ReviewPending},
	}
	p.CreatedAt = Epoch.Add(time.Duration(n) * time.Second)
	p.UpdatedAt = p.CreatedAt
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func PromiseName(name string) PromiseOption {
	return func(p *pmodels.Promise) { p.Name = name }
}

func PromiseDate(date time.Time) PromiseOption {
	return func(p *pmodels.Promise) { p.Date = date }
}

func PromiseBy(userID id.UserID) PromiseOption {
	return func(p *pmodels.Promise) {
		p.CreatedBy = &userID
		p.UpdatedBy = &userID
	}
}

func PromiseReviewed(status pmodels.ReviewStatus) PromiseOption {
	return func(p *pmodels.Promise) { p.Review = reviewed(status) }
}

type ResultOption func(*pmodels.Result)

// Result is a pending, non-final result dated 2012-06-01.
func Result(promise *pmodels.Promise, opts ...ResultOption) *pmodels.Result {
	n := next()
	r := &pmodels.Result{
		ID:          id.NewResultID(),
		PromiseID:   promise.ID,
		Name:        fmt.Sprintf("Result %d", n),
		Description: "Two schools opened.",
		Sources:     []string{"https://example.com/news"},
		Date:        Date(2012, time.June, 1),
		Review:      pmodels.Review{Status: pmodels.ReviewPending},
	}
	r.CreatedAt = Epoch.Add(time.Duration(n) * time.Second)
	r.UpdatedAt = r.CreatedAt
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func ResultDate(date time.Time) ResultOption {
	return func(r *pmodels.Result) { r.Date = date }
}

func ResultBy(userID id.UserID) ResultOption {
	return func(r *pmodels.Result) {
		r.CreatedBy = &userID
		r.UpdatedBy = &userID
	}
}

func Final(status pmodels.CompletionStatus) ResultOption {
	return func(r *pmodels.Result) {
		r.IsFinal = true
		r.Status = &status
	}
}

func ResultReviewed(status pmodels.ReviewStatus) ResultOption {
	return func(r *pmodels.Result) { r.Review = reviewed(status) }
}

func reviewed(status pmodels.ReviewStatus) pmodels.Review {
	if status == pmodels.ReviewPending {
		return pmodels.Review{Status: status}
	}
	at := Date(2015, time.January, 1)
	reviewer := id.NewUserID()
	return pmodels.Review{Status: status, Date: &at, Reviewer: &reviewer}
}
