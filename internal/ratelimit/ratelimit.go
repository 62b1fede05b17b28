// Package ratelimit throttles callers per client IP with a sliding window.
// Auth endpoints (login, registration, verification) get a tight budget and
// every other mutating request a looser one. Reads are never limited.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Class groups endpoints that share a budget.
type Class string

const (
	ClassAuth  Class = "auth"
	ClassWrite Class = "write"
)

// Limit allows Requests per sliding Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was rejected.
	RetryAfter time.Duration
}

// Store records hits and answers whether another one fits into the window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	Reset(ctx context.Context, key string) error
}

// keySegment escapes the delimiter so a crafted X-Forwarded-For value cannot
// land in another bucket.
func keySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

func bucketKey(class Class, ip string) string {
	return "ratelimit:" + string(class) + ":" + keySegment(ip)
}
