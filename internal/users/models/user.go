package models

import (
	"strings"
	"time"

	id "promisetracker/pkg/domain"
)

// User is an account. Deleted users stay as anonymised rows.
type User struct {
	ID                        id.UserID
	Name                      string
	Surname                   string
	Email                     string
	Username                  string
	PasswordHash              string
	IsAdmin                   bool
	IsActive                  bool
	IsVerified                bool
	IsDeleted                 bool
	VerificationCode          string
	VerificationCodeExpiresAt *time.Time
	VerificationEmailSentAt   *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CodeExpired reports whether the current verification code has lapsed.
func (u *User) CodeExpired(now time.Time) bool {
	return u.VerificationCodeExpiresAt == nil || !now.Before(*u.VerificationCodeExpiresAt)
}

// NextSendAllowedAt is when another verification email may be sent.
func (u *User) NextSendAllowedAt(delay time.Duration) time.Time {
	if u.VerificationEmailSentAt == nil {
		return time.Time{}
	}
	return u.VerificationEmailSentAt.Add(delay)
}

// ModerationAction is BAN or UNBAN.
type ModerationAction string

const (
	ActionBan   ModerationAction = "BAN"
	ActionUnban ModerationAction = "UNBAN"
)

// UserFilter narrows the administrator user list.
type UserFilter struct {
	Search     string
	IsAdmin    *bool
	IsActive   *bool
	IsVerified *bool
	IsDeleted  *bool
}

// Matches reports whether user passes every set field of f. Search matches
// name, surname, email or username case-insensitively.
func (f UserFilter) Matches(user *User) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		found := false
		for _, v := range []string{user.Name, user.Surname, user.Email, user.Username} {
			if strings.Contains(strings.ToLower(v), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, c := range []struct {
		want *bool
		got  bool
	}{
		{f.IsAdmin, user.IsAdmin},
		{f.IsActive, user.IsActive},
		{f.IsVerified, user.IsVerified},
		{f.IsDeleted, user.IsDeleted},
	} {
		if c.want != nil && *c.want != c.got {
			return false
		}
	}
	return true
}
