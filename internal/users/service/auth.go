package service

import (
	"context"
	"errors"
	"time"

	"promisetracker/internal/access"
	"promisetracker/internal/users/models"
	"promisetracker/internal/users/secrets"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	audit "promisetracker/pkg/platform/audit"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/requestcontext"
)

const (
	IncorrectCredentialsMessage = "Incorrect email or password."
	UserDeletedMessage          = "User has been deleted."
	UserInactiveMessage         = "User account is inactive."
)

// LoginResult is an issued access token and the authenticated user.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *models.User
}

type AuthService struct {
	deps
	users    *UserService
	issuer   TokenIssuer
	tokenTTL time.Duration
}

func NewAuthService(runner Runner, users *UserService, issuer TokenIssuer, tokenTTL time.Duration, opts ...Option) *AuthService {
	return &AuthService{
		deps:     newDeps(runner, opts),
		users:    users,
		issuer:   issuer,
		tokenTTL: tokenTTL,
	}
}

// Login checks the credentials and issues an access token. An unverified user
// whose code has lapsed gets a fresh one; failure to resend does not fail the
// login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "users.Login")
	defer span.End()

	email = models.NormalizeEmail(email)
	var user *models.User
	err := s.tx.RunInTx(ctx, func(store Store) error {
		found, err := store.FindUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, internal(err, "failed to load user")
	}
	if user == nil || !secrets.VerifyPassword(password, user.PasswordHash) {
		var subject id.UserID
		if user != nil {
			subject = user.ID
		}
		s.loginFailed(ctx, subject, "bad_credentials")
		return nil, dErrors.New(dErrors.CodeUnauthorized, IncorrectCredentialsMessage)
	}
	if user.IsDeleted {
		s.loginFailed(ctx, user.ID, "deleted")
		return nil, dErrors.Application(UserDeletedMessage)
	}
	if !user.IsActive {
		s.loginFailed(ctx, user.ID, "inactive")
		return nil, dErrors.New(dErrors.CodeUnauthorized, UserInactiveMessage)
	}

	token, expiresAt, err := s.issuer.GenerateAccessToken(user.ID, s.tokenTTL)
	if err != nil {
		return nil, internal(err, "failed to issue access token")
	}

	now := requestcontext.Now(ctx)
	if !user.IsVerified && user.CodeExpired(now) && s.users != nil {
		self := access.RegisteredUser(user.ID, false)
		if err := s.users.ResendVerification(ctx, self, user.ID); err != nil {
			s.logger.WarnContext(ctx, "could not resend verification code on login",
				"user_id", user.ID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	if s.metrics != nil {
		s.metrics.IncLogin("success")
	}
	s.emit(ctx, audit.EventTokenIssued, user.ID, user.ID)
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, subject id.UserID, reason string) {
	if s.metrics != nil {
		s.metrics.IncLogin("failure")
	}
	if s.auditor != nil {
		event := audit.Event{
			Action:      string(audit.EventAuthFailed),
			SubjectType: "user",
			Subject:     subject.String(),
			Reason:      reason,
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
		}
	}
	s.logger.WarnContext(ctx, "failed login attempt",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
}
