package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
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
	UserNotFoundMessage        = "User not found."
	UserEmailTakenMessage      = "A user with this email already exists."
	UserAlreadyVerifiedMessage = "User is already verified."
	VerificationFailedMessage  = "Verification failed! Invalid code!"
	UserAlreadyBannedMessage   = "User is already banned."
	UserNotBannedMessage       = "User is not banned."
	EmailDelaySecondsMessage   = "Please wait a few seconds before requesting another verification email."

	anonymisedLength = 10
)

// EmailDelayMessage renders the resend cooldown for the remaining wait.
func EmailDelayMessage(wait time.Duration) string {
	minutes := int(math.Round(wait.Seconds() / 60))
	switch minutes {
	case 0:
		return EmailDelaySecondsMessage
	case 1:
		return "Please wait 1 minute before requesting another verification email."
	default:
		return fmt.Sprintf("Please wait %d minutes before requesting another verification email.", minutes)
	}
}

type UserService struct {
	deps
	dispatcher Dispatcher
}

func NewUserService(runner Runner, dispatcher Dispatcher, opts ...Option) *UserService {
	return &UserService{
		deps:       newDeps(runner, opts),
		dispatcher: dispatcher,
	}
}

// pendingEmail is a verification email to send once the transaction commits.
type pendingEmail struct {
	email string
	code  string
}

func (s *UserService) issueCode(user *models.User, now time.Time) (*pendingEmail, error) {
	code, err := secrets.VerificationCode(s.settings.CodeLength)
	if err != nil {
		return nil, err
	}
	expires := now.Add(s.settings.CodeExpiry)
	sent := now
	user.VerificationCode = code
	user.VerificationCodeExpiresAt = &expires
	user.VerificationEmailSentAt = &sent
	return &pendingEmail{email: user.Email, code: code}, nil
}

func (s *UserService) dispatch(ctx context.Context, pending *pendingEmail) {
	if pending == nil || s.dispatcher == nil {
		return
	}
	outcome := "sent"
	if err := s.dispatcher.SendVerificationEmail(ctx, pending.email, pending.code); err != nil {
		outcome = "failed"
		s.logger.ErrorContext(ctx, "failed to dispatch verification email",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.IncVerificationEmail(outcome)
	}
}

func checkCanCreateAdmin(actor access.Actor, isAdmin bool) error {
	if isAdmin && !actor.IsAdmin() {
		return dErrors.PermissionViolation()
	}
	return nil
}

// checkCanManage applies the owner-or-admin, not-deleted and active rules
// shared by every per-user operation.
func checkCanManage(actor access.Actor, user *models.User) error {
	if !actor.IsAdmin() && actor.UserID() != user.ID {
		return dErrors.PermissionViolation()
	}
	if user.IsDeleted {
		return dErrors.NotFound(UserNotFoundMessage)
	}
	if !actor.IsAdmin() && !user.IsActive {
		return dErrors.PermissionViolation()
	}
	return nil
}

func (s *UserService) findUser(ctx context.Context, store Store, userID id.UserID) (*models.User, error) {
	user, err := store.FindUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, UserNotFoundMessage)
	}
	return user, nil
}

func emailConflict(err error) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Application(UserEmailTakenMessage)
	}
	return err
}

// Create registers an account. Guests may register themselves; only
// administrators may create administrators.
func (s *UserService) Create(ctx context.Context, actor access.Actor, in models.CreateUserInput) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Create")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkCanCreateAdmin(actor, in.IsAdmin); err != nil {
		s.logger.WarnContext(ctx, "non-admin attempted to create an administrator",
			"actor_role", actor.Role(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}
	if err := validatePasswords(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}
	hash, err := secrets.HashPassword(in.Password)
	if err != nil {
		return nil, internal(err, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           id.NewUserID(),
		Name:         in.Name,
		Surname:      in.Surname,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	pending, err := s.issueCode(user, now)
	if err != nil {
		return nil, internal(err, "failed to generate verification code")
	}

	err = s.tx.RunInTx(ctx, func(store Store) error {
		return store.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, internal(emailConflict(err), "failed to create user")
	}

	s.dispatch(ctx, pending)
	if s.metrics != nil {
		s.metrics.IncUsersCreated()
	}
	s.emit(ctx, audit.EventUserCreated, user.ID, actor.UserID())
	s.logger.InfoContext(ctx, "user created",
		"user_id", user.ID.String(),
		"is_admin", user.IsAdmin,
		"request_id", requestcontext.RequestID(ctx),
	)
	return user, nil
}

// Edit updates the profile. A changed email resets verification and sends a
// fresh code; a blank password keeps the current one.
func (s *UserService) Edit(ctx context.Context, actor access.Actor, userID id.UserID, in models.EditUserInput) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Edit")
	defer span.End()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkCanCreateAdmin(actor, in.IsAdmin); err != nil {
		return nil, err
	}
	if err := validatePasswords(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}
	var hash string
	if strings.TrimSpace(in.Password) != "" {
		var err error
		if hash, err = secrets.HashPassword(in.Password); err != nil {
			return nil, internal(err, "failed to hash password")
		}
	}

	var (
		updated *models.User
		pending *pendingEmail
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		user, err := s.findUser(ctx, store, userID)
		if err != nil {
			return err
		}
		if err := checkCanManage(actor, user); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		user.Name = in.Name
		user.Surname = in.Surname
		user.Username = in.Username
		user.IsAdmin = in.IsAdmin
		if hash != "" {
			user.PasswordHash = hash
		}
		if user.Email != in.Email {
			user.Email = in.Email
			user.IsVerified = false
			if pending, err = s.issueCode(user, now); err != nil {
				return err
			}
		}
		user.UpdatedAt = now
		if err := store.UpdateUser(ctx, user); err != nil {
			return emailConflict(err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to edit user")
	}

	s.dispatch(ctx, pending)
	s.emit(ctx, audit.EventUserEdited, updated.ID, actor.UserID())
	s.logger.InfoContext(ctx, "user edited",
		"user_id", updated.ID.String(),
		"email_changed", pending != nil,
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// Delete soft-deletes the account, overwriting personal data with random values.
func (s *UserService) Delete(ctx context.Context, actor access.Actor, userID id.UserID) error {
	ctx, span := s.tracer.Start(ctx, "users.Delete")
	defer span.End()

	err := s.tx.RunInTx(ctx, func(store Store) error {
		user, err := s.findUser(ctx, store, userID)
		if err != nil {
			return err
		}
		if err := checkCanManage(actor, user); err != nil {
			return err
		}
		if err := anonymise(user); err != nil {
			return err
		}
		user.IsDeleted = true
		user.UpdatedAt = requestcontext.Now(ctx)
		return store.UpdateUser(ctx, user)
	})
	if err != nil {
		return internal(err, "failed to delete user")
	}

	s.emit(ctx, audit.EventUserDeleted, userID, actor.UserID())
	s.logger.InfoContext(ctx, "user soft-deleted",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func anonymise(user *models.User) error {
	fields := []*string{&user.Name, &user.Surname, &user.Username}
	for _, f := range fields {
		value, err := secrets.RandomString(anonymisedLength)
		if err != nil {
			return err
		}
		*f = value
	}
	local, err := secrets.RandomString(anonymisedLength)
	if err != nil {
		return err
	}
	domain, err := secrets.RandomString(anonymisedLength)
	if err != nil {
		return err
	}
	user.Email = strings.ToLower(local + "@" + domain + ".com")
	user.VerificationCode = ""
	user.VerificationCodeExpiresAt = nil
	return nil
}

// ResendVerification issues a new code unless the cooldown since the last
// email is still running or the user is already verified.
func (s *UserService) ResendVerification(ctx context.Context, actor access.Actor, userID id.UserID) error {
	ctx, span := s.tracer.Start(ctx, "users.ResendVerification")
	defer span.End()

	var pending *pendingEmail
	err := s.tx.RunInTx(ctx, func(store Store) error {
		user, err := s.findUser(ctx, store, userID)
		if err != nil {
			return err
		}
		if err := checkCanManage(actor, user); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if user.VerificationEmailSentAt != nil {
			if next := user.NextSendAllowedAt(s.settings.ResendDelay); now.Before(next) {
				return dErrors.Application(EmailDelayMessage(next.Sub(now)))
			}
		}
		if user.IsVerified {
			return dErrors.Application(UserAlreadyVerifiedMessage)
		}
		if pending, err = s.issueCode(user, now); err != nil {
			return err
		}
		user.UpdatedAt = now
		return store.UpdateUser(ctx, user)
	})
	if err != nil {
		return internal(err, "failed to resend verification email")
	}

	s.dispatch(ctx, pending)
	s.logger.InfoContext(ctx, "verification email resent",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Verify marks the email verified when code matches and has not expired.
func (s *UserService) Verify(ctx context.Context, actor access.Actor, userID id.UserID, code string) error {
	ctx, span := s.tracer.Start(ctx, "users.Verify")
	defer span.End()

	code = strings.TrimSpace(code)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		user, err := s.findUser(ctx, store, userID)
		if err != nil {
			return err
		}
		if err := checkCanManage(actor, user); err != nil {
			return err
		}
		if user.IsVerified {
			return dErrors.Application(UserAlreadyVerifiedMessage)
		}
		now := requestcontext.Now(ctx)
		if user.VerificationCode == "" ||
			user.VerificationCode != code ||
			user.VerificationCodeExpiresAt == nil ||
			now.After(*user.VerificationCodeExpiresAt) {
			return dErrors.Application(VerificationFailedMessage)
		}
		user.IsVerified = true
		user.UpdatedAt = now
		return store.UpdateUser(ctx, user)
	})
	if err != nil {
		return internal(err, "failed to verify user")
	}

	s.emit(ctx, audit.EventUserVerified, userID, actor.UserID())
	s.logger.InfoContext(ctx, "user verified",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Moderate bans or unbans an account. Administrators only.
func (s *UserService) Moderate(ctx context.Context, actor access.Actor, userID id.UserID, action models.ModerationAction) error {
	ctx, span := s.tracer.Start(ctx, "users.Moderate")
	defer span.End()

	if !actor.IsAdmin() {
		return dErrors.PermissionViolation()
	}
	if action != models.ActionBan && action != models.ActionUnban {
		return dErrors.New(dErrors.CodeValidation, "action must be BAN or UNBAN")
	}

	err := s.tx.RunInTx(ctx, func(store Store) error {
		user, err := s.findUser(ctx, store, userID)
		if err != nil {
			return err
		}
		if user.IsDeleted {
			return dErrors.NotFound(UserNotFoundMessage)
		}
		switch action {
		case models.ActionBan:
			if !user.IsActive {
				return dErrors.Application(UserAlreadyBannedMessage)
			}
			user.IsActive = false
		case models.ActionUnban:
			if user.IsActive {
				return dErrors.Application(UserNotBannedMessage)
			}
			user.IsActive = true
		}
		user.UpdatedAt = requestcontext.Now(ctx)
		return store.UpdateUser(ctx, user)
	})
	if err != nil {
		return internal(err, "failed to moderate user")
	}

	event := audit.EventUserBanned
	if action == models.ActionUnban {
		event = audit.EventUserUnbanned
	}
	s.emit(ctx, event, userID, actor.UserID())
	s.logger.InfoContext(ctx, "moderation action performed",
		"user_id", userID.String(),
		"action", action,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
