package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"promisetracker/internal/access"
	"promisetracker/internal/users/models"
	"promisetracker/internal/users/secrets"
	"promisetracker/internal/users/service/mocks"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/sentinel"
	"promisetracker/pkg/requestcontext"
)

// directRunner runs fn against the mock store without a real transaction.
type directRunner struct {
	store Store
}

func (r directRunner) RunInTx(_ context.Context, fn func(Store) error) error {
	return fn(r.store)
}

type UserServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	store      *mocks.MockStore
	dispatcher *mocks.MockDispatcher
	service    *UserService
	now        time.Time
	ctx        context.Context
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.dispatcher = mocks.NewMockDispatcher(s.ctrl)
	s.service = NewUserService(directRunner{store: s.store}, s.dispatcher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *UserServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func validCreateInput() models.CreateUserInput {
	return models.CreateUserInput{
		Name:            "Jane",
		Surname:         "Doe",
		Email:           "  Jane@Example.com ",
		Username:        "jane",
		Password:        "s3cure-passphrase",
		PasswordConfirm: "s3cure-passphrase",
	}
}

func (s *UserServiceSuite) existingUser() *models.User {
	sent := s.now.Add(-time.Hour)
	expires := s.now.Add(-50 * time.Minute)
	return &models.User{
		ID:                        id.NewUserID(),
		Name:                      "Jane",
		Surname:                   "Doe",
		Email:                     "jane@example.com",
		Username:                  "jane",
		IsActive:                  true,
		VerificationCode:          "123456",
		VerificationCodeExpiresAt: &expires,
		VerificationEmailSentAt:   &sent,
	}
}

func (s *UserServiceSuite) assertCode(err error, code dErrors.Code, msg string) {
	s.T().Helper()
	s.Require().Error(err)
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(code, de.Code)
	if msg != "" {
		s.Equal(msg, de.Message)
	}
}

func (s *UserServiceSuite) TestCreate() {
	s.Run("guest registers and receives a verification code", func() {
		var sentCode string
		s.store.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)
		s.dispatcher.EXPECT().SendVerificationEmail(gomock.Any(), "jane@example.com", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, code string) error {
				sentCode = code
				return nil
			})

		user, err := s.service.Create(s.ctx, access.Guest(), validCreateInput())
		s.Require().NoError(err)

		s.Equal("jane@example.com", user.Email)
		s.True(user.IsActive)
		s.False(user.IsVerified)
		s.False(user.IsAdmin)
		s.True(secrets.VerifyPassword("s3cure-passphrase", user.PasswordHash))
		s.Len(user.VerificationCode, 6)
		s.Equal(user.VerificationCode, sentCode)
		s.Require().NotNil(user.VerificationCodeExpiresAt)
		s.Equal(s.now.Add(10*time.Minute), *user.VerificationCodeExpiresAt)
	})

	s.Run("non-admin cannot create an administrator", func() {
		in := validCreateInput()
		in.IsAdmin = true

		_, err := s.service.Create(s.ctx, access.RegisteredUser(id.NewUserID(), true), in)
		s.assertCode(err, dErrors.CodePermissionViolation, dErrors.PermissionViolationMessage)
	})

	s.Run("administrator can create an administrator", func() {
		in := validCreateInput()
		in.IsAdmin = true
		s.store.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)
		s.dispatcher.EXPECT().SendVerificationEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		user, err := s.service.Create(s.ctx, access.Administrator(id.NewUserID(), true), in)
		s.Require().NoError(err)
		s.True(user.IsAdmin)
	})

	s.Run("duplicate email", func() {
		s.store.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := s.service.Create(s.ctx, access.Guest(), validCreateInput())
		s.assertCode(err, dErrors.CodeApplication, UserEmailTakenMessage)
	})

	s.Run("dispatch failure does not fail registration", func() {
		s.store.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)
		s.dispatcher.EXPECT().SendVerificationEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(assert.AnError)

		_, err := s.service.Create(s.ctx, access.Guest(), validCreateInput())
		s.NoError(err)
	})
}

func (s *UserServiceSuite) TestCreate_PasswordRules() {
	cases := []struct {
		name     string
		password string
		confirm  string
		message  string
	}{
		{"too short", "abc12", "abc12", PasswordTooShortMessage},
		{"entirely numeric", "9876543210", "9876543210", PasswordNumericMessage},
		{"too common", "password123", "password123", PasswordTooCommonMessage},
		{"confirmation mismatch", "s3cure-passphrase", "s3cure-passphrasf", PasswordsDontMatchMessage},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			in := validCreateInput()
			in.Password = tc.password
			in.PasswordConfirm = tc.confirm

			_, err := s.service.Create(s.ctx, access.Guest(), in)
			s.assertCode(err, dErrors.CodeApplication, tc.message)
		})
	}
}

func (s *UserServiceSuite) TestEdit() {
	s.Run("registered user cannot edit someone else", func() {
		user := s.existingUser()
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		_, err := s.service.Edit(s.ctx, access.RegisteredUser(id.NewUserID(), true), user.ID, models.EditUserInput{
			Name: "X", Surname: "Y", Email: user.Email, Username: "z",
		})
		s.assertCode(err, dErrors.CodePermissionViolation, "")
	})

	s.Run("inactive user cannot edit themselves", func() {
		user := s.existingUser()
		user.IsActive = false
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		_, err := s.service.Edit(s.ctx, access.RegisteredUser(user.ID, true), user.ID, models.EditUserInput{
			Name: "X", Surname: "Y", Email: user.Email, Username: "z",
		})
		s.assertCode(err, dErrors.CodePermissionViolation, "")
	})

	s.Run("deleted user is not found", func() {
		user := s.existingUser()
		user.IsDeleted = true
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		_, err := s.service.Edit(s.ctx, access.Administrator(id.NewUserID(), true), user.ID, models.EditUserInput{
			Name: "X", Surname: "Y", Email: user.Email, Username: "z",
		})
		s.assertCode(err, dErrors.CodeNotFound, UserNotFoundMessage)
	})

	s.Run("missing user", func() {
		missing := id.NewUserID()
		s.store.EXPECT().FindUser(gomock.Any(), missing).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Edit(s.ctx, access.Administrator(id.NewUserID(), true), missing, models.EditUserInput{
			Name: "X", Surname: "Y", Email: "x@example.com", Username: "z",
		})
		s.assertCode(err, dErrors.CodeNotFound, UserNotFoundMessage)
	})

	s.Run("email change resets verification and sends a new code", func() {
		user := s.existingUser()
		user.IsVerified = true
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)
		s.store.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil)
		s.dispatcher.EXPECT().SendVerificationEmail(gomock.Any(), "new@example.com", gomock.Any()).Return(nil)

		updated, err := s.service.Edit(s.ctx, access.RegisteredUser(user.ID, true), user.ID, models.EditUserInput{
			Name: "Janet", Surname: "Doe", Email: "New@Example.com", Username: "janet",
		})
		s.Require().NoError(err)
		s.Equal("Janet", updated.Name)
		s.Equal("new@example.com", updated.Email)
		s.False(updated.IsVerified)
		s.NotEqual("123456", updated.VerificationCode)
	})

	s.Run("blank password keeps the current hash", func() {
		user := s.existingUser()
		user.PasswordHash = "existing-hash"
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)
		s.store.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil)

		updated, err := s.service.Edit(s.ctx, access.RegisteredUser(user.ID, true), user.ID, models.EditUserInput{
			Name: "Jane", Surname: "Doe", Email: user.Email, Username: "jane",
		})
		s.Require().NoError(err)
		s.Equal("existing-hash", updated.PasswordHash)
	})
}

func (s *UserServiceSuite) TestDelete() {
	user := s.existingUser()
	s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)
	s.store.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
		s.True(u.IsDeleted)
		s.NotEqual("Jane", u.Name)
		s.NotEqual("jane@example.com", u.Email)
		s.Contains(u.Email, "@")
		return nil
	})

	s.Require().NoError(s.service.Delete(s.ctx, access.RegisteredUser(user.ID, true), user.ID))
}

func (s *UserServiceSuite) TestResendVerification() {
	s.Run("too soon", func() {
		user := s.existingUser()
		sent := s.now.Add(-30 * time.Second)
		user.VerificationEmailSentAt = &sent
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		err := s.service.ResendVerification(s.ctx, access.RegisteredUser(user.ID, false), user.ID)
		s.assertCode(err, dErrors.CodeApplication,
			"Please wait 2 minutes before requesting another verification email.")
	})

	s.Run("already verified", func() {
		user := s.existingUser()
		user.IsVerified = true
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		err := s.service.ResendVerification(s.ctx, access.RegisteredUser(user.ID, true), user.ID)
		s.assertCode(err, dErrors.CodeApplication, UserAlreadyVerifiedMessage)
	})

	s.Run("issues a new code", func() {
		user := s.existingUser()
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)
		s.store.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil)
		s.dispatcher.EXPECT().SendVerificationEmail(gomock.Any(), user.Email, gomock.Any()).Return(nil)

		s.Require().NoError(s.service.ResendVerification(s.ctx, access.RegisteredUser(user.ID, false), user.ID))
		s.Equal(s.now, *user.VerificationEmailSentAt)
	})
}

func (s *UserServiceSuite) TestVerify() {
	s.Run("wrong code", func() {
		user := s.existingUser()
		expires := s.now.Add(5 * time.Minute)
		user.VerificationCodeExpiresAt = &expires
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		err := s.service.Verify(s.ctx, access.RegisteredUser(user.ID, false), user.ID, "000000")
		s.assertCode(err, dErrors.CodeApplication, VerificationFailedMessage)
	})

	s.Run("expired code", func() {
		user := s.existingUser()
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		err := s.service.Verify(s.ctx, access.RegisteredUser(user.ID, false), user.ID, "123456")
		s.assertCode(err, dErrors.CodeApplication, VerificationFailedMessage)
	})

	s.Run("valid code", func() {
		user := s.existingUser()
		expires := s.now.Add(5 * time.Minute)
		user.VerificationCodeExpiresAt = &expires
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)
		s.store.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil)

		s.Require().NoError(s.service.Verify(s.ctx, access.RegisteredUser(user.ID, false), user.ID, " 123456 "))
		s.True(user.IsVerified)
	})
}

func (s *UserServiceSuite) TestModerate() {
	admin := access.Administrator(id.NewUserID(), true)

	s.Run("requires administrator", func() {
		err := s.service.Moderate(s.ctx, access.RegisteredUser(id.NewUserID(), true), id.NewUserID(), models.ActionBan)
		s.assertCode(err, dErrors.CodePermissionViolation, "")
	})

	s.Run("ban then ban again", func() {
		user := s.existingUser()
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil).Times(2)
		s.store.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil)

		s.Require().NoError(s.service.Moderate(s.ctx, admin, user.ID, models.ActionBan))
		s.False(user.IsActive)

		err := s.service.Moderate(s.ctx, admin, user.ID, models.ActionBan)
		s.assertCode(err, dErrors.CodeApplication, UserAlreadyBannedMessage)
	})

	s.Run("unban an active user", func() {
		user := s.existingUser()
		s.store.EXPECT().FindUser(gomock.Any(), user.ID).Return(user, nil)

		err := s.service.Moderate(s.ctx, admin, user.ID, models.ActionUnban)
		s.assertCode(err, dErrors.CodeApplication, UserNotBannedMessage)
	})
}

func TestEmailDelayMessage(t *testing.T) {
	assert.Equal(t, EmailDelaySecondsMessage, EmailDelayMessage(20*time.Second))
	assert.Equal(t, "Please wait 1 minute before requesting another verification email.", EmailDelayMessage(70*time.Second))
	assert.Equal(t, "Please wait 2 minutes before requesting another verification email.", EmailDelayMessage(100*time.Second))
}

func TestValidatePasswords_BlankSkips(t *testing.T) {
	require.NoError(t, validatePasswords("", "anything"))
	require.NoError(t, validatePasswords("   ", ""))
}
