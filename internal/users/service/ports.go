package service

import (
	"context"
	"time"

	"promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Store is the persistence view used inside a transaction. CreateUser and
// UpdateUser return sentinel.ErrConflict when the email is taken.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, userID id.UserID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Dispatcher hands a verification code to the delivery channel.
type Dispatcher interface {
	SendVerificationEmail(ctx context.Context, email, code string) error
}

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, expiresIn time.Duration) (string, time.Time, error)
}
