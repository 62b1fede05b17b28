package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	umodels "promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
)

const userColumns = `
	id, name, surname, email, username, password_hash, is_admin, is_active,
	is_verified, is_deleted, verification_code, verification_code_expires_at,
	verification_email_sent_at, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *umodels.User) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(u.ID), u.Name, u.Surname, u.Email, u.Username, u.PasswordHash,
		u.IsAdmin, u.IsActive, u.IsVerified, u.IsDeleted, u.VerificationCode,
		nullTime(u.VerificationCodeExpiresAt), nullTime(u.VerificationEmailSentAt),
		u.CreatedAt, u.UpdatedAt,
	)
	return writeErr(err, "insert user")
}

func (s *Store) UpdateUser(ctx context.Context, u *umodels.User) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE users SET
			name = $2, surname = $3, email = $4, username = $5, password_hash = $6,
			is_admin = $7, is_active = $8, is_verified = $9, is_deleted = $10,
			verification_code = $11, verification_code_expires_at = $12,
			verification_email_sent_at = $13, updated_at = $14
		WHERE id = $1`,
		uuid.UUID(u.ID), u.Name, u.Surname, u.Email, u.Username, u.PasswordHash,
		u.IsAdmin, u.IsActive, u.IsVerified, u.IsDeleted, u.VerificationCode,
		nullTime(u.VerificationCodeExpiresAt), nullTime(u.VerificationEmailSentAt),
		u.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "update user")
	}
	return expectRow(res, "update user")
}

func (s *Store) FindUser(ctx context.Context, userID id.UserID) (*umodels.User, error) {
	row := s.q.QueryRowContext(ctx, s.forUpdate(`SELECT `+userColumns+` FROM users WHERE id = $1`), uuid.UUID(userID))
	u, err := scanUser(row)
	if err != nil {
		return nil, readErr(err, "find user")
	}
	return u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*umodels.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, readErr(err, "find user by email")
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, filter umodels.UserFilter) ([]*umodels.User, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Search != "" {
		p := arg(containsPattern(filter.Search))
		where = append(where, fmt.Sprintf(`(name ILIKE %[1]s ESCAPE '\' OR surname ILIKE %[1]s ESCAPE '\' OR email ILIKE %[1]s ESCAPE '\' OR username ILIKE %[1]s ESCAPE '\')`, p))
	}
	for col, v := range map[string]*bool{
		"is_admin":    filter.IsAdmin,
		"is_active":   filter.IsActive,
		"is_verified": filter.IsVerified,
		"is_deleted":  filter.IsDeleted,
	} {
		if v != nil {
			where = append(where, col+" = "+arg(*v))
		}
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*umodels.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row scanner) (*umodels.User, error) {
	var (
		u       umodels.User
		userID  uuid.UUID
		expires sql.NullTime
		sent    sql.NullTime
	)
	err := row.Scan(&userID, &u.Name, &u.Surname, &u.Email, &u.Username, &u.PasswordHash,
		&u.IsAdmin, &u.IsActive, &u.IsVerified, &u.IsDeleted, &u.VerificationCode,
		&expires, &sent, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.VerificationCodeExpiresAt = fromNullTime(expires)
	u.VerificationEmailSentAt = fromNullTime(sent)
	return &u, nil
}
