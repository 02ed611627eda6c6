package persistence

import (
	"context"
	"database/sql"
	"errors"

	"assistant_server/core/domain"
	"assistant_server/pkg/apperr"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserAdapter implements out.UserRepository using PostgreSQL.
type UserAdapter struct {
	db *sqlx.DB
}

// NewUserAdapter creates a new UserAdapter.
func NewUserAdapter(db *sqlx.DB) *UserAdapter {
	return &UserAdapter{db: db}
}

// Create inserts a new user.
func (a *UserAdapter) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, linkedin, github, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`

	_, err := a.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.LinkedIn, user.GitHub)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperr.AlreadyExists("user " + user.Email)
		}
		return apperr.DatabaseError("create user", err)
	}
	return nil
}

// GetByEmail retrieves a user by email.
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT id, name, email, password_hash, linkedin, github, google_token, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user domain.User
	if err := a.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user " + email)
		}
		return nil, apperr.DatabaseError("get user", err)
	}
	return &user, nil
}

// UpdateSettings updates the user's editable profile fields.
func (a *UserAdapter) UpdateSettings(ctx context.Context, email string, settings *domain.UserSettings) error {
	const query = `
		UPDATE users
		SET name = $2, linkedin = $3, github = $4, updated_at = NOW()
		WHERE email = $1
	`

	result, err := a.db.ExecContext(ctx, query, email, settings.Name, settings.LinkedIn, settings.GitHub)
	if err != nil {
		return apperr.DatabaseError("update settings", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("user " + email)
	}
	return nil
}

// UpdateGoogleToken stores the user's encrypted OAuth token.
func (a *UserAdapter) UpdateGoogleToken(ctx context.Context, email string, encryptedToken []byte) error {
	const query = `
		UPDATE users
		SET google_token = $2, updated_at = NOW()
		WHERE email = $1
	`

	result, err := a.db.ExecContext(ctx, query, email, encryptedToken)
	if err != nil {
		return apperr.DatabaseError("update google token", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("user " + email)
	}
	return nil
}
