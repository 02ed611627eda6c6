package out

import (
	"context"

	"assistant_server/core/domain"
)

// =============================================================================
// Repository Ports (PostgreSQL)
// =============================================================================

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateSettings(ctx context.Context, email string, settings *domain.UserSettings) error
	UpdateGoogleToken(ctx context.Context, email string, encryptedToken []byte) error
}

// ResponseRepository persists generated draft responses through their
// review lifecycle.
type ResponseRepository interface {
	Create(ctx context.Context, record *domain.ResponseRecord) error
	GetByID(ctx context.Context, id string) (*domain.ResponseRecord, error)
	Update(ctx context.Context, record *domain.ResponseRecord) error
	UpdateStatus(ctx context.Context, id, status string) error
	ListPending(ctx context.Context, userEmail string) ([]*domain.ResponseRecord, error)
	ListHistory(ctx context.Context, userEmail string, limit int) ([]*domain.ResponseRecord, error)
}
