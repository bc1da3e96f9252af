package ports

import (
	"context"

	"github.com/zoubaax/on-time/internal/core/domain"
)

// UserRepository persists local user records.
//
// Lookups return (nil, nil) when no row matches; callers decide whether that
// means "create". Mutations on a missing row return domain.ErrUserNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create fails with domain.ErrUserExists when the id or email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// FindAll returns users ordered by created_at descending.
	FindAll(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error)
}

// Credential is a locally stored password hash, used by the local identity provider.
type Credential struct {
	UserID       string
	Email        string
	FullName     string
	PasswordHash string
}

// CredentialRepository stores password hashes keyed by email.
type CredentialRepository interface {
	// FindByEmail returns (nil, nil) when no credential exists.
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	// Create fails with domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, cred *Credential) error
}
