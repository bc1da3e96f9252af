package ports

import (
	"context"

	"github.com/zoubaax/on-time/internal/core/domain"
)

// UserService exposes profile reads and admin user management.
type UserService interface {
	Profile(ctx context.Context, id string) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error)
	// UpdateRole and Delete reject with domain.ErrSelfModification when actorID == targetID.
	UpdateRole(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, actorID, targetID string) error
	UpdateProfile(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
}
