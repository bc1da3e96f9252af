package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

// UserService implements profile reads and admin user management.
type UserService struct {
	users ports.UserRepository
	audit ports.AuditSink
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, audit ports.AuditSink, log zerolog.Logger) *UserService {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &UserService{users: users, audit: audit, log: log}
}

// Profile re-reads the caller's record from the store.
func (s *UserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	return s.Get(ctx, id)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	users, err := s.users.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// UpdateRole changes another user's role. An admin never changes their own.
func (s *UserService) UpdateRole(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if actorID == targetID {
		return nil, domain.ErrSelfModification
	}

	user, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("actor_id", actorID).Str("user_id", targetID).Str("role", string(role)).Msg("user role updated")
	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventRoleChanged,
		UserID:     targetID,
		ActorID:    actorID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
		Detail:     string(role),
	})
	return user, nil
}

// Delete removes another user's record. Self-deletion is rejected.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return domain.ErrSelfModification
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}

	s.log.Info().Str("actor_id", actorID).Str("user_id", targetID).Msg("user deleted")
	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventUserDeleted,
		UserID:     targetID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	if update.Empty() {
		return nil, domain.ErrNothingToUpdate
	}
	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventProfileUpdate,
		UserID:     id,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	})
	return user, nil
}
