package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUser(id, email string, role domain.Role, created time.Time) *domain.User {
	return &domain.User{
		ID:         id,
		Email:      email,
		FullName:   "Test",
		Role:       role,
		Provider:   domain.ProviderEmail,
		ProviderID: id,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("u-1", "A@X.com", domain.RoleUser, time.Now()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "a@x.com" {
		t.Fatalf("email not normalized: %s", created.Email)
	}

	byID, err := repo.FindByID(ctx, "u-1")
	if err != nil || byID == nil {
		t.Fatalf("FindByID: %v %v", byID, err)
	}
	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil || byEmail == nil || byEmail.ID != "u-1" {
		t.Fatalf("FindByEmail: %v %v", byEmail, err)
	}
	if byID.AvatarURL != nil {
		t.Fatalf("expected nil avatar, got %v", *byID.AvatarURL)
	}
}

func TestUserRepository_LookupMissIsEmpty(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	u, err := repo.FindByID(ctx, "missing")
	if err != nil || u != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", u, err)
	}
	u, err = repo.FindByEmail(ctx, "missing@x.com")
	if err != nil || u != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", u, err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, newUser("u-1", "a@x.com", domain.RoleUser, time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, newUser("u-2", "a@x.com", domain.RoleUser, time.Now())); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_UpdateAndRole(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()
	_, _ = repo.Create(ctx, newUser("u-1", "a@x.com", domain.RoleUser, time.Now()))

	name, avatar := "Renamed", "https://img.example.com/a.png"
	u, err := repo.Update(ctx, "u-1", domain.UserUpdate{FullName: &name, AvatarURL: &avatar})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.FullName != name || u.AvatarURL == nil || *u.AvatarURL != avatar {
		t.Fatalf("unexpected user after update: %+v", u)
	}

	u, err = repo.UpdateRole(ctx, "u-1", domain.RoleAdmin)
	if err != nil || u.Role != domain.RoleAdmin {
		t.Fatalf("UpdateRole: %v %+v", err, u)
	}

	if _, err := repo.UpdateRole(ctx, "u-1", "root"); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := repo.UpdateRole(ctx, "missing", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, "missing", domain.UserUpdate{FullName: &name}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()
	_, _ = repo.Create(ctx, newUser("u-1", "a@x.com", domain.RoleUser, time.Now()))

	if err := repo.Delete(ctx, "u-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "u-1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_FindAllNewestFirst(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	_, _ = repo.Create(ctx, newUser("u-1", "a@x.com", domain.RoleUser, base))
	_, _ = repo.Create(ctx, newUser("u-2", "b@x.com", domain.RoleAdmin, base.Add(time.Minute)))
	_, _ = repo.Create(ctx, newUser("u-3", "c@x.com", domain.RoleUser, base.Add(2*time.Minute)))

	all, err := repo.FindAll(ctx, domain.UserFilter{})
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 3 || all[0].ID != "u-3" || all[2].ID != "u-1" {
		t.Fatalf("unexpected order: %v", ids(all))
	}

	users, _ := repo.FindAll(ctx, domain.UserFilter{Role: domain.RoleUser})
	if len(users) != 2 || users[0].ID != "u-3" {
		t.Fatalf("unexpected role filter: %v", ids(users))
	}
}

func TestCredentialRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	if c, err := repo.FindByEmail(ctx, "a@x.com"); err != nil || c != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", c, err)
	}
	cred := &ports.Credential{UserID: "u-1", Email: "A@x.com", FullName: "A", PasswordHash: "hash"}
	if err := repo.Create(ctx, cred); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, cred); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	got, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil || got == nil || got.PasswordHash != "hash" || got.UserID != "u-1" {
		t.Fatalf("unexpected credential: %+v %v", got, err)
	}
}

func TestAuditRepository(t *testing.T) {
	repo := NewAuditRepository(openTestDB(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := repo.InsertEvent(ctx, &domain.AuthEvent{Type: domain.EventSignIn, UserID: "u-1", OccurredAt: time.Now()})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	n, err := repo.CountEvents(ctx, "u-1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 events, got %d (%v)", n, err)
	}
}

func TestExtractUp(t *testing.T) {
	got := extractUp("-- +migrate Up\nCREATE TABLE x (id INT);\n-- +migrate Down\nDROP TABLE x;")
	if got != "\nCREATE TABLE x (id INT);\n" {
		t.Fatalf("unexpected up section: %q", got)
	}
}

func ids(users []*domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
