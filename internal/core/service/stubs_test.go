package service

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/zoubaax/on-time/internal/core/domain"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id]), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return nil, domain.ErrUserExists
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.AvatarURL != nil {
		u.AvatarURL = update.AvatarURL
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) FindAll(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// stubIdentityProvider keeps accounts in memory, keyed by email.
type stubIdentityProvider struct {
	accounts    map[string]stubAccount
	tokens      map[string]domain.Identity
	autoConfirm bool
	nextID      int
}

type stubAccount struct {
	identity domain.Identity
	password string
}

func newStubIdentityProvider(autoConfirm bool) *stubIdentityProvider {
	return &stubIdentityProvider{
		accounts:    make(map[string]stubAccount),
		tokens:      make(map[string]domain.Identity),
		autoConfirm: autoConfirm,
	}
}

var stubIDs = []string{
	"6f1c2a8e-1d3b-4c5a-9e7f-0a1b2c3d4e5f",
	"7a2d3b9f-2e4c-4d6b-8f80-1b2c3d4e5f60",
	"8b3e4cae-3f5d-4e7c-9091-2c3d4e5f6071",
}

func (p *stubIdentityProvider) SignUp(_ context.Context, email, password, fullName string) (domain.Identity, *domain.ProviderSession, error) {
	if _, exists := p.accounts[email]; exists {
		return domain.Identity{}, nil, domain.NewProviderError(http.StatusBadRequest, "User already registered")
	}
	id := domain.Identity{ID: stubIDs[p.nextID%len(stubIDs)], Email: email, FullName: fullName, Provider: domain.ProviderEmail}
	p.nextID++
	p.accounts[email] = stubAccount{identity: id, password: password}
	if !p.autoConfirm {
		return id, nil, nil
	}
	return id, &domain.ProviderSession{AccessToken: "provider-access"}, nil
}

func (p *stubIdentityProvider) SignIn(_ context.Context, email, password string) (domain.Identity, *domain.ProviderSession, error) {
	acc, ok := p.accounts[email]
	if !ok || acc.password != password {
		return domain.Identity{}, nil, domain.NewProviderError(http.StatusBadRequest, "Invalid login credentials")
	}
	if !p.autoConfirm {
		return domain.Identity{}, nil, domain.NewProviderError(http.StatusBadRequest, "Email not confirmed")
	}
	return acc.identity, &domain.ProviderSession{AccessToken: "provider-access"}, nil
}

func (p *stubIdentityProvider) OAuthURL(_ context.Context, provider domain.Provider) (string, error) {
	return "https://idp.example.com/authorize?provider=" + string(provider), nil
}

func (p *stubIdentityProvider) GetUser(_ context.Context, accessToken string) (domain.Identity, error) {
	id, ok := p.tokens[accessToken]
	if !ok {
		return domain.Identity{}, domain.NewProviderError(http.StatusUnauthorized, "invalid JWT")
	}
	return id, nil
}

func (p *stubIdentityProvider) Ping(context.Context) error { return nil }

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (a *recordingAudit) Record(e domain.AuthEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAudit) types() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.events))
	for _, e := range a.events {
		names = append(names, string(e.Type))
	}
	return strings.Join(names, ",")
}
