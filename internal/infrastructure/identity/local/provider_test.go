package local

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

type memoryCredentials struct {
	mu    sync.Mutex
	byKey map[string]ports.Credential
}

func newMemoryCredentials() *memoryCredentials {
	return &memoryCredentials{byKey: make(map[string]ports.Credential)}
}

func (m *memoryCredentials) FindByEmail(_ context.Context, email string) (*ports.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byKey[email]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memoryCredentials) Create(_ context.Context, cred *ports.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[cred.Email]; ok {
		return domain.ErrUserExists
	}
	m.byKey[cred.Email] = *cred
	return nil
}

func newProvider(creds ports.CredentialRepository, cfg Config) *Provider {
	cfg.BcryptCost = bcrypt.MinCost
	return New(creds, cfg)
}

func TestSignUpThenSignIn(t *testing.T) {
	p := newProvider(newMemoryCredentials(), Config{})
	ctx := context.Background()

	id, session, err := p.SignUp(ctx, "A@x.com", "secret123", "Alice")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if session == nil {
		t.Fatalf("local provider must auto-confirm")
	}
	if _, err := uuid.Parse(id.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", id.ID)
	}
	if id.Email != "a@x.com" || id.FullName != "Alice" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	again, _, err := p.SignIn(ctx, "a@x.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if again.ID != id.ID {
		t.Fatalf("sign-in returned a different id: %s vs %s", again.ID, id.ID)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	p := newProvider(newMemoryCredentials(), Config{})
	ctx := context.Background()
	_, _, _ = p.SignUp(ctx, "a@x.com", "secret123", "Alice")

	for _, tc := range []struct{ email, password string }{
		{"a@x.com", "wrong-password"},
		{"missing@x.com", "secret123"},
	} {
		_, _, err := p.SignIn(ctx, tc.email, tc.password)
		var pe *domain.ProviderError
		if !errors.As(err, &pe) || pe.Message != "Invalid login credentials" {
			t.Fatalf("%s: unexpected error %v", tc.email, err)
		}
	}
}

func TestSignUp_Rejections(t *testing.T) {
	p := newProvider(newMemoryCredentials(), Config{})
	ctx := context.Background()

	if _, _, err := p.SignUp(ctx, "a@x.com", "123", "A"); !errors.Is(err, domain.ErrIdentityProvider) {
		t.Fatalf("expected short password rejection, got %v", err)
	}
	if _, _, err := p.SignUp(ctx, "a@x.com", "secret123", "A"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, _, err := p.SignUp(ctx, "a@x.com", "secret123", "A")
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Message != "User already registered" {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestOAuthURL(t *testing.T) {
	p := newProvider(newMemoryCredentials(), Config{
		GoogleClientID:    "client-id",
		GoogleRedirectURL: "http://localhost:3000/auth/callback",
	})

	raw, err := p.OAuthURL(context.Background(), domain.ProviderGoogle)
	if err != nil {
		t.Fatalf("OAuthURL: %v", err)
	}
	if !strings.HasPrefix(raw, "https://accounts.google.com/") {
		t.Fatalf("unexpected url: %s", raw)
	}
	u, _ := url.Parse(raw)
	q := u.Query()
	if q.Get("client_id") != "client-id" || q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Fatalf("unexpected query: %v", q)
	}

	unconfigured := newProvider(newMemoryCredentials(), Config{})
	if _, err := unconfigured.OAuthURL(context.Background(), domain.ProviderGoogle); !errors.Is(err, domain.ErrIdentityProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(googleUser{
			Sub:     "10987654321",
			Email:   "G@x.com",
			Name:    "Gee",
			Picture: "https://lh3.example.com/p.png",
		})
	}))
	defer srv.Close()

	p := newProvider(newMemoryCredentials(), Config{UserInfoURL: srv.URL})

	id, err := p.GetUser(context.Background(), "good")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if id.Email != "g@x.com" || id.Provider != domain.ProviderGoogle || id.AvatarURL == "" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	second, _ := p.GetUser(context.Background(), "good")
	if second.ID != id.ID {
		t.Fatalf("derived id not stable")
	}

	_, err = p.GetUser(context.Background(), "bad")
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 provider error, got %v", err)
	}
}
