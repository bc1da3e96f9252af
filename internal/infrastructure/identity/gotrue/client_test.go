package gotrue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/zoubaax/on-time/internal/core/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL, APIKey: "anon", RedirectURL: "http://localhost:3000/auth/callback"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSignUp_AutoConfirmedReturnsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Fatalf("missing apikey header")
		}
		var body credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Data["full_name"] != "Alice" {
			t.Fatalf("full_name not forwarded: %v", body.Data)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "provider-access",
			"refresh_token": "provider-refresh",
			"user": map[string]any{
				"id":            "0b6c7a4e-1f7e-4c1e-9a57-1b0b0f2c7e11",
				"email":         "A@X.com",
				"user_metadata": map[string]any{"full_name": "Alice"},
			},
		})
	})

	id, session, err := c.SignUp(context.Background(), "a@x.com", "secret123", "Alice")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if session == nil || session.AccessToken != "provider-access" {
		t.Fatalf("expected session, got %+v", session)
	}
	if id.Email != "a@x.com" || id.FullName != "Alice" || id.Provider != domain.ProviderEmail {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestSignUp_PendingConfirmationHasNoSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":    "0b6c7a4e-1f7e-4c1e-9a57-1b0b0f2c7e11",
			"email": "a@x.com",
		})
	})

	id, session, err := c.SignUp(context.Background(), "a@x.com", "secret123", "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if session != nil {
		t.Fatalf("expected nil session, got %+v", session)
	}
	if id.ID == "" {
		t.Fatalf("expected identity id")
	}
}

func TestSignIn_ProviderMessagePassesThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Fatalf("unexpected request %s", r.URL.String())
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "Email not confirmed",
		})
	})

	_, _, err := c.SignIn(context.Background(), "a@x.com", "secret123")
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Message != "Email not confirmed" || pe.Status != http.StatusBadRequest {
		t.Fatalf("unexpected provider error: %+v", pe)
	}
	if !errors.Is(err, domain.ErrIdentityProvider) {
		t.Fatalf("expected ErrIdentityProvider in chain")
	}
}

func TestGetUser_NormalizesGoogleMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-access" {
			t.Fatalf("missing bearer")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":           "0b6c7a4e-1f7e-4c1e-9a57-1b0b0f2c7e11",
			"email":        "g@x.com",
			"app_metadata": map[string]any{"provider": "google"},
			"user_metadata": map[string]any{
				"name":    "Gee",
				"picture": "https://lh3.example.com/p.png",
			},
		})
	})

	id, err := c.GetUser(context.Background(), "provider-access")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if id.FullName != "Gee" || id.AvatarURL != "https://lh3.example.com/p.png" || id.Provider != domain.ProviderGoogle {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestGetUser_InvalidToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
	})

	_, err := c.GetUser(context.Background(), "bad")
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusUnauthorized || pe.Message != "Invalid access token" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServerErrorIsNotProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Ping(context.Background())
	if err == nil || errors.Is(err, domain.ErrIdentityProvider) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestOAuthURL(t *testing.T) {
	c := New(Config{URL: "https://proj.supabase.co/", RedirectURL: "http://localhost:3000/auth/callback"})

	raw, err := c.OAuthURL(context.Background(), domain.ProviderGoogle)
	if err != nil {
		t.Fatalf("OAuthURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "proj.supabase.co" || u.Path != "/auth/v1/authorize" {
		t.Fatalf("unexpected url: %s", raw)
	}
	q := u.Query()
	if q.Get("provider") != "google" || q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Fatalf("unexpected query: %v", q)
	}
	if q.Get("redirect_to") != "http://localhost:3000/auth/callback" {
		t.Fatalf("unexpected redirect: %s", q.Get("redirect_to"))
	}

	if _, err := c.OAuthURL(context.Background(), domain.ProviderEmail); !errors.Is(err, domain.ErrIdentityProvider) {
		t.Fatalf("expected provider error for unsupported provider, got %v", err)
	}
}
