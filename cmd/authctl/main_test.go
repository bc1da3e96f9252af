package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/zoubaax/on-time/pkg/client"
)

func TestPasswordFrom(t *testing.T) {
	t.Setenv("AUTHCTL_PASSWORD", "from-env")

	if p, _ := passwordFrom("flag"); p != "flag" {
		t.Fatalf("flag should win, got %q", p)
	}
	if p, _ := passwordFrom(""); p != "from-env" {
		t.Fatalf("expected env fallback, got %q", p)
	}

	t.Setenv("AUTHCTL_PASSWORD", "")
	if _, err := passwordFrom(""); err == nil {
		t.Fatalf("expected error without password")
	}
}

func TestSignInThenSignOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/signin":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]any{
					"user":   map[string]any{"id": "u1", "email": "a@x.com", "role": "user"},
					"tokens": map[string]string{"accessToken": "a", "refreshToken": "r"},
				},
			})
		case "/api/auth/signout":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Signed out successfully"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	sessionPath := filepath.Join(t.TempDir(), "session.json")
	run := func(args ...string) {
		t.Helper()
		cmd := newRootCmd()
		cmd.SetArgs(append([]string{"--api-url", srv.URL + "/api", "--session", sessionPath}, args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("authctl %v: %v", args, err)
		}
	}

	run("signin", "--email", "a@x.com", "--password", "secret123")

	session, err := client.NewSession(client.NewFileStorage(sessionPath))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.State() != client.StateAuthenticated || session.User().Email != "a@x.com" {
		t.Fatalf("expected stored session, got %s", session.State())
	}

	run("signout")

	session, err = client.NewSession(client.NewFileStorage(sessionPath))
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if session.State() != client.StateUnauthenticated {
		t.Fatalf("expected cleared session, got %s", session.State())
	}
}
