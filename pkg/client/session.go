package client

import (
	"encoding/json"
	"fmt"
	"sync"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session holds the last-known user and token pair. Every transition updates
// memory and storage under one lock, so callers never observe a user without
// its tokens.
type Session struct {
	mu      sync.RWMutex
	storage Storage
	state   State
	user    *User
	tokens  Tokens
}

// NewSession restores a session from storage. A stored access token is enough
// to start authenticated; the server decides whether it is still valid.
func NewSession(storage Storage) (*Session, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Session{storage: storage}

	access, _, err := storage.Get(KeyAccessToken)
	if err != nil {
		return nil, err
	}
	refresh, _, err := storage.Get(KeyRefreshToken)
	if err != nil {
		return nil, err
	}
	rawUser, ok, err := storage.Get(KeyUser)
	if err != nil {
		return nil, err
	}
	if ok && rawUser != "" {
		var u User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			return nil, fmt.Errorf("decode stored user: %w", err)
		}
		s.user = &u
	}

	s.tokens = Tokens{AccessToken: access, RefreshToken: refresh}
	if access != "" {
		s.state = StateAuthenticated
	}
	return s, nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.Role == "admin"
}

// Begin marks an auth action in flight. Existing state is kept until the
// action settles.
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticating
}

// Abort settles a failed auth action, returning to the state implied by the
// stored tokens.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens.AccessToken != "" {
		s.state = StateAuthenticated
	} else {
		s.state = StateUnauthenticated
	}
}

// SetAuth stores the user and tokens together.
func (s *Session) SetAuth(user *User, tokens Tokens) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.SetAll(map[string]string{
		KeyAccessToken:  tokens.AccessToken,
		KeyRefreshToken: tokens.RefreshToken,
		KeyUser:         string(raw),
	}); err != nil {
		return err
	}
	u := *user
	s.user = &u
	s.tokens = tokens
	s.state = StateAuthenticated
	return nil
}

// SetTokens replaces the token pair after a refresh.
func (s *Session) SetTokens(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.SetAll(map[string]string{
		KeyAccessToken:  tokens.AccessToken,
		KeyRefreshToken: tokens.RefreshToken,
	}); err != nil {
		return err
	}
	s.tokens = tokens
	s.state = StateAuthenticated
	return nil
}

// SetUser replaces the cached user, e.g. after a profile update.
func (s *Session) SetUser(user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.SetAll(map[string]string{KeyUser: string(raw)}); err != nil {
		return err
	}
	u := *user
	s.user = &u
	return nil
}

// Clear drops the user and both tokens.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.tokens = Tokens{}
	s.state = StateUnauthenticated
	return s.storage.Delete(KeyAccessToken, KeyRefreshToken, KeyUser)
}
