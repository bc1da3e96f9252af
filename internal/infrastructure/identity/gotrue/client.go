// Package gotrue implements ports.IdentityProvider against a hosted GoTrue
// (Supabase Auth) service over its REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zoubaax/on-time/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	basePath       = "/auth/v1"
)

// Config holds the provider endpoint and keys.
type Config struct {
	// URL is the project URL, e.g. https://xyz.supabase.co.
	URL string
	// APIKey is the anon key sent as the apikey header.
	APIKey string
	// RedirectURL is where the provider sends the browser after Google consent.
	RedirectURL string
	Timeout     time.Duration
}

// Client talks to GoTrue.
type Client struct {
	base        string
	apiKey      string
	redirectURL string
	http        *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:        strings.TrimRight(cfg.URL, "/") + basePath,
		apiKey:      cfg.APIKey,
		redirectURL: cfg.RedirectURL,
		http:        &http.Client{Timeout: timeout},
	}
}

type credentialsRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// gotrueUser is the user object returned by every endpoint.
type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// sessionResponse covers both shapes of the sign-up reply: a session with a
// nested user, or a bare user while confirmation is pending.
type sessionResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *gotrueUser `json:"user"`
	gotrueUser
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (domain.Identity, *domain.ProviderSession, error) {
	body := credentialsRequest{Email: email, Password: password}
	if fullName != "" {
		body.Data = map[string]any{"full_name": fullName}
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", body, &resp); err != nil {
		return domain.Identity{}, nil, err
	}
	return resp.identity(), resp.session(), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (domain.Identity, *domain.ProviderSession, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	session := resp.session()
	if session == nil {
		return domain.Identity{}, nil, domain.NewProviderError(http.StatusUnauthorized, "Email not confirmed")
	}
	return resp.identity(), session, nil
}

// OAuthURL builds the authorize URL. GoTrue redirects the browser to Google
// and back to RedirectURL with the session in the fragment.
func (c *Client) OAuthURL(_ context.Context, provider domain.Provider) (string, error) {
	if provider != domain.ProviderGoogle {
		return "", domain.NewProviderError(http.StatusBadRequest, fmt.Sprintf("Unsupported provider: %s", provider))
	}
	q := url.Values{}
	q.Set("provider", string(provider))
	if c.redirectURL != "" {
		q.Set("redirect_to", c.redirectURL)
	}
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	return c.base + "/authorize?" + q.Encode(), nil
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (domain.Identity, error) {
	var u gotrueUser
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &u); err != nil {
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			return domain.Identity{}, domain.NewProviderError(http.StatusUnauthorized, "Invalid access token")
		}
		return domain.Identity{}, err
	}
	if u.ID == "" {
		return domain.Identity{}, domain.NewProviderError(http.StatusUnauthorized, "Invalid access token")
	}
	return toIdentity(u), nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gotrue encode: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("gotrue request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gotrue decode: %w", err)
	}
	return nil
}

// decodeError turns a 4xx reply into a ProviderError carrying the provider's
// message. 5xx replies are plain errors.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("gotrue: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var e errorResponse
	_ = json.Unmarshal(raw, &e)
	msg := firstNonEmpty(e.ErrorDescription, e.Msg, e.Message, e.Error)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	status := http.StatusBadRequest
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		status = http.StatusUnauthorized
	}
	return domain.NewProviderError(status, msg)
}

func (r sessionResponse) session() *domain.ProviderSession {
	if r.AccessToken == "" {
		return nil
	}
	return &domain.ProviderSession{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

func (r sessionResponse) identity() domain.Identity {
	if r.User != nil {
		return toIdentity(*r.User)
	}
	return toIdentity(r.gotrueUser)
}

func toIdentity(u gotrueUser) domain.Identity {
	id := domain.Identity{
		ID:        u.ID,
		Email:     strings.ToLower(u.Email),
		FullName:  firstNonEmpty(metaString(u.UserMetadata, "full_name"), metaString(u.UserMetadata, "name")),
		AvatarURL: firstNonEmpty(metaString(u.UserMetadata, "avatar_url"), metaString(u.UserMetadata, "picture")),
		Provider:  domain.ProviderEmail,
	}
	if p := metaString(u.AppMetadata, "provider"); p == string(domain.ProviderGoogle) {
		id.Provider = domain.ProviderGoogle
	}
	return id
}

func metaString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
