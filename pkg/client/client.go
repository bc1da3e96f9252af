// Package client is a Go client for the auth API. It keeps the session in a
// Storage and transparently refreshes an expired access token once per request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// ErrSessionExpired is returned when a 401 could not be recovered by refreshing.
var ErrSessionExpired = errors.New("session expired")

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	log     zerolog.Logger

	onSessionExpired func()

	// refreshMu serializes refreshes so concurrent 401s share one round trip.
	refreshMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// OnSessionExpired is called after a failed refresh has cleared the session.
func OnSessionExpired(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// New builds a client for baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

// Do sends an authenticated request and decodes the envelope's data into out.
// A 401 triggers exactly one refresh and one retry; if the refresh fails the
// session is cleared and ErrSessionExpired is returned.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	used := c.session.Tokens().AccessToken
	err = c.send(ctx, method, path, payload, used, out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	if rerr := c.refresh(ctx, used); rerr != nil {
		c.expire(rerr)
		return fmt.Errorf("%w: %v", ErrSessionExpired, rerr)
	}
	return c.send(ctx, method, path, payload, c.session.Tokens().AccessToken, out)
}

// refresh exchanges the stored refresh token unless another request already
// replaced the access token that failed.
func (c *Client) refresh(ctx context.Context, failed string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.session.Tokens()
	if current.AccessToken != "" && current.AccessToken != failed {
		return nil
	}
	if current.RefreshToken == "" {
		return errors.New("no refresh token")
	}

	tokens, err := c.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return err
	}
	return c.session.SetTokens(*tokens)
}

func (c *Client) expire(cause error) {
	c.log.Warn().Err(cause).Msg("token refresh failed, clearing session")
	if err := c.session.Clear(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear session storage")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// send performs one request. An empty token sends no Authorization header.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope[json.RawMessage]
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Fields: env.Errors}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return b, nil
}
