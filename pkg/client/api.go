package client

import (
	"context"
	"net/http"
	"net/url"
)

// GoogleURL returns the provider consent URL to open in a browser.
func (c *Client) GoogleURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(ctx, http.MethodGet, "/auth/google", nil, "", &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Callback exchanges the provider's access token for an API session.
func (c *Client) Callback(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	body := map[string]string{"access_token": accessToken, "refresh_token": refreshToken}
	return c.authenticate(ctx, "/auth/callback", body)
}

// SignUp registers an email account. When confirmation is required the
// session stays unauthenticated.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password, "full_name": fullName}
	return c.authenticate(ctx, "/auth/signup", body)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/auth/signin", body)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthResult, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	c.session.Begin()
	var res AuthResult
	if err := c.send(ctx, http.MethodPost, path, payload, "", &res); err != nil {
		c.session.Abort()
		return nil, err
	}
	if res.Tokens == nil || res.User == nil {
		c.session.Abort()
		return &res, nil
	}
	if err := c.session.SetAuth(res.User, *res.Tokens); err != nil {
		c.session.Abort()
		return nil, err
	}
	return &res, nil
}

// Refresh exchanges a refresh token for a new pair. It does not touch the session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	payload, err := encodeBody(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, err
	}
	var out struct {
		Tokens *Tokens `json:"tokens"`
	}
	if err := c.send(ctx, http.MethodPost, "/auth/refresh", payload, "", &out); err != nil {
		return nil, err
	}
	if out.Tokens == nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "refresh response carried no tokens"}
	}
	return out.Tokens, nil
}

// Profile reloads the current user from the server and caches it.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/auth/profile", nil, &out); err != nil {
		return nil, err
	}
	if out.User != nil {
		if err := c.session.SetUser(out.User); err != nil {
			return nil, err
		}
	}
	return out.User, nil
}

// SignOut notifies the server and clears the session even if the call fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/auth/signout", nil, nil)
	if cerr := c.session.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodPatch, "/users/profile/me", update, &out); err != nil {
		return nil, err
	}
	if out.User != nil {
		if err := c.session.SetUser(out.User); err != nil {
			return nil, err
		}
	}
	return out.User, nil
}

// ListUsers lists all users, optionally filtered by role. Admin only.
func (c *Client) ListUsers(ctx context.Context, role string) ([]*User, error) {
	path := "/users"
	if role != "" {
		path += "?" + url.Values{"role": {role}}.Encode()
	}
	var out struct {
		Users []*User `json:"users"`
	}
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) UpdateRole(ctx context.Context, id, role string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	body := map[string]string{"role": role}
	if err := c.Do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/role", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, "/health", nil, "", nil)
}
