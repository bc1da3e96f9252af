// Package local implements ports.IdentityProvider without an external auth
// service: passwords are bcrypt hashes in the credential store and Google
// sign-in talks to Google directly. Sign-ups are always confirmed.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	minPasswordLength  = 6
	defaultTimeout     = 10 * time.Second
)

// Config holds the Google OAuth client and the userinfo endpoint.
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	// UserInfoURL overrides Google's userinfo endpoint.
	UserInfoURL string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Provider struct {
	creds       ports.CredentialRepository
	oauth       *oauth2.Config
	userInfoURL string
	cost        int
	http        *http.Client
}

func New(creds ports.CredentialRepository, cfg Config) *Provider {
	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = defaultUserInfoURL
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Provider{
		creds: creds,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfo,
		cost:        cost,
		http:        &http.Client{Timeout: defaultTimeout},
	}
}

func (p *Provider) SignUp(ctx context.Context, email, password, fullName string) (domain.Identity, *domain.ProviderSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLength {
		return domain.Identity{}, nil, domain.NewProviderError(http.StatusBadRequest,
			fmt.Sprintf("Password should be at least %d characters.", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return domain.Identity{}, nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &ports.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	}
	if err := p.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return domain.Identity{}, nil, domain.NewProviderError(http.StatusBadRequest, "User already registered")
		}
		return domain.Identity{}, nil, fmt.Errorf("store credential: %w", err)
	}

	return credentialIdentity(cred), newSession(), nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (domain.Identity, *domain.ProviderSession, error) {
	cred, err := p.creds.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.Identity{}, nil, fmt.Errorf("find credential: %w", err)
	}
	if cred == nil {
		return domain.Identity{}, nil, domain.NewProviderError(http.StatusBadRequest, "Invalid login credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, nil, domain.NewProviderError(http.StatusBadRequest, "Invalid login credentials")
	}
	return credentialIdentity(cred), newSession(), nil
}

// OAuthURL returns Google's consent URL. The frontend exchanges the code and
// posts the resulting Google access token to the callback endpoint.
func (p *Provider) OAuthURL(_ context.Context, provider domain.Provider) (string, error) {
	if provider != domain.ProviderGoogle {
		return "", domain.NewProviderError(http.StatusBadRequest, fmt.Sprintf("Unsupported provider: %s", provider))
	}
	if p.oauth.ClientID == "" {
		return "", domain.NewProviderError(http.StatusBadRequest, "Google OAuth is not configured")
	}
	return p.oauth.AuthCodeURL(uuid.NewString(), oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

type googleUser struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GetUser resolves a Google access token through the userinfo endpoint.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return domain.Identity{}, fmt.Errorf("google userinfo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, domain.NewProviderError(http.StatusUnauthorized, "Invalid access token")
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return domain.Identity{}, fmt.Errorf("google userinfo decode: %w", err)
	}
	if gu.Email == "" {
		return domain.Identity{}, domain.NewProviderError(http.StatusUnauthorized, "Invalid access token")
	}

	// Google subject ids are not UUIDs; derive a stable one so user ids keep
	// a single format across providers.
	return domain.Identity{
		ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://accounts.google.com/"+gu.Sub)).String(),
		Email:     strings.ToLower(gu.Email),
		FullName:  gu.Name,
		AvatarURL: gu.Picture,
		Provider:  domain.ProviderGoogle,
	}, nil
}

func (p *Provider) Ping(context.Context) error {
	return nil
}

func credentialIdentity(c *ports.Credential) domain.Identity {
	return domain.Identity{
		ID:       c.UserID,
		Email:    c.Email,
		FullName: c.FullName,
		Provider: domain.ProviderEmail,
	}
}

// newSession returns an opaque session marker; the local provider has no
// tokens of its own.
func newSession() *domain.ProviderSession {
	return &domain.ProviderSession{AccessToken: uuid.NewString()}
}
