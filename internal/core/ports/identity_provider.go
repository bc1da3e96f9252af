package ports

import (
	"context"

	"github.com/zoubaax/on-time/internal/core/domain"
)

// IdentityProvider wraps the external service performing password and OAuth
// authentication. Rejections are returned as *domain.ProviderError.
type IdentityProvider interface {
	// SignUp registers credentials. A nil session means email confirmation is pending.
	SignUp(ctx context.Context, email, password, fullName string) (domain.Identity, *domain.ProviderSession, error)
	SignIn(ctx context.Context, email, password string) (domain.Identity, *domain.ProviderSession, error)
	// OAuthURL returns the consent URL the browser must navigate to.
	OAuthURL(ctx context.Context, provider domain.Provider) (string, error)
	// GetUser exchanges a provider access token for the user it belongs to.
	GetUser(ctx context.Context, accessToken string) (domain.Identity, error)
	Ping(ctx context.Context) error
}
