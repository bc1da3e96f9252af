package ports

import (
	"context"

	"github.com/zoubaax/on-time/internal/core/domain"
)

// AuthResult is returned by the sign-in style flows. Tokens is nil when the
// provider still requires email confirmation.
type AuthResult struct {
	User                 *domain.User
	Tokens               *domain.TokenPair
	ConfirmationRequired bool
}

// AuthService orchestrates identity provider, user store and token service.
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	HandleOAuthCallback(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	SignOut(ctx context.Context, userID string) error
}

// TokenService signs and verifies the local token pair.
type TokenService interface {
	Issue(user *domain.User) (*domain.TokenPair, error)
	Verify(token string) (*domain.Claims, error)
	VerifyAccess(token string) (*domain.Claims, error)
	VerifyRefresh(token string) (*domain.Claims, error)
}
