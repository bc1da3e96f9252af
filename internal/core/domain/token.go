package domain

import "github.com/golang-jwt/jwt/v5"

// TokenUse distinguishes access tokens from refresh tokens.
type TokenUse string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

// TokenPair is handed to the client and never stored server-side.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims is the payload embedded in both tokens of a pair.
type Claims struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	TokenUse TokenUse `json:"token_use"`
	jwt.RegisteredClaims
}

// ProviderSession is the identity provider's own session. Its tokens are
// never forwarded; only its presence matters.
type ProviderSession struct {
	AccessToken  string
	RefreshToken string
}
