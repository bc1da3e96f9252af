package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zoubaax/on-time/internal/core/domain"
)

const (
	defaultAccessTTL  = 7 * 24 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// TokenConfig holds the signing parameters of the token service.
type TokenConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService signs and verifies HS256 token pairs. It is stateless.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &TokenService{cfg: cfg, now: time.Now}
}

// Issue signs an access and a refresh token carrying {id, email, role}.
func (s *TokenService) Issue(user *domain.User) (*domain.TokenPair, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("issue tokens: user is required")
	}

	access, err := s.sign(user, domain.TokenUseAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.sign(user, domain.TokenUseRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry.
func (s *TokenService) Verify(token string) (*domain.Claims, error) {
	claims := &domain.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess accepts only access tokens.
func (s *TokenService) VerifyAccess(token string) (*domain.Claims, error) {
	return s.verifyUse(token, domain.TokenUseAccess)
}

// VerifyRefresh accepts only refresh tokens.
func (s *TokenService) VerifyRefresh(token string) (*domain.Claims, error) {
	return s.verifyUse(token, domain.TokenUseRefresh)
}

func (s *TokenService) verifyUse(token string, use domain.TokenUse) (*domain.Claims, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != use {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) sign(user *domain.User, use domain.TokenUse, ttl time.Duration) (string, error) {
	now := s.now()
	claims := domain.Claims{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.Secret))
}
