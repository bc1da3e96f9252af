package handler

import "github.com/zoubaax/on-time/internal/core/domain"

// --- Request / Response types ---

type signUpRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type oauthCallbackRequest struct {
	AccessToken  string `json:"access_token"  validate:"required"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type oauthURLResponse struct {
	URL string `json:"url"`
}

type authResponse struct {
	User                 *domain.User      `json:"user"`
	Tokens               *domain.TokenPair `json:"tokens,omitempty"`
	ConfirmationRequired bool              `json:"confirmation_required,omitempty"`
}

type tokensResponse struct {
	Tokens *domain.TokenPair `json:"tokens"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}
