package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zoubaax/on-time/internal/api/metrics"
	"github.com/zoubaax/on-time/internal/api/response"
	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

// AuthHandler handles sign-up, sign-in, OAuth and token endpoints.
type AuthHandler struct {
	authService ports.AuthService
	userService ports.UserService
}

func NewAuthHandler(authService ports.AuthService, userService ports.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// GoogleURL returns the Google consent URL.
//
// @Summary      Start Google OAuth
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Envelope{data=oauthURLResponse}
// @Failure      400  {object}  response.Envelope
// @Router       /auth/google [get]
func (h *AuthHandler) GoogleURL(c echo.Context) error {
	url, err := h.authService.GoogleAuthURL(c.Request().Context())
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Google OAuth initiated", oauthURLResponse{URL: url})
}

// Callback exchanges the provider session for the local token pair.
//
// @Summary      Complete OAuth sign-in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      oauthCallbackRequest  true  "Provider session"
// @Success      200   {object}  response.Envelope{data=authResponse}
// @Failure      400   {object}  response.Envelope
// @Failure      401   {object}  response.Envelope
// @Router       /auth/callback [post]
func (h *AuthHandler) Callback(c echo.Context) error {
	var req oauthCallbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.authService.HandleOAuthCallback(c.Request().Context(), req.AccessToken, req.RefreshToken)
	observe("oauth_callback", start, err, false)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Authentication successful", authResponse{User: res.User, Tokens: res.Tokens})
}

// SignUp registers a new account.
//
// @Summary      Sign up with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Credentials"
// @Success      201   {object}  response.Envelope{data=authResponse}
// @Failure      400   {object}  response.Envelope
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.authService.SignUp(c.Request().Context(), req.Email, req.Password, req.FullName)
	observe("signup", start, err, err == nil && res.ConfirmationRequired)
	if err != nil {
		return err
	}

	msg := "User registered successfully"
	if res.ConfirmationRequired {
		msg = "Please check your email to confirm your account"
	}
	return response.OK(c, http.StatusCreated, msg, authResponse{
		User:                 res.User,
		Tokens:               res.Tokens,
		ConfirmationRequired: res.ConfirmationRequired,
	})
}

// SignIn authenticates with email and password.
//
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  response.Envelope{data=authResponse}
// @Failure      400   {object}  response.Envelope
// @Failure      401   {object}  response.Envelope
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	observe("signin", start, err, false)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Signed in successfully", authResponse{User: res.User, Tokens: res.Tokens})
}

// Refresh trades a refresh token for a new pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  response.Envelope{data=tokensResponse}
// @Failure      401   {object}  response.Envelope
// @Failure      404   {object}  response.Envelope
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	pair, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	observe("refresh", start, err, false)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
		}
		return err
	}
	return response.OK(c, http.StatusOK, "Token refreshed successfully", tokensResponse{Tokens: pair})
}

// Profile returns the caller's current record.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=userResponse}
// @Failure      401  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}
	user, err := h.userService.Profile(c.Request().Context(), who.ID)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", userResponse{User: user})
}

// SignOut acknowledges a sign-out. Issued tokens are not revoked.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}
	start := time.Now()
	err = h.authService.SignOut(c.Request().Context(), who.ID)
	observe("signout", start, err, false)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Signed out successfully", nil)
}

// bindAndValidate decodes the request and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}

// observe records the outcome of an auth flow.
func observe(operation string, start time.Time, err error, pending bool) {
	metrics.AuthOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	result := "success"
	switch {
	case err == nil && pending:
		result = "pending_confirmation"
	case err == nil:
	case errors.Is(err, domain.ErrIdentityProvider),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrUserNotFound):
		result = "rejected"
	default:
		result = "error"
	}
	metrics.AuthOperationsTotal.WithLabelValues(operation, result).Inc()
}
