package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zoubaax/on-time/internal/api/response"
	"github.com/zoubaax/on-time/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Passes identity provider messages through unmodified.
//   - Logs unexpected errors and exposes their text only when exposeDetail is set.
func NewHTTPErrorHandler(log zerolog.Logger, exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg, fields := resolveError(err)
		detail := ""
		if status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
			if exposeDetail {
				detail = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = response.Fail(c, status, msg, detail, fields)
	}
}

func resolveError(err error) (int, string, []response.FieldError) {
	var ve *response.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error(), ve.Fields
	}

	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound && he.Message == http.StatusText(http.StatusNotFound) {
			return he.Code, "Route not found", nil
		}
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		status := pe.Status
		if status != http.StatusUnauthorized {
			status = http.StatusBadRequest
		}
		return status, pe.Message, nil
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token", nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", nil
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrSelfModification):
		return http.StatusForbidden, "Access forbidden", nil
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", nil
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, `Invalid role. Must be "admin" or "user"`, nil
	case errors.Is(err, domain.ErrNothingToUpdate):
		return http.StatusBadRequest, "No valid fields to update", nil
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "User already exists", nil
	}

	return http.StatusInternalServerError, "Internal server error", nil
}
