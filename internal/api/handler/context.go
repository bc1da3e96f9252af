package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zoubaax/on-time/internal/api/middleware"
	"github.com/zoubaax/on-time/internal/core/domain"
)

// caller is the authenticated principal injected by middleware.Authenticate.
type caller struct {
	ID    string
	Email string
	Role  domain.Role
}

// ctxCaller extracts the claims set by the Authenticate middleware. A missing
// id means the route was mounted without authentication.
func ctxCaller(c echo.Context) (caller, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	if id == "" {
		return caller{}, echo.NewHTTPError(http.StatusUnauthorized, "Access token is required")
	}
	email, _ := c.Get(middleware.ContextEmail).(string)
	role, _ := c.Get(middleware.ContextRole).(string)
	return caller{ID: id, Email: email, Role: domain.Role(role)}, nil
}
