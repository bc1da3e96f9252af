package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zoubaax/on-time/internal/api/response"
	"github.com/zoubaax/on-time/internal/core/domain"
)

// RBAC enforces role-based access control on the role set by Authenticate.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return response.Fail(c, http.StatusForbidden, "Access denied. Insufficient privileges.", "", nil)
			}
			return next(c)
		}
	}
}

// AdminOnly admits only admins.
func AdminOnly() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}
