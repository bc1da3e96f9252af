package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zoubaax/on-time/internal/api/metrics"
	"github.com/zoubaax/on-time/internal/api/response"
	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

// UserHandler handles admin user management and self-service profile updates.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role  query     string  false  "Filter by role"  Enums(admin, user)
// @Success      200   {object}  response.Envelope{data=listUsersResponse}
// @Failure      400   {object}  response.Envelope
// @Failure      401   {object}  response.Envelope
// @Failure      403   {object}  response.Envelope
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	var req listUsersRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	users, err := h.service.List(c.Request().Context(), domain.UserFilter{Role: domain.Role(req.Role)})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", listUsersResponse{Users: users, Count: len(users)})
}

// Get handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID (UUID)"
// @Success      200  {object}  response.Envelope{data=userResponse}
// @Failure      400  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	var req userIDRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", userResponse{User: user})
}

// UpdateRole handles PATCH /users/:id/role.
//
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID (UUID)"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  response.Envelope{data=userResponse}
// @Failure      400   {object}  response.Envelope
// @Failure      403   {object}  response.Envelope
// @Failure      404   {object}  response.Envelope
// @Router       /users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}

	user, err := h.service.UpdateRole(c.Request().Context(), who.ID, req.ID, domain.Role(req.Role))
	if err != nil {
		if errors.Is(err, domain.ErrSelfModification) {
			return echo.NewHTTPError(http.StatusForbidden, "You cannot change your own role")
		}
		return err
	}
	metrics.UserAdminActionsTotal.WithLabelValues("role_change").Inc()
	return response.OK(c, http.StatusOK, "User role updated successfully", userResponse{User: user})
}

// Delete handles DELETE /users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID (UUID)"
// @Success      200  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope
// @Failure      403  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	var req userIDRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), who.ID, req.ID); err != nil {
		if errors.Is(err, domain.ErrSelfModification) {
			return echo.NewHTTPError(http.StatusForbidden, "You cannot delete your own account")
		}
		return err
	}
	metrics.UserAdminActionsTotal.WithLabelValues("delete").Inc()
	return response.OK(c, http.StatusOK, "User deleted successfully", nil)
}

// UpdateProfile handles PATCH /users/profile/me.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  response.Envelope{data=userResponse}
// @Failure      400   {object}  response.Envelope
// @Failure      401   {object}  response.Envelope
// @Router       /users/profile/me [patch]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		req.FullName = &trimmed
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), who.ID, domain.UserUpdate{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Profile updated successfully", userResponse{User: user})
}
