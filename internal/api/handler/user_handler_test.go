package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/zoubaax/on-time/internal/api/response"
	"github.com/zoubaax/on-time/internal/core/domain"
)

type stubUserService struct {
	profileFn       func(ctx context.Context, id string) (*domain.User, error)
	getFn           func(ctx context.Context, id string) (*domain.User, error)
	listFn          func(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error)
	updateRoleFn    func(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error)
	deleteFn        func(ctx context.Context, actorID, targetID string) error
	updateProfileFn func(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
}

func (s *stubUserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	return s.profileFn(ctx, id)
}

func (s *stubUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	return s.listFn(ctx, filter)
}

func (s *stubUserService) UpdateRole(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error) {
	return s.updateRoleFn(ctx, actorID, targetID, role)
}

func (s *stubUserService) Delete(ctx context.Context, actorID, targetID string) error {
	return s.deleteFn(ctx, actorID, targetID)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	return s.updateProfileFn(ctx, id, update)
}

const otherUserID = "7d9f0c3a-5b2e-4f61-8a3c-2e4d6b8f0a12"

func TestUserHandler_UpdateRole_Success(t *testing.T) {
	stub := &stubUserService{
		updateRoleFn: func(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error) {
			if actorID != testUserID || targetID != otherUserID || role != domain.RoleAdmin {
				t.Fatalf("unexpected args: %s %s %s", actorID, targetID, role)
			}
			return &domain.User{ID: targetID, Role: role}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPatch, "/users/"+otherUserID+"/role", `{"role":"admin"}`)
	c.SetParamNames("id")
	c.SetParamValues(otherUserID)
	authenticated(c, testUserID, domain.RoleAdmin)

	if err := NewUserHandler(stub).UpdateRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var data userResponse
	decodeEnvelope(t, rec, &data)
	if rec.Code != http.StatusOK || data.User.Role != domain.RoleAdmin {
		t.Fatalf("unexpected response: %d %+v", rec.Code, data.User)
	}
}

func TestUserHandler_UpdateRole_Self(t *testing.T) {
	stub := &stubUserService{
		updateRoleFn: func(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error) {
			return nil, domain.ErrSelfModification
		},
	}
	c, _ := newJSONContext(http.MethodPatch, "/users/"+testUserID+"/role", `{"role":"user"}`)
	c.SetParamNames("id")
	c.SetParamValues(testUserID)
	authenticated(c, testUserID, domain.RoleAdmin)

	err := NewUserHandler(stub).UpdateRole(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden || he.Message != "You cannot change your own role" {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestUserHandler_UpdateRole_Validation(t *testing.T) {
	cases := []struct {
		name, id, body, field, message string
	}{
		{"bad uuid", "not-a-uuid", `{"role":"admin"}`, "id", "Invalid user ID format"},
		{"bad role", otherUserID, `{"role":"root"}`, "role", `Role must be either "admin" or "user"`},
		{"missing role", otherUserID, `{}`, "role", "Role is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubUserService{
				updateRoleFn: func(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error) {
					t.Fatalf("service must not be called")
					return nil, nil
				},
			}
			c, _ := newJSONContext(http.MethodPatch, "/users/"+tc.id+"/role", tc.body)
			c.SetParamNames("id")
			c.SetParamValues(tc.id)
			authenticated(c, testUserID, domain.RoleAdmin)

			err := NewUserHandler(stub).UpdateRole(c)
			var ve *response.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tc.field || ve.Fields[0].Message != tc.message {
				t.Fatalf("unexpected field error: %+v", ve.Fields)
			}
		})
	}
}

func TestUserHandler_List_RoleFilter(t *testing.T) {
	var got domain.UserFilter
	stub := &stubUserService{
		listFn: func(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
			got = filter
			return []*domain.User{{ID: testUserID, Role: domain.RoleAdmin}}, nil
		},
	}
	c, rec := newJSONContext(http.MethodGet, "/users?role=admin", "")

	if err := NewUserHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var data listUsersResponse
	decodeEnvelope(t, rec, &data)
	if got.Role != domain.RoleAdmin || data.Count != 1 || len(data.Users) != 1 {
		t.Fatalf("unexpected result: filter=%+v data=%+v", got, data)
	}
}

func TestUserHandler_Delete_Self(t *testing.T) {
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, actorID, targetID string) error {
			return domain.ErrSelfModification
		},
	}
	c, _ := newJSONContext(http.MethodDelete, "/users/"+testUserID, "")
	c.SetParamNames("id")
	c.SetParamValues(testUserID)
	authenticated(c, testUserID, domain.RoleAdmin)

	err := NewUserHandler(stub).Delete(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden || he.Message != "You cannot delete your own account" {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	var got domain.UserUpdate
	stub := &stubUserService{
		updateProfileFn: func(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
			got = update
			return &domain.User{ID: id, FullName: *update.FullName}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPatch, "/users/profile/me", `{"full_name":"  Alice B  "}`)
	authenticated(c, testUserID, domain.RoleUser)

	if err := NewUserHandler(stub).UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || got.FullName == nil || *got.FullName != "Alice B" || got.AvatarURL != nil {
		t.Fatalf("unexpected update: %d %+v", rec.Code, got)
	}
}

func TestUserHandler_UpdateProfile_InvalidAvatar(t *testing.T) {
	c, _ := newJSONContext(http.MethodPatch, "/users/profile/me", `{"avatar_url":"not a url"}`)
	authenticated(c, testUserID, domain.RoleUser)

	err := NewUserHandler(&stubUserService{}).UpdateProfile(c)
	var ve *response.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Message != "Avatar URL must be a valid URL" {
		t.Fatalf("unexpected error: %v", err)
	}
}
