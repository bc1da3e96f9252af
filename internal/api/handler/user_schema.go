package handler

import "github.com/zoubaax/on-time/internal/core/domain"

type listUsersRequest struct {
	Role string `query:"role" validate:"omitempty,oneof=admin user"`
}

type userIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

type updateRoleRequest struct {
	ID   string `param:"id"  json:"-"    validate:"required,uuid"`
	Role string `json:"role" validate:"required,oneof=admin user"`
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name"  validate:"omitempty,min=2,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type listUsersResponse struct {
	Users []*domain.User `json:"users"`
	Count int            `json:"count"`
}
