package domain

import (
	"strings"
	"time"
)

// Role is the authorization level of a user. Only the values below are valid.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts s into a Role, failing with ErrInvalidRole.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Provider identifies how a user authenticated the first time.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderEmail  Provider = "email"
)

// User is the local identity record. ID is assigned by the identity provider.
type User struct {
	ID         string    `json:"id" bson:"_id"`
	Email      string    `json:"email" bson:"email"`
	FullName   string    `json:"full_name" bson:"full_name"`
	AvatarURL  *string   `json:"avatar_url" bson:"avatar_url,omitempty"`
	Role       Role      `json:"role" bson:"role"`
	Provider   Provider  `json:"provider" bson:"provider"`
	ProviderID string    `json:"provider_id" bson:"provider_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserUpdate carries the mutable profile fields. Nil fields are left untouched.
type UserUpdate struct {
	FullName  *string
	AvatarURL *string
}

// Empty reports whether no field is set.
func (u UserUpdate) Empty() bool {
	return u.FullName == nil && u.AvatarURL == nil
}

// UserFilter narrows FindAll. A zero Role matches every user.
type UserFilter struct {
	Role Role
}

// Identity is a provider user normalized into the local shape.
type Identity struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
	Provider  Provider
}

// NewUser builds the local record for a first-seen identity. The role is
// always RoleUser; promotion happens only through an admin.
func NewUser(id Identity, now time.Time) *User {
	u := &User{
		ID:         id.ID,
		Email:      strings.ToLower(strings.TrimSpace(id.Email)),
		FullName:   id.FullName,
		Role:       RoleUser,
		Provider:   id.Provider,
		ProviderID: id.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if u.FullName == "" {
		u.FullName = "User"
	}
	if u.Provider == "" {
		u.Provider = ProviderEmail
	}
	if id.AvatarURL != "" {
		avatar := id.AvatarURL
		u.AvatarURL = &avatar
	}
	return u
}
