package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	EventSignUp        AuthEventType = "sign_up"
	EventSignIn        AuthEventType = "sign_in"
	EventOAuthCallback AuthEventType = "oauth_callback"
	EventTokenRefresh  AuthEventType = "token_refresh"
	EventSignOut       AuthEventType = "sign_out"
	EventRoleChanged   AuthEventType = "role_changed"
	EventUserDeleted   AuthEventType = "user_deleted"
	EventProfileUpdate AuthEventType = "profile_updated"
	EventUserCreated   AuthEventType = "user_created"
)

// AuthEvent records something that happened to an account.
type AuthEvent struct {
	Type       AuthEventType
	UserID     string
	ActorID    string // empty when the user acted on their own account
	Email      string
	OccurredAt time.Time
	Detail     string
}
