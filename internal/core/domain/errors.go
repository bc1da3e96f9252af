package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New(`invalid role, must be "admin" or "user"`)
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("access forbidden")
	ErrSelfModification   = errors.New("cannot modify own account")
	ErrNothingToUpdate    = errors.New("no valid fields to update")
	ErrIdentityProvider   = errors.New("identity provider error")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ProviderError is a rejection reported by the identity provider. Message is
// the provider's own text and is surfaced to callers unmodified.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return ErrIdentityProvider
}

// NewProviderError returns a ProviderError with the given HTTP-ish status.
func NewProviderError(status int, msg string) *ProviderError {
	return &ProviderError{Status: status, Message: msg}
}
