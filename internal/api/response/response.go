// Package response renders the uniform JSON envelope returned by every endpoint:
//
//	{"success": bool, "message": "...", "data": {...}, "error": "...", "errors": [{"field": "...", "message": "..."}]}
package response

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request fails shape validation. It is
// rendered as 400 with the field list.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return "Validation failed"
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// OK writes a successful envelope.
func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope. detail is only set by callers allowed to
// expose internal error text.
func Fail(c echo.Context, status int, message, detail string, fields []FieldError) error {
	return c.JSON(status, Envelope{Success: false, Message: message, Error: detail, Errors: fields})
}
