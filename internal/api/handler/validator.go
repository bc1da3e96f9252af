package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zoubaax/on-time/internal/api/response"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Field errors are reported under the request's wire name.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures are returned as
// *response.ValidationError.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]response.FieldError, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, response.FieldError{Field: fe.Field(), Message: fieldError(fe)})
			}
			return &response.ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

// wireName picks the json, param or query name of a field.
func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "param", "query"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// messages overrides the generic text for specific field/tag pairs.
var messages = map[string]string{
	"access_token.required": "Access token is required",
	"refreshToken.required": "Refresh token is required",
	"id.required":           "User ID is required",
	"id.uuid":               "Invalid user ID format",
	"role.required":         "Role is required",
	"role.oneof":            `Role must be either "admin" or "user"`,
	"full_name.min":         "Full name must be between 2 and 100 characters",
	"full_name.max":         "Full name must be between 2 and 100 characters",
	"avatar_url.url":        "Avatar URL must be a valid URL",
	"email.email":           "Please provide a valid email",
	"password.min":          "Password must be at least 6 characters",
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	if msg, ok := messages[field+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid":
		return field + " must be a valid UUID"
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
