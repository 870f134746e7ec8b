package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// RequireText trims value and rejects it when nothing is left.
func RequireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", NewValidationError(field, "is required and must be non-empty text")
	}
	return trimmed, nil
}

// OptionalText validates a sparse field: nil passes through untouched,
// a present value must survive RequireText.
func OptionalText(field string, value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed, err := RequireText(field, *value)
	if err != nil {
		return nil, err
	}
	return &trimmed, nil
}

// RequireNonNegative rejects negative numbers.
func RequireNonNegative[T int | int64 | float64](field string, value T) error {
	if value < 0 {
		return NewValidationError(field, "must not be negative")
	}
	return nil
}

// RequireEmail trims and lowercases value and checks its shape.
func RequireEmail(field, value string) (string, error) {
	email, err := RequireText(field, value)
	if err != nil {
		return "", err
	}
	email = strings.ToLower(email)
	if !emailPattern.MatchString(email) {
		return "", NewValidationError(field, "must be a valid email")
	}
	return email, nil
}

// RequireRole returns RoleAssistant for an empty role and rejects anything
// outside Roles.
func RequireRole(field, role string) (string, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return RoleAssistant, nil
	}
	for _, r := range Roles {
		if r == role {
			return role, nil
		}
	}
	return "", NewValidationError(field, fmt.Sprintf("must be one of: %s", strings.Join(Roles, ", ")))
}
