package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Base error kinds. Handlers and the HTTP error handler match on these with
// errors.Is; the per-entity sentinels below wrap them.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("already exists")
	ErrValidation         = errors.New("validation failed")
	ErrCascadeFailure     = errors.New("cascade partially applied")
	ErrCascadeInProgress  = errors.New("another cascade is running on this hierarchy")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

var (
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrSubcategoryNotFound = fmt.Errorf("subcategory %w", ErrNotFound)
	ErrProductNotFound     = fmt.Errorf("product %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)

	ErrCategoryExists    = fmt.Errorf("a category with that name %w", ErrDuplicateKey)
	ErrSubcategoryExists = fmt.Errorf("a subcategory with that name %w", ErrDuplicateKey)
	ErrProductExists     = fmt.Errorf("a product with that name %w", ErrDuplicateKey)
	ErrUserExists        = fmt.Errorf("a user with that username or email %w", ErrDuplicateKey)
)

// ValidationError reports a single malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// CascadeError is returned when a cascade step fails after at least one
// earlier step already committed. The hierarchy is left partially applied.
type CascadeError struct {
	Entity    EntityType
	ID        string
	Mode      DeleteMode
	Step      string
	Completed []string
	Err       error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("%s cascade on %s %s failed at %q after [%s]: %v",
		e.Mode, e.Entity, e.ID, e.Step, strings.Join(e.Completed, ", "), e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

func (e *CascadeError) Is(target error) bool { return target == ErrCascadeFailure }
