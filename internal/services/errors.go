package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrSubtaskNotFound        = errors.New("subtask not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrValidation             = errors.New("validation failed")
	ErrAssistantNotConfigured = errors.New("estimate assistant is not configured")
	ErrAssistantFailed        = errors.New("estimate assistant failed")
)

// FieldError is a validation failure tied to one request field.
// errors.Is(err, ErrValidation) holds for every FieldError.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

func fieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// notFound translates gorm's missing-row error into sentinel, wrapping anything else.
func notFound(err error, sentinel error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
