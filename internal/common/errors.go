package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrDocumentUnreadable marks a document that could not be opened or
	// decoded at all. Pages that merely yield no text are not this error.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrMappingNotFound marks a request for a field mapping that does not
	// exist in the mapping store.
	ErrMappingNotFound = errors.New("mapping not found")

	// ErrTemplateNotFound marks a request for an export template that does
	// not exist in the template store.
	ErrTemplateNotFound = errors.New("template not found")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
