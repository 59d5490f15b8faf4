package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig      Category = "config"
	CategoryPersistence Category = "persistence"
	CategoryValidation  Category = "validation"
	CategoryCLI         Category = "cli"
)

// StoreError is a structured error with a code, a suggestion and documentation.
type StoreError struct {
	// Code is a unique error identifier (e.g., "S120").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a StoreError with the same code.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StoreError) WithSuggestion(s string) *StoreError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *StoreError) WithDetail(d string) *StoreError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *StoreError) Wrap(err error) *StoreError {
	e.Wrapped = err
	return e
}

// New creates a StoreError from a registered error code.
func New(code string) *StoreError {
	template, ok := registry[code]
	if !ok {
		return &StoreError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StoreError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new StoreError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *StoreError {
	return &StoreError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a StoreError.
// Errors that already contain a StoreError are returned as that StoreError.
func FromError(err error, code string) *StoreError {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first StoreError in err's chain, or "".
func Code(err error) string {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCategory reports whether err's chain contains a StoreError of category c.
func IsCategory(err error, c Category) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Category == c
}
