// Package errors defines the error kinds shared by the portal, the CLI and
// the API gateway client.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorises an AppError.
type ErrorCode string

const (
	// ErrCodeValidation marks input rejected before any call is made:
	// config values, portal form fields, CLI arguments.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeConfig marks a configuration value that parsed but cannot be used.
	ErrCodeConfig ErrorCode = "config"
)

// AppError is a locally raised error. Field names the offending input when
// there is one: a form field, an env var or a flag.
type AppError struct {
	Code    ErrorCode
	Message string
	Field   string
	Cause   error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// Validation returns a validation error not tied to a single field.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField returns a validation error for one named input.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Config wraps a problem with the named setting.
func Config(field string, cause error) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: "invalid setting", Field: field, Cause: cause}
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation reports whether err carries a validation AppError.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsConfig reports whether err carries a config AppError.
func IsConfig(err error) bool { return isCode(err, ErrCodeConfig) }

// GetField returns the Field of the first AppError in err's chain.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// Fields collects field -> message for every validation AppError joined
// into err (see errors.Join). Errors without a field are skipped.
func Fields(err error) map[string]string {
	out := map[string]string{}
	collectFields(err, out)
	return out
}

func collectFields(err error, out map[string]string) {
	switch e := err.(type) {
	case nil:
		return
	case *AppError:
		if e.Code == ErrCodeValidation && e.Field != "" {
			out[e.Field] = e.Message
		}
		collectFields(e.Cause, out)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collectFields(inner, out)
		}
	case interface{ Unwrap() error }:
		collectFields(e.Unwrap(), out)
	}
}
