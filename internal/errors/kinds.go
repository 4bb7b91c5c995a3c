package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultLoginMessage is shown when the server rejects a login without a detail.
const DefaultLoginMessage = "Login failed"

// AuthenticationError reports rejected credentials or a missing MFA code.
// Message is safe to display to the user.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return DefaultLoginMessage
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NewAuthentication builds an AuthenticationError, substituting the generic
// message when detail is empty.
func NewAuthentication(detail string, cause error) *AuthenticationError {
	if detail == "" {
		detail = DefaultLoginMessage
	}
	return &AuthenticationError{Message: detail, Err: cause}
}

// APIError is any non-2xx response from the upstream API.
type APIError struct {
	Status int
	// Detail is the server-supplied "detail" field, possibly empty.
	Detail string
	Op     string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s: status %d", e.Op, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// NetworkError reports that the upstream API could not be reached.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api %s: network: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuthentication reports whether err is or wraps an AuthenticationError.
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsAPI reports whether err is or wraps an APIError.
func IsAPI(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is or wraps a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsUnauthorized reports whether the upstream API rejected the bearer token.
func IsUnauthorized(err error) bool {
	var target *APIError
	return errors.As(err, &target) && target.Status == http.StatusUnauthorized
}

// LoadFailure converts a data-fetch error into the message shown in a view's
// error state. API and network failures are displayed identically.
func LoadFailure(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return "Failed to load: " + apiErr.Detail
	}
	return "Failed to load. Please try again."
}
