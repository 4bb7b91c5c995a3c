// Package errors maps application errors to low-cardinality metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Known error kinds map to fixed names; anything else falls back to the
// innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *apperrors.APIError
	switch {
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case apperrors.IsNetwork(err):
		return "network"
	case apperrors.IsAuthentication(err):
		return "authentication"
	case apperrors.IsValidation(err):
		return "validation"
	case goerrors.As(err, &apiErr):
		if apiErr.Status >= 500 {
			return "api_5xx"
		}
		return "api_4xx"
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
