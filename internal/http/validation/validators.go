// Package validation checks user input (portal forms, CLI flags) and
// collects per-field messages.
package validation

import (
	"errors"
	"fmt"
	"maps"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
)

// MFACode matches the six-digit one-time codes the lab API accepts.
var MFACode = regexp.MustCompile(`^\d{6}$`)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

// Required validates that a field is not empty and does not exceed maxLen characters.
// Uses rune count for proper Unicode support.
func Required(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// Present validates that a field is not empty without trimming it.
// Passwords may legitimately start or end with spaces.
func Present(fieldName string) Validator {
	return func(v string) string {
		if v == "" {
			return fieldName + " is required."
		}
		return ""
	}
}

// Email validates a bare address such as "jane@example.org". Empty values
// pass; combine with Required to reject them.
func Email(fieldName string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v || !strings.Contains(v[strings.LastIndexByte(v, '@'):], ".") {
			return "Enter a valid " + strings.ToLower(fieldName) + "."
		}
		return ""
	}
}

// Pattern validates that a field matches the provided regular expression.
// Empty values pass.
func Pattern(fieldName string, re *regexp.Regexp) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if !re.MatchString(v) {
			return fieldName + " has an invalid format."
		}
		return ""
	}
}

// FieldValidator collects the first failure per field.
type FieldValidator struct {
	errors map[string]string
}

func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate runs validators in order and records the first failure.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if err := v(value); err != "" {
			fv.errors[field] = err
			break
		}
	}
	return fv
}

// Valid reports whether no field failed.
func (fv *FieldValidator) Valid() bool { return len(fv.errors) == 0 }

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}

// Err returns the failures as joined validation errors in field order, or nil.
func (fv *FieldValidator) Err() error {
	if fv.Valid() {
		return nil
	}
	errs := make([]error, 0, len(fv.errors))
	for _, field := range slices.Sorted(maps.Keys(fv.errors)) {
		errs = append(errs, apperrors.ValidationField(field, fv.errors[field]))
	}
	return errors.Join(errs...)
}
