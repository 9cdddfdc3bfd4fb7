package config

import (
	"errors"
	"fmt"

	"github.com/dshills/peek/internal/config/loader"
)

var (
	// ErrSettingNotFound is returned for a path no layer defines.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrTypeMismatch is matched by every *TypeError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrFileNotFound is returned when a file given with WithFile is missing.
	// A missing file in the user config directory is not an error.
	ErrFileNotFound = errors.New("config file not found")

	// ErrInvalidPath is returned by Set for an empty path.
	ErrInvalidPath = errors.New("invalid setting path")
)

// ParseError is a syntax error in a config file, with its position.
type ParseError = loader.ParseError

// ValidationErrorCode classifies a rejected setting.
type ValidationErrorCode string

// Validation codes.
const (
	ErrCodeTypeMismatch    ValidationErrorCode = "type_mismatch"
	ErrCodeOutOfRange      ValidationErrorCode = "out_of_range"
	ErrCodeInvalidEnum     ValidationErrorCode = "invalid_enum"
	ErrCodePatternMismatch ValidationErrorCode = "pattern_mismatch"
)

// ValidationError reports one setting rejected by Validate.
type ValidationError struct {
	Path    string
	Message string
	Value   any
	Code    ValidationErrorCode
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s = %v: %s", e.Path, e.Value, e.Message)
}

// Is matches ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// TypeError reports a setting whose value has the wrong type for its
// accessor.
type TypeError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: want %s, have %s", e.Path, e.Expected, e.Actual)
}

// Is matches ErrTypeMismatch.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}
