package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")

	// Value model failures
	ErrValueFormat       = errors.New("value format error")
	ErrInvalidPath       = errors.New("invalid path")
	ErrOutOfBounds       = errors.New("index out of bounds")
	ErrNamespaceNotFound = errors.New("namespace not found")
	ErrIO                = errors.New("i/o error")
)

// ValueFormatError reports a conversion that is type-incompatible or malformed.
type ValueFormatError struct {
	Value   any
	From    string
	To      string
	Message string
	Err     error
}

func (e *ValueFormatError) Error() string {
	msg := fmt.Sprintf("unable to create %s value from %s %q", e.To, e.From, fmt.Sprint(e.Value))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValueFormatError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrValueFormat) hold for every ValueFormatError.
func (e *ValueFormatError) Is(target error) bool {
	return target == ErrValueFormat
}

// NewValueFormatError creates a ValueFormatError.
func NewValueFormatError(value any, from, to, message string, err error) *ValueFormatError {
	return &ValueFormatError{
		Value:   value,
		From:    from,
		To:      to,
		Message: message,
		Err:     err,
	}
}

// InvalidPathError reports a structural violation of the path algebra.
type InvalidPathError struct {
	Path    string
	Message string
	Err     error
}

func (e *InvalidPathError) Error() string {
	if e.Path == "" {
		return "invalid path: " + e.Message
	}
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Message)
}

func (e *InvalidPathError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidPath
}

// Is makes errors.Is(err, ErrInvalidPath) hold even when Err is set.
func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// NewInvalidPathError creates an InvalidPathError.
func NewInvalidPathError(path, format string, args ...any) *InvalidPathError {
	return &InvalidPathError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// OutOfBounds creates an InvalidPathError wrapping ErrOutOfBounds.
func OutOfBounds(path string, format string, args ...any) *InvalidPathError {
	return &InvalidPathError{Path: path, Message: fmt.Sprintf(format, args...), Err: ErrOutOfBounds}
}

// NamespaceError reports a prefix that no registry could resolve.
type NamespaceError struct {
	Prefix     string
	Suggestion string
}

func (e *NamespaceError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("no namespace registered for prefix %q (did you mean %q?)", e.Prefix, e.Suggestion)
	}
	return fmt.Sprintf("no namespace registered for prefix %q", e.Prefix)
}

func (e *NamespaceError) Unwrap() error {
	return ErrNamespaceNotFound
}

// IOError wraps a failure while draining or reading byte content.
func IOError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a common error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNamespaceNotFound):
		return NewAppError(http.StatusUnprocessableEntity, err.Error(), err)
	case errors.Is(err, ErrValueFormat),
		errors.Is(err, ErrInvalidPath),
		errors.Is(err, ErrOutOfBounds),
		errors.Is(err, ErrInvalidInput):
		return NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	}

	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
