// Package errors extends the standard errors package with wrapping helpers
// and the sentinel errors shared by the engine and its remote-catalog
// adapters.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrTimeout indicates an operation exceeded its time limit
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimit indicates the remote API rejected us for pacing
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrConnectionFailed indicates a connection could not be established
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnauthorized indicates the remote API rejected our credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServiceUnavailable indicates a remote service is temporarily down
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse indicates a response could not be parsed
	ErrInvalidResponse = errors.New("invalid response")
)

// wrappedError carries a context message and the underlying cause.
type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap adds a context message to err. Returns nil when err is nil, so call
// sites can wrap unconditionally:
//
//	return errors.Wrap(catalog.Delete(ctx, id), "delete record")
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf adds a formatted context message to err. Returns nil when err is nil.
//
//	return errors.Wrapf(err, "set inventory for sku %s", item.SKU)
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching the target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling Unwrap on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats a new error. %w works as in fmt.Errorf.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join wraps the given errors into one, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsTimeout reports whether the error is a timeout error
func IsTimeout(err error) bool { return Is(err, ErrTimeout) }

// IsRateLimit reports whether the error is a rate limit error
func IsRateLimit(err error) bool { return Is(err, ErrRateLimit) }

// IsNotFound reports whether the error is a not found error
func IsNotFound(err error) bool { return Is(err, ErrNotFound) }

// IsInvalidInput reports whether the error is an invalid input error
func IsInvalidInput(err error) bool { return Is(err, ErrInvalidInput) }

// IsConnectionFailed reports whether the error is a connection failure
func IsConnectionFailed(err error) bool { return Is(err, ErrConnectionFailed) }

// IsUnauthorized reports whether the error is an unauthorized error
func IsUnauthorized(err error) bool { return Is(err, ErrUnauthorized) }

// IsServiceUnavailable reports whether the error is a service unavailable error
func IsServiceUnavailable(err error) bool { return Is(err, ErrServiceUnavailable) }

// IsInvalidResponse reports whether the error is an invalid response error
func IsInvalidResponse(err error) bool { return Is(err, ErrInvalidResponse) }
