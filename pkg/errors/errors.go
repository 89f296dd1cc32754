// Package errors provides the unified error type and factory functions for
// the strike-zone alignment service. Every layer (domain, intelligence,
// application, infrastructure, interfaces) uses AppError as the single
// carrier for structured error information, enabling consistent HTTP
// responses, logging, and metrics labels.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the service.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so that errors.Is / errors.As / errors.Unwrap work transparently
// across layers.
//
// Usage:
//
//	return errors.InsufficientData("take", 87, 100)
//	return errors.Wrap(repoErr, errors.ErrCodeDatabaseError, "pitch query failed")
type AppError struct {
	// Code is the typed error code identifying the failure category.
	Code ErrorCode

	// Message is the primary human-readable description, suitable for
	// inclusion in API responses.
	Message string

	// Detail carries supplementary context (filter values, sample counts)
	// that aids debugging without leaking internals to end users.
	Detail string

	// Cause is the underlying error, enabling errors.Is / errors.As
	// traversal of the full chain.
	Cause error
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>" with the detail segment omitted when
// Detail is empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// Safe to call on a nil pointer.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithDetailf is WithDetail with fmt.Sprintf formatting.
func (e *AppError) WithDetailf(format string, args ...interface{}) *AppError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an AppError that wraps an existing error. If err is nil,
// Wrap returns nil so it can be used inline on repository call results.
// When err is already an *AppError and code is ErrCodeInternal the original
// code is preserved, preventing loss of the domain classification during
// cross-layer propagation.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == ErrCodeInternal {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError in err's chain,
// or ErrCodeInternal when none is present. Useful in middleware that emits
// a single code as a metric label.
func GetCode(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// IsInsufficientData reports whether err's chain contains a DATA_001 error.
func IsInsufficientData(err error) bool { return IsCode(err, ErrCodeInsufficientData) }

// IsDegenerateFit reports whether err's chain contains a MODEL_001 error.
func IsDegenerateFit(err error) bool { return IsCode(err, ErrCodeDegenerateFit) }

// IsNotFound reports whether err's chain contains a not-found class error.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound) || IsCode(err, ErrCodeDatasetMissing)
}

// ── Domain-specific factories ────────────────────────────────────────────────

// InsufficientData constructs a DATA_001 error naming the decision class and
// the available-versus-required record counts.
func InsufficientData(class string, have, need int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientData,
		Message: fmt.Sprintf("not enough %s pitches to fit a zone model", class),
		Detail:  fmt.Sprintf("class=%s have=%d need=%d", class, have, need),
	}
}

// DegenerateFit constructs a MODEL_001 error for a fit that failed to
// converge or produced non-finite coefficients.
func DegenerateFit(model, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeDegenerateFit,
		Message: fmt.Sprintf("%s fit is degenerate", model),
		Detail:  reason,
	}
}

// UndefinedCentroid constructs a MODEL_002 error for a zero-mass surface.
func UndefinedCentroid(surface string) *AppError {
	return &AppError{
		Code:    ErrCodeUndefinedCentroid,
		Message: "surface has zero total mass; centroid is undefined",
		Detail:  "surface=" + surface,
	}
}

// InvalidFilter constructs a DATA_002 error.
func InvalidFilter(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidFilter, Message: message}
}

// InfluenceNotReady constructs an ANLZ_001 error naming what the subject is
// missing.
func InfluenceNotReady(reason string) *AppError {
	return &AppError{Code: ErrCodeInfluenceNotReady, Message: "subject not ready for influence analysis", Detail: reason}
}

// ── Generic factories ────────────────────────────────────────────────────────

// NotFound constructs a COMMON_003 error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Validation constructs a COMMON_008 error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Internal constructs a COMMON_001 error. Use for unexpected server-side
// failures where no more specific code applies.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}
