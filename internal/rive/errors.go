package rive

import (
	"errors"
	"fmt"

	"github.com/roach88/rivecq/internal/correlator"
	"github.com/roach88/rivecq/internal/engine"
)

// Error is returned by every fallible operation in this package.
//
// Errors fall into four groups:
//   - Data: missing data, value mismatch between a property's kind and a reply
//   - Backend: an error message reported by the backend, or a wrapped cause
//   - Validation: names checked client-side before a creation command is sent
//   - Parse: malformed enum or property definitions
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Expected and Actual are type names, set for value mismatches.
	Expected string
	Actual   string

	// Value is the offending name or raw value, when there is one.
	Value string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeMissingData indicates a reply carried no usable payload field.
	ErrCodeMissingData ErrorCode = "MISSING_DATA"

	// ErrCodeValueMismatch indicates a reply decoded to a different type than requested.
	ErrCodeValueMismatch ErrorCode = "VALUE_MISMATCH"

	// ErrCodeBackend wraps an arbitrary underlying error.
	ErrCodeBackend ErrorCode = "BACKEND"

	// ErrCodeMissingFile indicates a local file could not be found.
	ErrCodeMissingFile ErrorCode = "MISSING_FILE"

	// ErrCodeInvalidData indicates file bytes could not be read.
	ErrCodeInvalidData ErrorCode = "INVALID_DATA"

	// ErrCodeInvalidFile indicates the backend rejected a file.
	ErrCodeInvalidFile ErrorCode = "INVALID_FILE"

	// ErrCodeInvalidArtboard indicates an artboard name not present in the file.
	ErrCodeInvalidArtboard ErrorCode = "INVALID_ARTBOARD"

	// ErrCodeInvalidViewModel indicates a view model name not present in the file.
	ErrCodeInvalidViewModel ErrorCode = "INVALID_VIEW_MODEL"

	// ErrCodeInvalidViewModelInstance indicates an instance name not present in the view model.
	ErrCodeInvalidViewModelInstance ErrorCode = "INVALID_VIEW_MODEL_INSTANCE"

	// ErrCodeInvalidStateMachine indicates a state machine name not present in the artboard.
	ErrCodeInvalidStateMachine ErrorCode = "INVALID_STATE_MACHINE"

	// ErrCodeArtboard indicates the backend reported an artboard error.
	ErrCodeArtboard ErrorCode = "ARTBOARD"

	// ErrCodeFailedDecoding indicates the backend could not decode an asset.
	ErrCodeFailedDecoding ErrorCode = "FAILED_DECODING"

	// ErrCodeMissingName indicates a definition without a name.
	ErrCodeMissingName ErrorCode = "MISSING_NAME"

	// ErrCodeMissingValues indicates an enum definition without values.
	ErrCodeMissingValues ErrorCode = "MISSING_VALUES"

	// ErrCodeMissingType indicates a property definition without a type.
	ErrCodeMissingType ErrorCode = "MISSING_TYPE"

	// ErrCodeInvalidType indicates a property definition with an unknown type.
	ErrCodeInvalidType ErrorCode = "INVALID_TYPE"

	// ErrCodeStopped indicates the worker is no longer running.
	ErrCodeStopped ErrorCode = "STOPPED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Value != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is (or wraps) an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsMissingData returns true if the error is a missing data error.
func IsMissingData(err error) bool {
	return HasCode(err, ErrCodeMissingData)
}

// IsValueMismatch returns true if the error is a value mismatch error.
func IsValueMismatch(err error) bool {
	return HasCode(err, ErrCodeValueMismatch)
}

// IsStopped returns true if the worker stopped before the operation completed.
func IsStopped(err error) bool {
	return HasCode(err, ErrCodeStopped)
}

func errMissingData() *Error {
	return &Error{Code: ErrCodeMissingData, Message: "reply carried no value"}
}

// valueMismatch is installed into every correlation table.
func valueMismatch(expected, actual string) error {
	return &Error{
		Code:     ErrCodeValueMismatch,
		Message:  fmt.Sprintf("expected %s, got %s", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

func errInvalid(code ErrorCode, what, name string) *Error {
	return &Error{Code: code, Message: what + " not found", Value: name}
}

func errBackend(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// errWrapped tags a cause from outside this package as ErrCodeBackend.
// Errors that are already an *Error pass through.
func errWrapped(message string, err error) error {
	var re *Error
	if err == nil || errors.As(err, &re) {
		return err
	}
	return &Error{Code: ErrCodeBackend, Message: message, Err: err}
}

// wrapStopped converts executor shutdown into ErrCodeStopped, leaving other
// errors untouched.
func wrapStopped(err error) error {
	if errors.Is(err, correlator.ErrStopped) || errors.Is(err, engine.ErrStopped) {
		return &Error{Code: ErrCodeStopped, Message: "worker stopped", Err: err}
	}
	return err
}
