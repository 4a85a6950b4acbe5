package correlator

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrStopped is returned when the owning executor is no longer running.
var ErrStopped = errors.New("correlator: executor stopped")

// TypeMismatchError reports a reply whose value does not have the type the
// waiting caller expects.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("value mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// MismatchFunc builds the error used when a reply has the wrong type.
type MismatchFunc func(expected, actual string) error

func defaultMismatch(expected, actual string) error {
	return &TypeMismatchError{Expected: expected, Actual: actual}
}

// Option configures a Continuations or Streams table.
type Option func(*config)

type config struct {
	mismatch MismatchFunc
	stopped  error
}

// WithMismatch sets the constructor for type mismatch errors.
// Default: *TypeMismatchError.
func WithMismatch(fn MismatchFunc) Option {
	return func(c *config) {
		c.mismatch = fn
	}
}

// WithStopped sets the error a stream ends with when its executor stops.
// It should wrap ErrStopped. Default: ErrStopped.
func WithStopped(err error) Option {
	return func(c *config) {
		c.stopped = err
	}
}

func newConfig(opts []Option) config {
	c := config{mismatch: defaultMismatch, stopped: ErrStopped}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// typeName returns the display name of T.
func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// valueTypeName returns the display name of v's dynamic type.
func valueTypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
