package result

import (
	"errors"
	"fmt"
)

// ErrEmptyFailure is carried by a Result built with Fail(nil), so that a
// failed Result always reports a non-nil error.
var ErrEmptyFailure = errors.New("result: failure without error")

// PanicError is the failure produced when a Map transform panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("result: transform panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Result is either a success carrying a value or a failure carrying an
// error. The zero Result is a success holding the zero value.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a success.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps a failure. A nil err is replaced by ErrEmptyFailure.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = ErrEmptyFailure
	}
	return Result[T]{err: err}
}

// From builds a Result from a conventional (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// IsOk reports whether r is a success.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the failure, or nil on success.
func (r Result[T]) Err() error {
	return r.err
}

// Unpack returns the conventional (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	return r.value, r.err
}

// GetOr returns the success value, or def on failure.
func (r Result[T]) GetOr(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// Map applies f to a success value. A panic inside f becomes a failure
// carrying a *PanicError, so Map never panics outward.
func Map[T, U any](r Result[T], f func(T) U) (out Result[U]) {
	if r.err != nil {
		return Fail[U](r.err)
	}
	defer func() {
		if p := recover(); p != nil {
			out = Fail[U](&PanicError{Value: p})
		}
	}()
	return Ok(f(r.value))
}

// Bind chains a step that may itself fail. A failed r short-circuits and
// f is not called.
func Bind[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return f(r.value)
}

// ToOption drops the error of a failed Result.
func ToOption[T any](r Result[T]) Option[T] {
	if r.err != nil {
		return None[T]()
	}
	return Some(r.value)
}
