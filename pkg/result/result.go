// Package result provides a success/failure container returned by service operations.
package result

import "errors"

// ErrUnknown is carried by failures constructed without an error.
var ErrUnknown = errors.New("unknown failure")

// Result holds either a value or an error, never both.
// The zero Result is a failure carrying ErrUnknown.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Success returns a successful Result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Void returns a successful Result for operations without a value.
func Void() Result[struct{}] {
	return Result[struct{}]{ok: true}
}

// Fail returns a failed Result. A nil err is replaced by ErrUnknown.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = ErrUnknown
	}
	return Result[T]{err: err}
}

// From builds a Result from a conventional (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Success(v)
}

// Map applies fn to the value of a successful Result.
// Failures pass through with their error.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Fail[U](r.Err())
	}
	return Success(fn(r.value))
}

// Value returns the held value and whether the Result succeeded.
func (r Result[T]) Value() (T, bool) {
	if !r.ok {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Err returns the failure error, or nil on success.
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	if r.err == nil {
		return ErrUnknown
	}
	return r.err
}

// IsSuccess reports whether the Result holds a value.
func (r Result[T]) IsSuccess() bool {
	return r.ok
}

// Unwrap returns the Result as a (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	v, _ := r.Value()
	return v, r.Err()
}
