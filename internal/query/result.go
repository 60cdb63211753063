package query

import "time"

// Status is the lifecycle state of a query result.
type Status int

const (
	// StatusIdle means no value and nothing in flight, e.g. a disabled query.
	StatusIdle Status = iota
	// StatusLoading means no value yet and a fetch is in flight.
	StatusLoading
	// StatusError means the last fetch failed.
	StatusError
	// StatusSuccess means a value is available.
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Result is the observable state of one query. Exactly one of value or err is
// meaningful, selected by the status; build it with Idle, Loading, Failed or Ready.
type Result[T any] struct {
	status    Status
	value     T
	err       error
	updatedAt time.Time
}

// Idle returns a result with no value and no fetch in flight.
func Idle[T any]() Result[T] {
	return Result[T]{status: StatusIdle}
}

// Loading returns a result whose first fetch is in flight.
func Loading[T any]() Result[T] {
	return Result[T]{status: StatusLoading}
}

// Failed returns a result carrying err.
func Failed[T any](err error) Result[T] {
	return Result[T]{status: StatusError, err: err}
}

// Ready returns a successful result carrying v.
func Ready[T any](v T) Result[T] {
	return Result[T]{status: StatusSuccess, value: v}
}

func (r Result[T]) at(t time.Time) Result[T] {
	r.updatedAt = t
	return r
}

// Status returns the lifecycle state.
func (r Result[T]) Status() Status { return r.status }

// IsLoading is true only while the first value is being fetched.
func (r Result[T]) IsLoading() bool { return r.status == StatusLoading }

// IsIdle reports a result with no value, no error and nothing in flight.
func (r Result[T]) IsIdle() bool { return r.status == StatusIdle }

// IsReady reports whether a value is available.
func (r Result[T]) IsReady() bool { return r.status == StatusSuccess }

// Err returns the fetch error, or nil unless the status is StatusError.
func (r Result[T]) Err() error {
	if r.status != StatusError {
		return nil
	}
	return r.err
}

// Value returns the value and whether one is available.
func (r Result[T]) Value() (T, bool) {
	if r.status != StatusSuccess {
		var zero T
		return zero, false
	}
	return r.value, true
}

// ValueOr returns the value, or fallback when none is available.
func (r Result[T]) ValueOr(fallback T) T {
	if v, ok := r.Value(); ok {
		return v
	}
	return fallback
}

// UpdatedAt returns when the value was fetched; zero for constructed results.
func (r Result[T]) UpdatedAt() time.Time { return r.updatedAt }

// Map transforms a ready value and passes every other state through.
func Map[T, R any](r Result[T], f func(T) R) Result[R] {
	switch r.status {
	case StatusSuccess:
		return Ready(f(r.value)).at(r.updatedAt)
	case StatusError:
		return Failed[R](r.err)
	case StatusLoading:
		return Loading[R]()
	default:
		return Idle[R]()
	}
}
