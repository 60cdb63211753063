package query

// Outcome is the part of a Result that composition cares about.
type Outcome interface {
	IsLoading() bool
	Err() error
}

// Merge folds several results in argument order: loading if any part is
// loading, otherwise the first error found. Loading takes precedence over errors.
func Merge(parts ...Outcome) (loading bool, err error) {
	for _, p := range parts {
		if p.IsLoading() {
			return true, nil
		}
	}
	for _, p := range parts {
		if e := p.Err(); e != nil {
			return false, e
		}
	}
	return false, nil
}

// Combine2 derives a value from two results. It succeeds only when both do and
// is idle when neither is loading or failed but a value is missing.
func Combine2[A, B, R any](a Result[A], b Result[B], f func(A, B) R) Result[R] {
	if loading, err := Merge(a, b); loading {
		return Loading[R]()
	} else if err != nil {
		return Failed[R](err)
	}

	av, aok := a.Value()
	bv, bok := b.Value()
	if !aok || !bok {
		return Idle[R]()
	}
	return Ready(f(av, bv))
}

// Combine3 is Combine2 for three results.
func Combine3[A, B, C, R any](a Result[A], b Result[B], c Result[C], f func(A, B, C) R) Result[R] {
	if loading, err := Merge(a, b, c); loading {
		return Loading[R]()
	} else if err != nil {
		return Failed[R](err)
	}

	av, aok := a.Value()
	bv, bok := b.Value()
	cv, cok := c.Value()
	if !aok || !bok || !cok {
		return Idle[R]()
	}
	return Ready(f(av, bv, cv))
}
