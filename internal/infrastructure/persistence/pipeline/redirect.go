package pipeline

import (
	"context"
	"errors"
)

// Redirect maps one error kind to another.
type Redirect struct {
	From error
	To   error
}

// RedirectOn returns a redirect from one error kind to another.
func RedirectOn(from, to error) Redirect {
	return Redirect{From: from, To: to}
}

// RedirectedError is returned in place of an error caught by a redirect.
// It matches the target kind with errors.Is and no longer matches the
// original one.
type RedirectedError struct {
	To    error
	Cause error
}

func (e *RedirectedError) Error() string {
	return e.To.Error() + ": " + e.Cause.Error()
}

// Unwrap returns the target kind.
func (e *RedirectedError) Unwrap() error {
	return e.To
}

func redirecting(rd Redirect, next Handler) Handler {
	return func(ctx context.Context, inv *Invocation) (any, error) {
		out, err := next(ctx, inv)
		if err != nil && errors.Is(err, rd.From) {
			return nil, &RedirectedError{To: rd.To, Cause: err}
		}
		return out, err
	}
}
