package command

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/get-eventually/eventcore/version"
)

// RetryOnConflict calls fn until it succeeds, retrying with the provided backoff
// only when it fails with a version.ConflictError.
//
// Any other error is returned immediately. The function is expected to reload
// the Aggregate on every attempt, e.g. by executing the Command again.
func RetryOnConflict[T any](ctx context.Context, b backoff.BackOff, fn func(ctx context.Context) (T, error)) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		result, err := fn(ctx)
		if err != nil && !errors.As(err, new(version.ConflictError)) {
			return result, backoff.Permanent(err)
		}

		return result, err
	}, backoff.WithContext(b, ctx))
}
