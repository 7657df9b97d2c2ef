package query

import "context"

// Mutate runs fn and, only if it succeeds, invalidates targets so the next
// read refetches. Two mutations racing on the same key leave whichever
// response arrives last.
func Mutate[T any](ctx context.Context, client *Client, fn func(context.Context) (T, error), targets ...Target) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	client.Invalidate(targets...)
	return v, nil
}
