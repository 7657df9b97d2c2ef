package query

import (
	"context"
	"fmt"
	"sync"
)

// State is what a view renders from: data plus loading and error flags.
// Ready is false until the first successful load.
type State[T any] struct {
	Data      T
	Ready     bool
	IsLoading bool
	IsError   bool
	Err       error
}

// Query binds a key to the adapter call that fills it.
type Query[T any] struct {
	client *Client
	key    Key
	fetch  func(context.Context) (T, error)

	mu    sync.Mutex
	state State[T]
}

func New[T any](client *Client, key Key, fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{client: client, key: key, fetch: fetch}
}

func (q *Query[T]) Key() Key { return q.key }

// Load returns cached data when fresh, otherwise calls the adapter.
func (q *Query[T]) Load(ctx context.Context) State[T] {
	return q.run(ctx, false)
}

// Refetch always calls the adapter.
func (q *Query[T]) Refetch(ctx context.Context) State[T] {
	return q.run(ctx, true)
}

// State reports the outcome of the last Load or Refetch.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *Query[T]) run(ctx context.Context, force bool) State[T] {
	q.mu.Lock()
	q.state.IsLoading = true
	q.mu.Unlock()

	v, err := q.client.Fetch(ctx, q.key, force, func(ctx context.Context) (any, error) {
		return q.fetch(ctx)
	})

	q.mu.Lock()
	defer q.mu.Unlock()
	q.state.IsLoading = false
	if err != nil {
		q.state.IsError, q.state.Err = true, err
		return q.state
	}
	data, ok := v.(T)
	if !ok {
		q.state.IsError = true
		q.state.Err = fmt.Errorf("query %s: cached %T, want %T", q.key, v, data)
		return q.state
	}
	q.state = State[T]{Data: data, Ready: true}
	return q.state
}
