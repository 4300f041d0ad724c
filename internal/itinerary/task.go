package itinerary

import (
	"context"

	"wayfarer/internal/model"
)

// Task is an in-flight lifecycle operation. It cannot be aborted once
// started; a caller that stops waiting simply drops the result.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn in its own goroutine. Cancelling ctx afterwards does not
// stop fn; values carried by ctx are kept.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(t.done)
		t.val, t.err = fn(runCtx)
	}()
	return t
}

// Done is closed once the operation has settled.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the operation settles or ctx ends. When ctx ends first
// the operation keeps running and ctx.Err() is returned.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Async helpers for the remote-synchronized operations.

func (o *Operations) FetchAllAsync(ctx context.Context, userID int) *Task[[]model.Itinerary] {
	return Go(ctx, func(ctx context.Context) ([]model.Itinerary, error) { return o.FetchAll(ctx, userID) })
}

func (o *Operations) CreateAsync(ctx context.Context, in model.NewItinerary) *Task[model.Itinerary] {
	return Go(ctx, func(ctx context.Context) (model.Itinerary, error) { return o.Create(ctx, in) })
}

func (o *Operations) UpdateAsync(ctx context.Context, it model.Itinerary) *Task[model.Itinerary] {
	return Go(ctx, func(ctx context.Context) (model.Itinerary, error) { return o.Update(ctx, it) })
}

func (o *Operations) DeleteAsync(ctx context.Context, id string) *Task[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) { return struct{}{}, o.Delete(ctx, id) })
}
