package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"

	obs "github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
)

// Future is the pending result of a submitted task.
type Future[T any] struct {
	ID   string
	Kind string

	done  chan struct{}
	value T
	err   error
}

func newFuture[T any](id, kind string) *Future[T] {
	return &Future[T]{ID: id, Kind: kind, done: make(chan struct{})}
}

func (f *Future[T]) complete(v T, err error) {
	f.value, f.err = v, err
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	obs.RecordTask(f.Kind, outcome)
	close(f.done)
}

// Done is closed when the task has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await waits for the task or ctx. Giving up on ctx abandons the future; the
// task itself keeps running to completion.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result pairs a task value with its error.
type Result[T any] struct {
	Value T
	Err   error
}

// AwaitAll joins every future. Per-task errors are reported in the results;
// the returned error is non-nil only when ctx ends before all tasks finish.
func AwaitAll[T any](ctx context.Context, futures []*Future[T]) ([]Result[T], error) {
	out := make([]Result[T], len(futures))
	var g errgroup.Group
	for i, f := range futures {
		if f == nil {
			continue
		}
		g.Go(func() error {
			v, err := f.Await(ctx)
			out[i] = Result[T]{Value: v, Err: err}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
