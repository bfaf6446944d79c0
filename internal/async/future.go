// Package async запускает синхронные вызовы в фоне и отдаёт результат через Future.
package async

import (
	"context"
	"fmt"
)

// Future — результат вызова, выполняемого в отдельной горутине.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Run запускает fn в горутине. Если ctx уже отменён, fn не вызывается.
func Run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("async call panicked: %v", r)
			}
		}()

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.value, f.err = fn(ctx)
	}()

	return f
}

// Done закрывается, когда вызов завершён.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await ждёт завершения вызова или отмены ctx.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
