package bot

import (
	"context"
	"errors"
)

// ErrNotRunning is returned when a command is issued after the loop ended
// or before it started.
var ErrNotRunning = errors.New("bot loop is not running")

func (m *Manager) loop() {
	defer close(m.done)
	for {
		select {
		case task := <-m.tasks:
			task()
		case <-m.ctx.Done():
			return
		}
	}
}

// enqueue schedules fn without waiting for it. It reports false when the
// loop is gone.
func (m *Manager) enqueue(fn func()) bool {
	if m.ctx == nil {
		return false
	}
	select {
	case m.tasks <- fn:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// do runs fn on the loop and waits for it to finish.
func (m *Manager) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	queued := m.enqueue(func() {
		defer close(finished)
		fn()
	})
	if !queued {
		return ErrNotRunning
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrNotRunning
	}
}

// query runs fn on the loop and returns its result.
func query[T any](ctx context.Context, m *Manager, fn func() T) (T, error) {
	result := make(chan T, 1)
	if err := m.do(ctx, func() { result <- fn() }); err != nil {
		var zero T
		return zero, err
	}
	return <-result, nil
}

// run executes a fallible fn on the loop.
func (m *Manager) run(ctx context.Context, fn func() error) error {
	err, loopErr := query(ctx, m, fn)
	if loopErr != nil {
		return loopErr
	}
	return err
}
