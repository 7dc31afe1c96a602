// Package persist writes bot state to the key-value store off the bot loop.
package persist

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// KV is the durable store the writer flushes to.
type KV interface {
	Set(ctx context.Context, key string, value any) error
}

// Writer queues fire-and-forget writes and flushes them from a background
// goroutine. Writes to the same key coalesce to the latest value; distinct
// keys are written in the order they were first queued.
type Writer struct {
	kv     KV
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]any
	order   []string

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWriter creates a writer. Call Start to begin flushing.
func NewWriter(kv KV, logger *zap.Logger) *Writer {
	return &Writer{
		kv:      kv,
		logger:  logger,
		pending: make(map[string]any),
		wake:    make(chan struct{}, 1),
	}
}

// Save queues value for key. The value must not be mutated afterwards.
func (w *Writer) Save(key string, value any) {
	w.mu.Lock()
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = value
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start begins the flush loop.
func (w *Writer) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx)
}

// Stop ends the loop and writes whatever is still queued.
func (w *Writer) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	w.Flush(context.Background())
}

// Flush writes every queued value now. Failures are logged and dropped.
func (w *Writer) Flush(ctx context.Context) {
	for {
		key, value, ok := w.next()
		if !ok {
			return
		}
		if err := w.kv.Set(ctx, key, value); err != nil {
			w.logger.Error("persist write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Pending returns the number of keys waiting to be written.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.order)
}

// loop writes with a context detached from cancellation: a value popped from
// the queue must reach the store even when Stop lands mid-flush.
func (w *Writer) loop(ctx context.Context) {
	defer close(w.done)
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-w.wake:
			w.Flush(writeCtx)
		case <-ctx.Done():
			w.Flush(writeCtx)
			return
		}
	}
}

func (w *Writer) next() (string, any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.order) == 0 {
		return "", nil, false
	}
	key := w.order[0]
	w.order = w.order[1:]
	value := w.pending[key]
	delete(w.pending, key)
	return key, value, true
}
