package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultQueueSize    = 64
	defaultWriteTimeout = 250 * time.Millisecond
)

var (
	ErrJournalClosed = errors.New("activity journal is closed")
	ErrJournalFull   = errors.New("activity journal queue is full")
)

// AsyncLogger writes entries on a background goroutine so a slow or locked
// state file never delays a command. Entries that do not fit in the queue are
// dropped and counted.
type AsyncLogger struct {
	sink    Logger
	onError func(error)

	mu      sync.Mutex
	closed  bool
	queue   chan Entry
	pending sync.WaitGroup
	stopped chan struct{}
	dropped atomic.Int64
}

func NewAsyncLogger(sink Logger, queueSize int, onError func(error)) *AsyncLogger {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	l := &AsyncLogger{
		sink:    sink,
		onError: onError,
		queue:   make(chan Entry, queueSize),
		stopped: make(chan struct{}),
	}
	go l.drain()
	return l
}

func (l *AsyncLogger) drain() {
	defer close(l.stopped)
	for entry := range l.queue {
		l.write(entry)
	}
}

func (l *AsyncLogger) write(entry Entry) {
	defer l.pending.Done()
	ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
	defer cancel()
	if err := l.sink.Log(ctx, entry); err != nil && l.onError != nil {
		l.onError(fmt.Errorf("record %s: %w", entry.Operation, err))
	}
}

// Log queues entry without waiting for the write.
func (l *AsyncLogger) Log(_ context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrJournalClosed
	}
	l.pending.Add(1)
	select {
	case l.queue <- entry:
		return nil
	default:
		l.pending.Done()
		l.dropped.Add(1)
		return ErrJournalFull
	}
}

// Dropped reports how many entries were lost to a full queue.
func (l *AsyncLogger) Dropped() int64 {
	return l.dropped.Load()
}

// Query reads through to the sink. Call WaitIdle first to see queued entries.
func (l *AsyncLogger) Query(ctx context.Context, filter Filter) (QueryResult, error) {
	return l.sink.Query(ctx, filter)
}

// WaitIdle blocks until every queued entry has been written.
func (l *AsyncLogger) WaitIdle(ctx context.Context) error {
	return waitFor(ctx, l.pending.Wait)
}

// Close stops accepting entries and waits for the queue to drain.
func (l *AsyncLogger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func waitFor(ctx context.Context, wait func()) error {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
