package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/watchlist/internal/shared"
)

type op struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// opQueue runs submitted operations one at a time in submission order on a single worker goroutine.
type opQueue struct {
	ops     chan op
	stopped chan struct{}

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup
}

func newOpQueue(size int) *opQueue {
	q := &opQueue{
		ops:     make(chan op, size),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *opQueue) run() {
	defer close(q.stopped)
	for o := range q.ops {
		if err := o.ctx.Err(); err != nil {
			o.done <- err
			continue
		}
		o.done <- o.fn(o.ctx)
	}
}

// do enqueues fn and waits for its result. Once accepted, fn always runs to completion or is skipped
// because ctx ended before it reached the head of the queue.
func (q *opQueue) do(ctx context.Context, fn func(context.Context) error) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return shared.ErrSyncClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()

	o := op{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case q.ops <- o:
		q.senders.Done()
	case <-ctx.Done():
		q.senders.Done()
		return ctx.Err()
	}
	return <-o.done
}

// close stops accepting operations, drains the accepted ones and waits for the worker to exit.
// Must not be called from inside a queued operation.
func (q *opQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.stopped
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.senders.Wait()
	close(q.ops)
	<-q.stopped
}
