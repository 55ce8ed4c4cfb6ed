package fifo

import (
	"sync"

	"github.com/maystorm-os/kernel/hal"
)

// Waker is invoked when a value becomes available for a waiting
// consumer. The executor package supplies wakers that re-enqueue a
// pending task's id.
type Waker func()

// AsyncEventQueue wraps a ConcurrentFifo and tracks a single pending
// waker, letting an async executor poll for a value without busy
// looping. Post enqueues a value and fires the waker, if one is
// registered; WaitEvent hands back an Event future whose Poll
// method either returns the next value immediately or registers the
// caller's waker for the next Post.
type AsyncEventQueue[T any] struct {
	fifo  *ConcurrentFifo[T]
	mu    sync.Mutex
	waker Waker
}

// NewEventQueue returns an AsyncEventQueue backed by a ConcurrentFifo
// of the given capacity.
func NewEventQueue[T any](cpu hal.Cpu, capacity int) *AsyncEventQueue[T] {
	return &AsyncEventQueue[T]{fifo: New[T](cpu, capacity)}
}

// Post enqueues v and wakes the currently registered waker, if any.
// Returns false if the queue was full (v is handed back unqueued).
func (q *AsyncEventQueue[T]) Post(v T) (overflow T, ok bool) {
	overflow, ok = q.fifo.Enqueue(v)
	if ok {
		q.mu.Lock()
		w := q.waker
		q.waker = nil
		q.mu.Unlock()
		if w != nil {
			w()
		}
	}
	return overflow, ok
}

// Event is the future WaitEvent returns. Poll should be called by the
// executor each time the task is scheduled; it never blocks.
type Event[T any] struct {
	q *AsyncEventQueue[T]
}

// WaitEvent returns a future that resolves to the next queued value.
func (q *AsyncEventQueue[T]) WaitEvent() *Event[T] {
	return &Event[T]{q: q}
}

// Poll tries to dequeue a value. If one is available, it returns
// (v, true) meaning Ready(Some(v)). Otherwise it registers
// waker to be invoked on the next Post and returns (_, false)
// meaning Pending.
func (e *Event[T]) Poll(waker Waker) (v T, ready bool) {
	if val, ok := e.q.fifo.Dequeue(); ok {
		return val, true
	}
	e.q.mu.Lock()
	e.q.waker = waker
	e.q.mu.Unlock()
	// A value may have been posted between the failed Dequeue and
	// registering the waker; re-check so that post is never lost.
	if val, ok := e.q.fifo.Dequeue(); ok {
		e.q.mu.Lock()
		e.q.waker = nil
		e.q.mu.Unlock()
		return val, true
	}
	var zero T
	return zero, false
}

// Cancel clears the queue's waker slot, whichever waker is currently
// registered in it. Used when the future backing a poll is dropped
// before it resolves.
func (e *Event[T]) Cancel() {
	e.q.mu.Lock()
	e.q.waker = nil
	e.q.mu.Unlock()
}
