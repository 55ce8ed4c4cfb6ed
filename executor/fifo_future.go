package executor

import "github.com/maystorm-os/kernel/fifo"

// EventFuture adapts a fifo.AsyncEventQueue's WaitEvent into the
// executor's Future contract, feeding the polled value to onValue
// exactly once before resolving Ready.
type EventFuture[T any] struct {
	event   *fifo.Event[T]
	onValue func(T)
}

// WaitEventFuture returns a Future that resolves as soon as q has a
// value, handing it to onValue.
func WaitEventFuture[T any](q *fifo.AsyncEventQueue[T], onValue func(T)) *EventFuture[T] {
	return &EventFuture[T]{event: q.WaitEvent(), onValue: onValue}
}

// Poll implements Future.
func (f *EventFuture[T]) Poll(waker func()) PollResult {
	v, ready := f.event.Poll(fifo.Waker(waker))
	if !ready {
		return Pending
	}
	f.onValue(v)
	return Ready
}
