// Package fifo implements ConcurrentFifo, a bounded MPMC ring buffer
// safe to touch from IRQ bottom halves, and AsyncEventQueue, a waker
// aware wrapper the async executor polls against.
package fifo

import (
	"github.com/maystorm-os/kernel/hal"
	"github.com/maystorm-os/kernel/spinlock"
)

// ConcurrentFifo is a bounded, multi-producer multi-consumer ring
// buffer. Every Enqueue/Dequeue call disables local-CPU interrupts for
// its duration via the supplied hal.Cpu, since the queue is commonly
// shared with an interrupt handler's bottom half.
type ConcurrentFifo[T any] struct {
	guard spinlock.Guarded
	buf   []T
	head  int
	tail  int
	len   int
}

// New returns a ConcurrentFifo with the given capacity, guarded by
// cpu's interrupt-disable primitive.
func New[T any](cpu hal.Cpu, capacity int) *ConcurrentFifo[T] {
	return &ConcurrentFifo[T]{
		guard: *spinlock.NewGuarded(cpu),
		buf:   make([]T, capacity),
	}
}

// Enqueue appends v to the ring. On full, it returns v back to the
// caller along with ok=false so nothing is silently dropped.
func (f *ConcurrentFifo[T]) Enqueue(v T) (overflow T, ok bool) {
	f.guard.Synchronized(func() {
		if f.len == len(f.buf) {
			overflow = v
			return
		}
		f.buf[f.tail] = v
		f.tail = (f.tail + 1) % len(f.buf)
		f.len++
		ok = true
	})
	return overflow, ok
}

// Dequeue removes and returns the oldest value. ok is false on empty.
func (f *ConcurrentFifo[T]) Dequeue() (v T, ok bool) {
	f.guard.Synchronized(func() {
		if f.len == 0 {
			return
		}
		v = f.buf[f.head]
		var zero T
		f.buf[f.head] = zero
		f.head = (f.head + 1) % len(f.buf)
		f.len--
		ok = true
	})
	return v, ok
}

// Len reports the current number of queued values.
func (f *ConcurrentFifo[T]) Len() int {
	n := 0
	f.guard.Synchronized(func() {
		n = f.len
	})
	return n
}
