// Package semaphore implements a counting semaphore built on an
// AtomicIsize-equivalent counter and a single AtomicObject waiter
// slot, in the same spirit as nsync's binarySemaphore/waiter pairing
// but generalized to a counting value instead of a single bit.
package semaphore

import (
	"math"
	"time"

	"github.com/maystorm-os/kernel/atomics"
	"github.com/maystorm-os/kernel/clock"
	"github.com/maystorm-os/kernel/signalobj"
)

// maxBackoffDelay bounds the exponential back-off used when the
// waiter slot is already occupied, at 2^7 milliseconds.
const maxBackoffDelay = time.Millisecond << 7

// Semaphore is a counting semaphore. The zero value is a semaphore
// with a count of 0; use New for a non-zero initial count.
type Semaphore struct {
	count atomics.Enum[count]
	slot  atomics.Object[signalobj.Object]
}

type count uint64

// New returns a Semaphore initialized to n.
func New(n uint64) *Semaphore {
	s := &Semaphore{}
	s.count = *atomics.NewEnum(count(n))
	return s
}

// TryTo atomically decrements the count if it is >= 1, reporting
// whether it succeeded.
func (s *Semaphore) TryTo() bool {
	_, ok := s.count.FetchUpdate(func(c count) (count, bool) {
		if c < 1 {
			return c, false
		}
		return c - 1, true
	})
	return ok
}

// Wait blocks until a permit is available or deadline elapses,
// whichever comes first. A non-positive deadline blocks forever.
// Returns the Outcome: Ok if a permit was acquired, TimedOut if the
// deadline elapsed first, Cancelled if the wait was cancelled.
func (s *Semaphore) Wait(deadline time.Duration) clock.Outcome {
	if s.TryTo() {
		return clock.Ok
	}

	backoff := time.Millisecond
	for {
		obj := signalobj.New()
		if !s.slot.CompareAndSwap(nil, obj) {
			// Slot already occupied by another waiter; back off and
			// retry the whole try/park sequence.
			if s.TryTo() {
				return clock.Ok
			}
			time.Sleep(backoff)
			if backoff < maxBackoffDelay {
				backoff *= 2
			}
			continue
		}

		// Re-check the counter after publishing our slot but before
		// parking: a signal that raced with our CAS must not be lost.
		if s.TryTo() {
			s.slot.CompareAndSwap(obj, nil)
			return clock.Ok
		}

		outcome := obj.Wait(deadline)
		switch outcome {
		case clock.Ok:
			return clock.Ok
		case clock.TimedOut, clock.Cancelled:
			s.slot.CompareAndSwap(obj, nil)
			return outcome
		}
	}
}

// Signal increments the count. If the prior value was 0 (a
// was-empty transition) it wakes the current waiter, if any.
func (s *Semaphore) Signal() {
	wasEmpty := false
	s.count.FetchUpdate(func(c count) (count, bool) {
		if c == math.MaxUint64 {
			return c, false
		}
		wasEmpty = c == 0
		return c + 1, true
	})
	if !wasEmpty {
		return
	}
	if obj, ok := s.slot.Swap(nil); ok {
		obj.Signal()
	}
}

// Synchronized runs f while holding one permit, waiting forever for
// it to become available, and always signals afterward even if f
// panics.
func (s *Semaphore) Synchronized(f func()) {
	s.Wait(0)
	defer s.Signal()
	f()
}
