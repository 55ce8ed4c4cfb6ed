// Package signalobj implements the one-shot SignallingObject handle: a
// stable handle a blocked thread publishes, that a signaller wakes at
// most once.
//
// It plays the role nsync's waiter/binarySemaphore pair plays inside
// Mu and CV — a per-waiter wake primitive with an idempotent post —
// but is expressed as a closed-once channel (the idiomatic Go
// equivalent of nsync's atomic "waiting" flag guarding delivery)
// rather than a hand-rolled binary semaphore, since Go already
// provides a race-free one-shot broadcast primitive in the language
// itself.
package signalobj

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/maystorm-os/kernel/clock"
)

// Object is a one-shot wake handle. The zero value is not usable;
// construct with New. A *Object is the handle a waiter publishes into
// an atomics.Object[Object] slot (e.g. Semaphore's wait slot) — the
// garbage collector tracks that reference directly, so the handle
// stays alive for as long as any signaller might still reach it.
type Object struct {
	once    sync.Once
	ch      chan struct{}
	outcome atomic.Int32
}

// New returns a fresh, unsignalled Object.
func New() *Object {
	return &Object{ch: make(chan struct{})}
}

func (o *Object) fire(outcome clock.Outcome) bool {
	fired := false
	o.once.Do(func() {
		o.outcome.Store(int32(outcome))
		fired = true
		close(o.ch)
	})
	return fired
}

// Signal wakes the waiter, if any, exactly once. Repeated calls beyond
// the first are no-ops and return false.
func (o *Object) Signal() bool {
	return o.fire(clock.Ok)
}

// Cancel wakes the waiter with a Cancelled outcome instead of Ok,
// exactly once. Used when the thread holding a primitive this Object
// is parked on terminates, or a future this Object backs is dropped.
func (o *Object) Cancel() bool {
	return o.fire(clock.Cancelled)
}

// Wait blocks until Signal or Cancel is called, or d elapses (d <= 0
// means wait forever), and returns the outcome. Wait may be called
// more than once, or concurrently, and always observes the same
// outcome once the Object has fired.
func (o *Object) Wait(d time.Duration) clock.Outcome {
	if d <= 0 {
		<-o.ch
		return clock.Outcome(o.outcome.Load())
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-o.ch:
		return clock.Outcome(o.outcome.Load())
	case <-timer.C:
		return clock.TimedOut
	}
}

// Fired reports whether Signal or Cancel has already been called.
func (o *Object) Fired() bool {
	select {
	case <-o.ch:
		return true
	default:
		return false
	}
}
