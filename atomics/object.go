// Package atomics provides word-sized atomic wrappers for optional
// handles, flag sets, and closed enums — the building blocks every
// other package in this module uses to publish state across CPUs
// without a lock.
//
// The bitflag/enum patterns here are the same one the nsync Mu/CV word
// fields use (a single machine word, mutated with atomic CAS loops
// instead of a mutex): see the muLock/muSpinlock/muWaiting bit layout
// and spinTestAndSet in the nsync package this was ported from.
package atomics

import "sync/atomic"

// Object is a word-sized atomic slot holding an optional handle to a
// T — "optional" meaning a nil *T represents None, the same "0 means
// absent" convention every AtomicObject slot in this module follows,
// since Go's runtime already reserves the nil pointer for this
// purpose and tracks it as a
// proper GC root (unlike packing a pointer into a bare machine word,
// which the garbage collector cannot see). This is the slot type
// Semaphore uses to publish its current waiter's SignallingObject.
type Object[T any] struct {
	p atomic.Pointer[T]
}

// NewObject returns an empty Object.
func NewObject[T any]() *Object[T] {
	return &Object[T]{}
}

// Load reads the current value with Acquire ordering. ok is false iff
// the slot is empty.
func (o *Object[T]) Load() (v *T, ok bool) {
	v = o.p.Load()
	return v, v != nil
}

// Store writes v (nil clears the slot) with Release ordering.
func (o *Object[T]) Store(v *T) {
	o.p.Store(v)
}

// Swap atomically replaces the slot and returns the previous value,
// AcqRel ordering.
func (o *Object[T]) Swap(v *T) (old *T, ok bool) {
	old = o.p.Swap(v)
	return old, old != nil
}

// CompareAndSwap stores new in place of old, iff the slot currently
// holds old. Returns whether the swap happened. SeqCst on success,
// Relaxed on failure, per spec.
func (o *Object[T]) CompareAndSwap(old, new *T) bool {
	return o.p.CompareAndSwap(old, new)
}

// Map atomically applies f to the current value and retries on
// conflict (a CAS loop), returning the value that was installed.
func (o *Object[T]) Map(f func(v *T) *T) *T {
	for {
		cur := o.p.Load()
		next := f(cur)
		if o.p.CompareAndSwap(cur, next) {
			return next
		}
	}
}
