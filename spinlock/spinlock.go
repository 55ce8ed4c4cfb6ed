// Package spinlock implements a test-and-set spinlock with exponential
// back-off, and a Guarded lock wrapper for critical
// sections shared with interrupt context.
//
// The back-off loop is the same shape as nsync's spinDelay: spin a
// small number of times, then yield to the scheduler, repeating with a
// growing delay. This port caps the exponent at 2^6 pause hints
// instead of falling back to runtime.Gosched indefinitely, since the
// kernel's own scheduler (not the Go runtime's) owns preemption here.
package spinlock

import (
	"sync/atomic"
)

// maxBackoffShift bounds SpinLoopWait's exponential back-off at 2^6
// pause hints per round.
const maxBackoffShift = 6

// PauseHint is called once per spin iteration. It defaults to a no-op;
// hal.Cpu.SpinLoopHint should be installed here at boot so contended
// spins issue the architecture's PAUSE-equivalent instruction instead
// of busy-spinning at full issue width.
var PauseHint func() = func() {}

// SpinLoopWait implements the inner spin-wait loop: call Wait() once
// per failed attempt. It backs off exponentially, doubling the number
// of pause hints issued per round up to 2^6, then holding steady.
type SpinLoopWait struct {
	shift uint
}

// Wait issues one round of pause hints and advances the back-off
// state for the next round.
func (w *SpinLoopWait) Wait() {
	n := uint(1) << w.shift
	for i := uint(0); i < n; i++ {
		PauseHint()
	}
	if w.shift < maxBackoffShift {
		w.shift++
	}
}

// Reset returns the wait state to its initial back-off, for reuse
// across independent spin attempts.
func (w *SpinLoopWait) Reset() {
	w.shift = 0
}

// SpinLock is a test-and-set spinlock. Its zero value is unlocked.
//
// SpinLock must never be held while the current CPU may sleep, take a
// page fault that could reschedule, or be preempted into another
// thread that also takes this lock — any of those is a deadlock. A
// lock that is also acquired from interrupt context must always be
// taken through a Guarded wrapper; mixing guarded and unguarded
// acquisition of the same lock is a bug.
type SpinLock struct {
	held atomic.Bool
}

// TryLock attempts to acquire the lock without spinning, Acquire CAS.
func (s *SpinLock) TryLock() bool {
	return s.held.CompareAndSwap(false, true)
}

// Lock spins until the lock is acquired.
func (s *SpinLock) Lock() {
	var w SpinLoopWait
	for !s.TryLock() {
		for s.held.Load() {
			w.Wait()
		}
	}
}

// Unlock releases the lock, Release ordering.
func (s *SpinLock) Unlock() {
	s.held.Store(false)
}

// Synchronized runs f with the lock held, releasing it even if f
// panics, and re-raises the panic after unlocking.
func (s *SpinLock) Synchronized(f func()) {
	s.Lock()
	defer s.Unlock()
	f()
}
