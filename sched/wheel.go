package sched

import (
	"sort"
	"sync"

	"github.com/maystorm-os/kernel/clock"
)

// wheelEntry parks a thread until deadline, or forever if cancelled
// first by whatever woke the thread some other way.
type wheelEntry struct {
	deadline clock.TimeSpec
	thread   *TCB
	fired    bool
}

// timerWheel holds pending deadline-based wakeups. A flat, mutex
// guarded, sorted slice is the emulated-hardware-timer-wheel
// equivalent fit for the CPU counts this module ever runs with;
// a real kernel would shard this per-CPU and use a hierarchical
// wheel, which is unnecessary here.
type timerWheel struct {
	mu      sync.Mutex
	entries []*wheelEntry
}

func newTimerWheel() *timerWheel {
	return &timerWheel{}
}

// Arm registers t to be made Ready at deadline, unless woken sooner.
func (w *timerWheel) Arm(t *TCB, deadline clock.TimeSpec) *wheelEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	e := &wheelEntry{deadline: deadline, thread: t}
	i := sort.Search(len(w.entries), func(i int) bool {
		return w.entries[i].deadline > deadline
	})
	w.entries = append(w.entries, nil)
	copy(w.entries[i+1:], w.entries[i:])
	w.entries[i] = e
	return e
}

// Cancel removes e if it has not already fired.
func (w *timerWheel) Cancel(e *wheelEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, cur := range w.entries {
		if cur == e {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return
		}
	}
}

// PopDue removes and returns every entry whose deadline has passed as
// of now, in deadline order.
func (w *timerWheel) PopDue(now clock.TimeSpec) []*wheelEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := 0
	for i < len(w.entries) && w.entries[i].deadline <= now {
		w.entries[i].fired = true
		i++
	}
	due := w.entries[:i]
	w.entries = w.entries[i:]
	return due
}
