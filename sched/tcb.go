package sched

import (
	"sync/atomic"

	"github.com/maystorm-os/kernel/signalobj"
)

// TCB is a thread control block: the scheduler's bookkeeping for one
// spawned thread. Its entry function executes on a dedicated
// goroutine that blocks on gate between dispatches — the channel
// handoff stands in for saving/restoring a real stack pointer, since
// Go gives no safe way to suspend and resume an arbitrary goroutine's
// machine context from outside it.
type TCB struct {
	id       ThreadID
	name     string
	priority Priority
	state    atomic.Uint64 // State, atomic so Dispatch and blocking calls agree

	cpu atomic.Int32 // index of the owning CPU's run queues

	quantum atomic.Int64 // remaining preemption ticks this dispatch
	preempt atomic.Bool  // set by the preemption tick, cleared at Checkpoint
	outcome atomic.Int64 // clock.Outcome of the most recent WaitDeadline

	parkToken atomic.Bool // one-shot unpark-before-park capacity

	gate chan struct{} // CPU sends here to grant this thread the CPU

	wait *signalobj.Object // current blocking primitive's wake handle, if any

	exitSig *signalobj.Object // fired exactly once, when this thread exits
}

func newTCB(id ThreadID, name string, pri Priority) *TCB {
	return &TCB{
		id:       id,
		name:     name,
		priority: pri,
		gate:     make(chan struct{}),
		exitSig:  signalobj.New(),
	}
}

// ID returns the thread's identifier.
func (t *TCB) ID() ThreadID { return t.id }

// Name returns the thread's human-readable name.
func (t *TCB) Name() string { return t.name }

// Priority returns the thread's run-queue class.
func (t *TCB) Priority() Priority { return t.priority }

// State returns the thread's current scheduler state.
func (t *TCB) State() State { return State(t.state.Load()) }
