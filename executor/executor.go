// Package executor implements the cooperative async executor: tasks
// identified by a monotonic id, polled from a ready-to-run FIFO, with
// a Waker that re-enqueues a task's id when invoked. It is meant to
// run inside one or more kernel threads (see sched), but has no
// dependency on sched itself — any goroutine can call Run.
package executor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/maystorm-os/kernel/klog"
	"github.com/maystorm-os/kernel/ratelimit"
)

// overflowWindow bounds how often the ready-queue-full warning can
// repeat, so a saturated executor cannot flood the console.
const overflowWindow = time.Second

// TaskID is a monotonically increasing task identity.
type TaskID uint64

// PollResult is what a Future reports back to the executor each time
// it is polled.
type PollResult int

const (
	// Pending means the future is not ready; it has registered its
	// waker and must be left alone until that waker fires.
	Pending PollResult = iota
	// Ready means the future resolved and the task should be dropped.
	Ready
)

// Future is the minimal poll contract the executor drives. Poll is
// called with a waker the future should retain and invoke exactly
// once, when it becomes worth polling again.
type Future interface {
	Poll(waker func()) PollResult
}

// Executor drains a ready-to-poll queue: for each ready task id it
// polls the matching future; a Ready result drops the task, a Pending
// result leaves it alone until its waker re-enqueues it.
type Executor struct {
	nextID atomic.Uint64

	mu    sync.Mutex
	tasks map[TaskID]Future

	ready    chan TaskID
	overflow *ratelimit.Limiter
}

// New returns an Executor with the given ready-queue capacity.
func New(capacity int) *Executor {
	return &Executor{
		tasks:    make(map[TaskID]Future),
		ready:    make(chan TaskID, capacity),
		overflow: ratelimit.New(overflowWindow, 1),
	}
}

// Spawn registers f as a new task and schedules its first poll.
func (e *Executor) Spawn(f Future) TaskID {
	id := TaskID(e.nextID.Add(1))
	e.mu.Lock()
	e.tasks[id] = f
	e.mu.Unlock()
	e.enqueue(id)
	return id
}

func (e *Executor) enqueue(id TaskID) {
	select {
	case e.ready <- id:
	default:
		// Ready queue is full; drop and rely on the task's own waker
		// having already been registered to eventually retry. A real
		// kernel would size this queue to its thread count and treat
		// overflow as a configuration bug; this matches the
		// ConcurrentFifo "drop rather than block an interrupt" contract.
		if e.overflow.Allow("ready-queue-overflow") {
			klog.Warningf("executor: ready queue full, dropped task %d", id)
		}
	}
}

// RunOne polls the next ready task, if any, and returns whether a
// task was polled. It never blocks.
func (e *Executor) RunOne() bool {
	select {
	case id := <-e.ready:
		e.poll(id)
		return true
	default:
		return false
	}
}

// Run drains the ready queue, blocking until stop is closed. Intended
// to be the body of a dedicated kernel thread.
func (e *Executor) Run(stop <-chan struct{}) {
	for {
		select {
		case id := <-e.ready:
			e.poll(id)
		case <-stop:
			return
		}
	}
}

func (e *Executor) poll(id TaskID) {
	e.mu.Lock()
	f, ok := e.tasks[id]
	e.mu.Unlock()
	if !ok {
		// Already dropped (e.g. the waker fired twice); nothing to do.
		return
	}
	waker := func() { e.enqueue(id) }
	if f.Poll(waker) == Ready {
		e.mu.Lock()
		delete(e.tasks, id)
		e.mu.Unlock()
	}
}

// NumTasks reports how many tasks are currently registered.
func (e *Executor) NumTasks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}
