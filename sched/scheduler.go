// Package sched implements the preemptive scheduler substrate: TCBs,
// per-CPU run queues split into priority classes, dispatch, spawn,
// yield/park/unpark, join/exit, and the panic-time freeze path.
//
// Emulated CPUs are goroutines, one per hal.Cpu, each running a tight
// dispatch loop. A spawned thread also gets its own goroutine, but it
// only ever executes while its CPU's dispatch loop has handed it the
// "gate" token — exactly one thread runs per CPU at a time, which is
// the invariant a real context switch enforces by construction. Go
// cannot safely swap an arbitrary goroutine's stack pointer from the
// outside, so this substitutes a channel handoff for the save/restore
// step: the effect on every state-machine and queuing invariant this
// package is responsible for is identical, only the mechanism differs.
package sched

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maystorm-os/kernel/clock"
	"github.com/maystorm-os/kernel/hal"
	"github.com/maystorm-os/kernel/kconfig"
	"github.com/maystorm-os/kernel/klog"
	"github.com/maystorm-os/kernel/ratelimit"
)

const stackSize = 64 * 1024
const stackAlign = 16

// overrunWindow bounds how often the "thread not checkpointing" warning
// can repeat per thread, so a tight loop that never yields cannot flood
// the console.
const overrunWindow = time.Second

// cpuState is the per-CPU dispatch loop's state: its run queues and
// the channel its currently-running thread uses to hand the CPU back.
type cpuState struct {
	idx      int
	cpu      hal.Cpu
	mu       sync.Mutex
	queues   [numPriorities][]*TCB
	running  *TCB
	released chan struct{}
	idle     *TCB
	stream   *kconfig.Stream
}

// Scheduler owns every CPU's dispatch loop, the global thread table,
// and the timer wheel blocking primitives park against.
type Scheduler struct {
	cpus      []*cpuState
	threads   sync.Map // ThreadID -> *TCB
	nextID    atomic.Uint64
	clockSrc  clock.Source
	hub       *kconfig.Hub
	wheel     *timerWheel
	alloc     hal.Allocator
	frozen    atomic.Bool
	panicOnce sync.Once
	overruns  *ratelimit.Limiter
}

// New returns a Scheduler with one dispatch loop per entry in cpus,
// each started immediately and initially running that CPU's idle
// thread. hub supplies the quantum tunable; every CPU gets exactly one
// idle thread, and the hub's idle-per-cpu setting is not read.
func New(cpus []hal.Cpu, clockSrc clock.Source, alloc hal.Allocator, hub *kconfig.Hub) *Scheduler {
	s := &Scheduler{
		clockSrc: clockSrc,
		hub:      hub,
		wheel:    newTimerWheel(),
		alloc:    alloc,
		overruns: ratelimit.New(overrunWindow, 1),
	}
	for i, cpu := range cpus {
		c := &cpuState{
			idx:      i,
			cpu:      cpu,
			released: make(chan struct{}),
			stream:   hub.Fork("quantum"),
		}
		idle := newTCB(ThreadID(0), fmt.Sprintf("idle/%d", i), PriorityIdle)
		idle.cpu.Store(int32(i))
		c.idle = idle
		s.cpus = append(s.cpus, c)
		go s.runIdle(c)
		go s.runCPU(c)
	}
	return s
}

// cpuNotifier is implemented by hal.Cpu backends (e.g. hal/host.CPU)
// that can be woken out of WaitForInterrupt directly. It is optional:
// the preemption tick is itself a real interrupt on hardware, so a
// backend without it still wakes at the next tick, same as idling
// silicon waking on the next timer interrupt.
type cpuNotifier interface {
	Notify()
}

// Tick performs one preemption-timer IRQ's worth of work: advance the
// clock, pop and wake due wheel entries, debit the running thread's
// quantum on every CPU (requesting a reschedule on exhaustion), and
// wake any CPU parked in WaitForInterrupt so it reconsiders its run
// queue.
func (s *Scheduler) Tick() {
	now := s.clockSrc.Measure()
	for _, e := range s.wheel.PopDue(now) {
		s.wake(e.thread, clock.TimedOut)
	}
	for _, c := range s.cpus {
		c.mu.Lock()
		t := c.running
		c.mu.Unlock()
		if t == nil || t == c.idle {
			if n, ok := c.cpu.(cpuNotifier); ok {
				n.Notify()
			}
			continue
		}
		if t.quantum.Add(-1) <= 0 {
			if t.preempt.Swap(true) && s.overruns.Allow(t.id) {
				klog.Warningf("sched: thread %q (id %d) has not reached a Checkpoint across multiple quanta", t.name, t.id)
			}
		}
	}
}

// Spawn allocates a TCB and a kernel stack, starts its goroutine
// parked at the gate, and enqueues it Ready on cpuIdx's run queue.
// Returns an error (the only fallible scheduler operation) if the
// stack allocation fails.
func (s *Scheduler) Spawn(entry func(arg interface{}), arg interface{}, name string, pri Priority, cpuIdx int) (*TCB, error) {
	if _, ok := s.alloc.ZAlloc(stackSize, stackAlign); !ok {
		return nil, fmt.Errorf("sched: out of memory spawning %q", name)
	}
	id := ThreadID(s.nextID.Add(1))
	t := newTCB(id, name, pri)
	t.cpu.Store(int32(cpuIdx))
	t.state.Store(uint64(StateReady))
	s.threads.Store(id, t)
	go s.trampoline(t, entry, arg)
	s.enqueueReady(t)
	return t, nil
}

func (s *Scheduler) trampoline(t *TCB, entry func(interface{}), arg interface{}) {
	<-t.gate
	entry(arg)
	s.Exit(t)
}

func (s *Scheduler) runIdle(c *cpuState) {
	<-c.idle.gate
	for {
		c.cpu.WaitForInterrupt()
		s.Yield(c.idle)
		<-c.idle.gate
	}
}

func (s *Scheduler) runCPU(c *cpuState) {
	for {
		if s.frozen.Load() {
			c.cpu.Stop()
			return
		}
		next := c.pickNext()
		next.state.Store(uint64(StateRunning))
		c.mu.Lock()
		c.running = next
		c.mu.Unlock()
		next.quantum.Store(s.quantumTicks(c))
		next.preempt.Store(false)
		next.gate <- struct{}{}
		<-c.released
	}
}

func (c *cpuState) pickNext() *TCB {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pri := PriorityHigh; pri < PriorityIdle; pri++ {
		q := c.queues[pri]
		if len(q) > 0 {
			t := q[0]
			c.queues[pri] = q[1:]
			return t
		}
	}
	return c.idle
}

func (s *Scheduler) quantumTicks(c *cpuState) int64 {
	c.stream.Drain()
	d := c.stream.QuantumOf()
	if d <= 0 {
		d = kconfig.DefaultQuantum
	}
	// one tick per Scheduler.Tick call (one preemption-timer period).
	ticks := d / time.Millisecond
	if ticks < 1 {
		ticks = 1
	}
	return int64(ticks)
}

func (s *Scheduler) enqueueReady(t *TCB) {
	t.state.Store(uint64(StateReady))
	c := s.cpus[t.cpu.Load()]
	c.mu.Lock()
	c.queues[t.priority] = append(c.queues[t.priority], t)
	c.mu.Unlock()
}

func (s *Scheduler) release(t *TCB) {
	c := s.cpus[t.cpu.Load()]
	c.mu.Lock()
	c.running = nil
	c.mu.Unlock()
	c.released <- struct{}{}
}

// Checkpoint is the cooperative preemption point long-running thread
// code must call at loop boundaries: if the preemption tick has
// exhausted this thread's quantum, it yields here instead of running
// unbounded. A thread that never calls Checkpoint cannot be forced
// off the CPU, the same way pre-SMP cooperative kernels worked before
// involuntary preemption — true involuntary preemption would require
// suspending an arbitrary goroutine's machine context, which Go does
// not expose safely.
// It reports whether it actually yielded, which callers may use to
// track how many dispatch slices they have been granted.
func (s *Scheduler) Checkpoint(t *TCB) bool {
	if t.preempt.CompareAndSwap(true, false) {
		s.Yield(t)
		return true
	}
	return false
}

// Yield requeues t at the tail of its class and reschedules.
func (s *Scheduler) Yield(t *TCB) {
	s.enqueueReady(t)
	s.release(t)
	<-t.gate
}

// Park transitions t to Waiting and reschedules, unless an Unpark
// already deposited this thread's one-shot wake token, in which case
// Park consumes it and returns immediately without ever leaving the
// CPU.
func (s *Scheduler) Park(t *TCB) {
	if t.parkToken.CompareAndSwap(true, false) {
		return
	}
	t.state.Store(uint64(StateWaiting))
	s.release(t)
	<-t.gate
}

// Unpark clears t's parked state and makes it Ready. If t was not
// parked, the wake is remembered as a one-token capacity so a
// subsequent Park returns immediately, matching pthread park
// semantics.
func (s *Scheduler) Unpark(t *TCB) {
	if State(t.state.Load()) != StateWaiting {
		t.parkToken.Store(true)
		return
	}
	s.enqueueReady(t)
}

// WaitDeadline parks t until Unpark/Signal is called or d elapses,
// whichever first, registering a wheel entry when d > 0. Returns the
// Outcome.
func (s *Scheduler) WaitDeadline(t *TCB, d time.Duration) clock.Outcome {
	var entry *wheelEntry
	if d > 0 {
		entry = s.wheel.Arm(t, s.clockSrc.Measure().Add(d))
	}
	t.state.Store(uint64(StateWaiting))
	t.outcome.Store(int64(clock.Ok))
	s.release(t)
	<-t.gate
	if entry != nil {
		s.wheel.Cancel(entry)
	}
	return clock.Outcome(t.outcome.Load())
}

func (s *Scheduler) wake(t *TCB, outcome clock.Outcome) {
	if State(t.state.Load()) != StateWaiting {
		return
	}
	t.outcome.Store(int64(outcome))
	s.enqueueReady(t)
}

// Signal wakes t with Ok, as if a SignallingObject fired for it.
func (s *Scheduler) Signal(t *TCB) { s.wake(t, clock.Ok) }

// Exit marks t Terminated, fires its exit signal for any joiner, and
// gives up the CPU permanently — the trampoline goroutine returns
// right after this call.
func (s *Scheduler) Exit(t *TCB) {
	t.state.Store(uint64(StateTerminated))
	t.exitSig.Signal()
	s.release(t)
}

// Join blocks the calling goroutine (not necessarily a scheduled
// thread) until target has exited.
func (s *Scheduler) Join(target *TCB) {
	target.exitSig.Wait(0)
	s.threads.Delete(target.id)
}

// Freeze stops every CPU's dispatch loop after its current thread
// gives up the CPU, used by klog.Fatal on kernel panic. A single
// caller should win the race to freeze; subsequent calls are no-ops.
// A CPU idling in WaitForInterrupt is woken by its idle thread's own
// Yield/dispatch cycle, so setting the flag is enough — no separate
// IPI broadcast is needed at this level of emulation.
func (s *Scheduler) Freeze(panicking bool) {
	s.panicOnce.Do(func() {
		s.frozen.Store(true)
	})
}

// Lookup returns the TCB for id, if it is still live.
func (s *Scheduler) Lookup(id ThreadID) (*TCB, bool) {
	v, ok := s.threads.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*TCB), true
}
