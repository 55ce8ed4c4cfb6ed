package spinlock

import "github.com/maystorm-os/kernel/hal"

// Guarded wraps a SpinLock that is also acquired from interrupt
// context. It always disables local interrupts for the duration of
// the critical section — callers should prefer Guarded over a bare
// SpinLock whenever a handler registered through irq.Register might
// also take the same lock.
type Guarded struct {
	cpu  hal.Cpu
	lock SpinLock
}

// NewGuarded returns a Guarded lock that disables interrupts on cpu
// for each critical section.
func NewGuarded(cpu hal.Cpu) *Guarded {
	return &Guarded{cpu: cpu}
}

// Synchronized disables local interrupts, acquires the lock, runs f,
// then releases the lock and restores interrupts — in that order,
// even if f panics.
func (g *Guarded) Synchronized(f func()) {
	g.cpu.WithoutInterrupts(func() {
		g.lock.Synchronized(f)
	})
}
