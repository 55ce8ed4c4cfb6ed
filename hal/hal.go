// Package hal declares the architecture and memory-manager interfaces
// the scheduler substrate consumes from the rest of the kernel. The
// boot protocol, page tables, and device drivers that implement these
// interfaces are out of scope for this module; hal/host provides a
// host-OS-backed implementation of each so the substrate runs
// standalone.
package hal

// Cpu is the architecture HAL the scheduler and spinlock packages
// depend on.
type Cpu interface {
	// WithoutInterrupts disables local-CPU interrupts for the
	// duration of f and restores the prior state afterwards, even if
	// f panics.
	WithoutInterrupts(f func())

	// SpinLoopHint issues the architecture's spin-wait hint
	// instruction (e.g. PAUSE on x86_64).
	SpinLoopHint()

	// WaitForInterrupt parks the calling CPU until the next
	// interrupt, used by the per-CPU idle thread.
	WaitForInterrupt()

	// Stop halts the calling CPU permanently. Used by Scheduler.Freeze.
	Stop()

	// TestAndSetBit atomically sets bit i of *word and returns its
	// prior value.
	TestAndSetBit(word *uint64, i uint) bool

	// TestAndClearBit atomically clears bit i of *word and returns
	// its prior value.
	TestAndClearBit(word *uint64, i uint) bool

	// SecureRand returns a hardware random word (e.g. RDRAND), or an
	// error if the instruction is unavailable.
	SecureRand() (uint64, error)
}

// Allocator is the page-frame allocator the scheduler consumes to
// back new kernel stacks. It always returns zeroed, aligned memory.
type Allocator interface {
	// ZAlloc returns a zeroed region of at least size bytes aligned
	// to align (a power of two), or ok=false on exhaustion.
	ZAlloc(size, align int) (region []byte, ok bool)

	// ZFree releases a region previously returned by ZAlloc.
	ZFree(region []byte)
}
