// Package host provides a host-OS-backed hal.Cpu and hal.Allocator so
// the scheduler substrate runs standalone, without real x86_64
// hardware. WithoutInterrupts stands in for disabling local interrupts
// using the same short-critical-section mutex idiom the nsync package
// uses for its spinlock-protected waiter queues; there is no portable
// way to actually mask interrupts from user-space Go, so a per-CPU
// mutex is the faithful host analogue.
package host

import (
	"crypto/rand"
	"encoding/binary"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/maystorm-os/kernel/hal"
)

// CPU is a host-backed hal.Cpu. One instance must be used per emulated
// CPU — it is not meant to be shared, mirroring the real HAL where
// interrupt-disable state is per-core.
type CPU struct {
	mu      sync.Mutex
	waiting chan struct{}
}

var _ hal.Cpu = (*CPU)(nil)

// New returns a ready CPU.
func New() *CPU {
	return &CPU{waiting: make(chan struct{}, 1)}
}

// WithoutInterrupts runs f while holding this CPU's interrupt-disable
// mutex, standing in for masking local interrupts.
func (c *CPU) WithoutInterrupts(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f()
}

// SpinLoopHint yields the P to the Go scheduler briefly, the closest
// host analogue of a PAUSE instruction's "don't starve a sibling
// hyperthread" intent.
func (c *CPU) SpinLoopHint() {
	runtime.Gosched()
}

// WaitForInterrupt blocks until Notify is called (standing in for the
// real CPU halting until the next interrupt) or forever if never
// notified — the idle thread loops on this, so either is safe.
func (c *CPU) WaitForInterrupt() {
	<-c.waiting
}

// Notify wakes a CPU parked in WaitForInterrupt, standing in for an
// interrupt arriving. Non-blocking: a pending notification is coalesced.
func (c *CPU) Notify() {
	select {
	case c.waiting <- struct{}{}:
	default:
	}
}

// stoppedCount counts the calls to Stop, for tests that need to
// observe it.
var stoppedCount atomic.Int64

// Stop halts the calling goroutine forever, standing in for an x86
// HLT-in-a-loop with interrupts disabled used by Scheduler.Freeze.
func (c *CPU) Stop() {
	stoppedCount.Add(1)
	select {}
}

// TestAndSetBit atomically sets bit i of *word and returns its prior
// value, via a CAS loop (no portable interlocked bit-test instruction
// exists from Go).
func (c *CPU) TestAndSetBit(word *uint64, i uint) bool {
	mask := uint64(1) << i
	for {
		old := atomic.LoadUint64(word)
		if old&mask != 0 {
			return true
		}
		if atomic.CompareAndSwapUint64(word, old, old|mask) {
			return false
		}
	}
}

// TestAndClearBit atomically clears bit i of *word and returns its
// prior value.
func (c *CPU) TestAndClearBit(word *uint64, i uint) bool {
	mask := uint64(1) << i
	for {
		old := atomic.LoadUint64(word)
		if old&mask == 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(word, old, old&^mask) {
			return true
		}
	}
}

// SecureRand returns a random word from the host CSPRNG, standing in
// for an RDRAND instruction. crypto/rand is the correct choice here —
// no third-party library can emulate a CPU instruction any better than
// the standard library's own hardware-backed CSPRNG wrapper.
func (c *CPU) SecureRand() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Allocator is a host-backed hal.Allocator handing out zeroed Go
// byte slices. Alignment is obtained by over-allocating and slicing
// from the first aligned address; the regions are ordinary Go heap
// memory, not physical frames.
type Allocator struct{}

var _ hal.Allocator = Allocator{}

// ZAlloc returns a zeroed slice of size bytes, over-allocated and
// sliced so its start address is a multiple of align.
func (Allocator) ZAlloc(size, align int) ([]byte, bool) {
	if size <= 0 {
		return nil, false
	}
	if align <= 1 {
		return make([]byte, size), true
	}
	buf := make([]byte, size+align)
	off := 0
	// Round the start up to the next multiple of align within the
	// over-allocation; Go's heap does not move objects, so the address
	// stays aligned for the slice's lifetime.
	if rem := int(uintptr(unsafe.Pointer(&buf[0])) % uintptr(align)); rem != 0 {
		off = align - rem
	}
	return buf[off : off+size : off+size], true
}

// ZFree is a no-op on the host; the garbage collector reclaims the
// slice once unreferenced.
func (Allocator) ZFree(region []byte) {}
