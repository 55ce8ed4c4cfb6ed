// Package irq implements the IRQ dispatch contract: a fixed set of
// named interrupt lines, each with at most one registered handler,
// invoked with local interrupts disabled on the delivering CPU.
package irq

import (
	"fmt"
	"sync"

	"github.com/maystorm-os/kernel/hal"
)

// Reserved IRQ lines the scheduler itself requires.
const (
	// LPCTimer is the periodic preemption timer line.
	LPCTimer = "LPC_TIMER"
	// IPIHalt is the inter-processor interrupt used for halt and
	// reschedule broadcasts.
	IPIHalt = "IPI_HALT"
)

// Handler is called with local interrupts disabled on the delivering
// CPU. Handlers may wake threads through the signalling object
// machinery but must never block.
type Handler func(ctx uintptr)

// Controller dispatches named IRQ lines to registered handlers, each
// delivered on a specific hal.Cpu with that CPU's interrupts disabled
// for the duration of the handler.
type Controller struct {
	mu       sync.Mutex
	handlers map[string]registration
}

type registration struct {
	cpu     hal.Cpu
	handler Handler
	ctx     uintptr
}

// New returns an empty Controller.
func New() *Controller {
	return &Controller{handlers: make(map[string]registration)}
}

// Register installs handler for the named line, delivered on cpu with
// local interrupts disabled. Registering a name twice replaces the
// previous handler.
func (c *Controller) Register(name string, cpu hal.Cpu, handler Handler, ctx uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = registration{cpu: cpu, handler: handler, ctx: ctx}
}

// Unregister removes the handler for name, if any.
func (c *Controller) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, name)
}

// Fire delivers an interrupt on the named line, running its handler
// with the owning CPU's interrupts disabled. It panics if no handler
// is registered for name, matching a real controller routing to a
// line nothing claimed — a configuration bug, not a runtime condition
// to recover from.
func (c *Controller) Fire(name string) {
	c.mu.Lock()
	reg, ok := c.handlers[name]
	c.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("irq: no handler registered for line %q", name))
	}
	reg.cpu.WithoutInterrupts(func() {
		reg.handler(reg.ctx)
	})
}
