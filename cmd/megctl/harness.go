package main

import (
	"time"

	"github.com/maystorm-os/kernel/clock/hosthpet"
	"github.com/maystorm-os/kernel/hal"
	"github.com/maystorm-os/kernel/hal/host"
	"github.com/maystorm-os/kernel/irq"
	"github.com/maystorm-os/kernel/kconfig"
	"github.com/maystorm-os/kernel/klog"
	"github.com/maystorm-os/kernel/sched"
)

// preemptionTickPeriod matches kconfig.DefaultQuantum, since the
// scheduler counts ticks, not wall time, toward a thread's quantum.
const preemptionTickPeriod = time.Millisecond

// rig is one boot of the substrate: N emulated CPUs, a host-monotonic
// clock, a config hub, a scheduler, and a preemption-timer IRQ driving
// Scheduler.Tick. shutdown stops the ticker and freezes every CPU.
type rig struct {
	Scheduler *sched.Scheduler
	Hub       *kconfig.Hub
	cpus      []hal.Cpu
	ticker    *irq.Ticker
	ctl       *irq.Controller
}

func bootRig(numCPUs int) *rig {
	cpus := make([]hal.Cpu, numCPUs)
	for i := range cpus {
		cpus[i] = host.New()
	}
	hub := kconfig.New()
	applyTunables(hub, globalTunables)
	s := sched.New(cpus, hosthpet.New(), host.Allocator{}, hub)
	klog.SetFreezer(s)

	ctl := irq.New()
	ctl.Register(irq.LPCTimer, cpus[0], func(ctx uintptr) { s.Tick() }, 0)
	ticker := irq.StartTicker(ctl, preemptionTickPeriod)

	return &rig{Scheduler: s, Hub: hub, cpus: cpus, ticker: ticker, ctl: ctl}
}

func (r *rig) shutdown() {
	r.ticker.Stop()
	r.Scheduler.Freeze(false)
}
