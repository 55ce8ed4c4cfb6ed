package irq

import "time"

// Ticker drives Controller.Fire(LPCTimer) at a fixed host interval,
// standing in for the real preemption timer IRQ (e.g. 1ms, per the
// scheduler's preemption tick) when no hardware timer is available.
type Ticker struct {
	ctl    *Controller
	ticker *time.Ticker
	done   chan struct{}
}

// StartTicker begins firing LPCTimer every interval on ctl, until
// Stop is called.
func StartTicker(ctl *Controller, interval time.Duration) *Ticker {
	t := &Ticker{
		ctl:    ctl,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *Ticker) loop() {
	for {
		select {
		case <-t.ticker.C:
			t.ctl.Fire(LPCTimer)
		case <-t.done:
			return
		}
	}
}

// Stop halts further ticks. Safe to call once.
func (t *Ticker) Stop() {
	t.ticker.Stop()
	close(t.done)
}
