package main

import (
	"fmt"
	"runtime"

	"github.com/maystorm-os/kernel/cmdline"
	"github.com/maystorm-os/kernel/fifo"
	"github.com/maystorm-os/kernel/hal/host"
	"github.com/maystorm-os/kernel/timing"
)

var cmdFifo = &cmdline.Command{
	Name:   "fifo",
	Short:  "producer/consumer over ConcurrentFifo(8)",
	Runner: cmdline.RunnerFunc(runFifo),
}

const fifoScenarioCount = 1000

func runFifo(env *cmdline.Env, args []string) error {
	cpu := host.New()
	q := fifo.New[int](cpu, 8)

	done := make(chan struct{})
	collected := make([]int, 0, fifoScenarioCount+1)

	timeScenario(env, "fifo", func(timer timing.Timer) {
		timer.Push("producer+consumer")
		go func() {
			for i := 0; i <= fifoScenarioCount; i++ {
				for {
					if _, ok := q.Enqueue(i); ok {
						break
					}
					runtime.Gosched()
				}
			}
		}()
		go func() {
			for len(collected) <= fifoScenarioCount {
				v, ok := q.Dequeue()
				if !ok {
					runtime.Gosched()
					continue
				}
				collected = append(collected, v)
			}
			close(done)
		}()
		<-done
		timer.Pop()
	})

	ok := true
	for i, v := range collected {
		if v != i {
			ok = false
			break
		}
	}
	return report(env, "fifo", ok, fmt.Sprintf("collected %d values in order", len(collected)))
}
