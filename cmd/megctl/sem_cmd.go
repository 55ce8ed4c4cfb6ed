package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maystorm-os/kernel/cmdline"
	"github.com/maystorm-os/kernel/semaphore"
	"github.com/maystorm-os/kernel/timing"
)

var cmdSem = &cmdline.Command{
	Name:   "sem",
	Short:  "counting semaphore contention scenario",
	Runner: cmdline.RunnerFunc(runSem),
}

const (
	semScenarioPermits = 3
	semScenarioWorkers = 10
)

func runSem(env *cmdline.Env, args []string) error {
	sem := semaphore.New(semScenarioPermits)

	var inside atomic.Int32
	var maxInside atomic.Int32
	var violated atomic.Bool

	timeScenario(env, "sem", func(timer timing.Timer) {
		timer.Push("contention")
		var wg sync.WaitGroup
		wg.Add(semScenarioWorkers)
		for i := 0; i < semScenarioWorkers; i++ {
			go func() {
				defer wg.Done()
				sem.Wait(0)
				n := inside.Add(1)
				for {
					old := maxInside.Load()
					if n <= old || maxInside.CompareAndSwap(old, n) {
						break
					}
				}
				if n > semScenarioPermits {
					violated.Store(true)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				sem.Signal()
			}()
		}
		wg.Wait()
		timer.Pop()
	})

	pass := !violated.Load()
	return report(env, "sem", pass, fmt.Sprintf("observed max concurrency %d (limit %d)", maxInside.Load(), semScenarioPermits))
}
