package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/maystorm-os/kernel/cmdline"
	"github.com/maystorm-os/kernel/sched"
	"github.com/maystorm-os/kernel/timing"
)

var cmdFairness = &cmdline.Command{
	Name:   "fairness",
	Short:  "preemption fairness scenario",
	Runner: cmdline.RunnerFunc(runFairness),
}

const (
	fairnessScenarioThreads   = 3
	fairnessScenarioDuration  = 300 * time.Millisecond
	fairnessScenarioTolerance = 0.10
)

// runFairness counts each thread's dispatch slices rather than wall
// time directly: all three threads are spawned together and never
// block, so slices granted is a direct, race-free proxy for the
// share of the single CPU each one actually received.
func runFairness(env *cmdline.Env, args []string) error {
	r := bootRig(1) // all three threads share a single CPU, per the scenario
	defer r.shutdown()

	slices := make([]int, fairnessScenarioThreads)
	var wg sync.WaitGroup
	wg.Add(fairnessScenarioThreads)
	stop := make(chan struct{})

	for i := 0; i < fairnessScenarioThreads; i++ {
		i := i
		var self *sched.TCB
		self, _ = r.Scheduler.Spawn(func(arg interface{}) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if r.Scheduler.Checkpoint(self) {
					slices[i]++
				}
			}
		}, nil, fmt.Sprintf("fair-%d", i), sched.PriorityNormal, 0)
	}

	timeScenario(env, "fairness", func(timer timing.Timer) {
		timer.Push("run")
		time.Sleep(fairnessScenarioDuration)
		close(stop)
		wg.Wait()
		timer.Pop()
	})

	total := 0
	for _, n := range slices {
		total += n
	}

	pass := total > 0
	detail := ""
	for i, n := range slices {
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total)
		}
		runtimeShare := time.Duration(share * float64(fairnessScenarioDuration))
		expected := fairnessScenarioDuration / fairnessScenarioThreads
		lo := float64(expected) * (1 - fairnessScenarioTolerance)
		hi := float64(expected) * (1 + fairnessScenarioTolerance)
		if total > 0 && (float64(runtimeShare) < lo || float64(runtimeShare) > hi) {
			pass = false
		}
		detail += fmt.Sprintf("thread %d: %d slices (~%v, want ~%v) ", i, n, runtimeShare, expected)
	}
	return report(env, "fairness", pass, detail)
}
