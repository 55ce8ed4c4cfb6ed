package main

import (
	"fmt"
	"time"

	"github.com/maystorm-os/kernel/clock"
	"github.com/maystorm-os/kernel/cmdline"
	"github.com/maystorm-os/kernel/semaphore"
	"github.com/maystorm-os/kernel/timing"
)

var cmdTimeout = &cmdline.Command{
	Name:   "timeout",
	Short:  "timed wait timeout scenario",
	Runner: cmdline.RunnerFunc(runTimeout),
}

const timeoutScenarioDeadline = 50 * time.Millisecond

func runTimeout(env *cmdline.Env, args []string) error {
	sem := semaphore.New(0)

	before := time.Now()
	var outcome clock.Outcome
	timeScenario(env, "timeout", func(timer timing.Timer) {
		timer.Push("wait")
		outcome = sem.Wait(timeoutScenarioDeadline)
		timer.Pop()
	})
	elapsed := time.Since(before)

	pass := outcome == clock.TimedOut && elapsed >= timeoutScenarioDeadline && elapsed < 2*timeoutScenarioDeadline
	return report(env, "timeout", pass, fmt.Sprintf("outcome=%v elapsed=%v", outcome, elapsed))
}
