package main

import (
	"fmt"
	"time"

	"github.com/maystorm-os/kernel/clock"
	"github.com/maystorm-os/kernel/cmdline"
	"github.com/maystorm-os/kernel/semaphore"
	"github.com/maystorm-os/kernel/timing"
)

var cmdRace = &cmdline.Command{
	Name:   "race",
	Short:  "signal-races-timeout scenario",
	Runner: cmdline.RunnerFunc(runRace),
}

const (
	raceScenarioSignalAt = 25 * time.Millisecond
	raceScenarioDeadline = 50 * time.Millisecond
)

func runRace(env *cmdline.Env, args []string) error {
	sem := semaphore.New(0)

	go func() {
		time.Sleep(raceScenarioSignalAt)
		sem.Signal()
	}()

	before := time.Now()
	var outcome clock.Outcome
	timeScenario(env, "race", func(timer timing.Timer) {
		timer.Push("wait")
		outcome = sem.Wait(raceScenarioDeadline)
		timer.Pop()
	})
	elapsed := time.Since(before)

	// No spurious extra wake: the signal grants exactly one permit,
	// so a second non-blocking try must fail immediately.
	extraWake := sem.TryTo()

	pass := outcome == clock.Ok && elapsed < raceScenarioDeadline && !extraWake
	return report(env, "race", pass, fmt.Sprintf("outcome=%v elapsed=%v extraWake=%v", outcome, elapsed, extraWake))
}
