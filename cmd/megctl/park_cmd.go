package main

import (
	"fmt"
	"time"

	"github.com/maystorm-os/kernel/cmdline"
	"github.com/maystorm-os/kernel/sched"
	"github.com/maystorm-os/kernel/timing"
)

var cmdPark = &cmdline.Command{
	Name:   "park",
	Short:  "park/unpark ordering scenario",
	Runner: cmdline.RunnerFunc(runPark),
}

var parkCPUs int

func init() {
	registerCPUsFlag(cmdPark, &parkCPUs)
}

func runPark(env *cmdline.Env, args []string) error {
	r := bootRig(parkCPUs)
	defer r.shutdown()

	var a *sched.TCB
	readyToPark := make(chan struct{})
	resumed := make(chan struct{})
	resumeCount := 0

	a, _ = r.Scheduler.Spawn(func(arg interface{}) {
		close(readyToPark)
		r.Scheduler.Park(a)
		resumeCount++
		close(resumed)
	}, nil, "park-a", sched.PriorityNormal, 0)

	<-readyToPark
	timeScenario(env, "park", func(timer timing.Timer) {
		timer.Push("park-unpark")
		time.Sleep(20 * time.Millisecond) // let A actually reach Park before B unparks it
		r.Scheduler.Unpark(a)

		select {
		case <-resumed:
		case <-time.After(2 * time.Second):
		}
		timer.Pop()
	})
	if resumeCount == 0 {
		return report(env, "park", false, "A never resumed after Unpark")
	}
	r.Scheduler.Join(a)

	pass := resumeCount == 1
	return report(env, "park", pass, fmt.Sprintf("A resumed exactly %d time(s)", resumeCount))
}
