// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command megctl boots an in-process instance of the scheduler
// substrate and runs one of the end-to-end scenarios against it,
// reporting PASS/FAIL the way an on-hardware smoke test would.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/maystorm-os/kernel/buildinfo"
	"github.com/maystorm-os/kernel/cmd/flagvar"
	"github.com/maystorm-os/kernel/cmdline"
	"github.com/maystorm-os/kernel/kconfig"
	"github.com/maystorm-os/kernel/timing"
)

var globalTunables tunables

func init() {
	registerTunablesFlags(root, &globalTunables)
}

func main() {
	cmdline.Main(root)
}

var root = &cmdline.Command{
	Name:  "megctl",
	Short: "exercises the kernel scheduler substrate standalone",
	Long: `
Command megctl boots N emulated CPUs running the scheduler substrate
and runs one of the end-to-end concurrency scenarios against it,
printing PASS or FAIL.
`,
	Children: []*cmdline.Command{
		cmdFifo, cmdSem, cmdTimeout, cmdRace, cmdPark, cmdFairness, cmdVersion,
	},
}

// tunables are the kconfig.Hub settings an operator can override from
// the command line without recompiling. registerTunablesFlags binds
// them onto cmd via flagvar's struct-tag convention; applyTunables
// pushes whatever the operator set into a freshly booted Hub.
type tunables struct {
	Quantum        time.Duration `flag:"quantum,1ms,scheduler preemption quantum"`
	IdlePerCPU     int           `flag:"idle-per-cpu,1,idle threads spawned per emulated CPU"`
	WaitBackoffMax time.Duration `flag:"wait-backoff-max,128ms,max exponential backoff for contended waits"`
}

func registerTunablesFlags(cmd *cmdline.Command, t *tunables) {
	if err := flagvar.RegisterFlagsInStruct(&cmd.Flags, "flag", t, nil, nil); err != nil {
		panic(err) // a malformed struct tag is a programming error, not a runtime condition
	}
}

func applyTunables(hub *kconfig.Hub, t tunables) {
	hub.Set("quantum", t.Quantum)
	hub.Set("idle-per-cpu", t.IdlePerCPU)
	hub.Set("wait-backoff-max", t.WaitBackoffMax)
}

// registerCPUsFlag binds -cpus on cmd to *n, falling back to
// MEGCTL_CPUS in the environment, then runtime.NumCPU(), when unset.
// Must be called from an init func, before cmdline.Parse runs.
func registerCPUsFlag(cmd *cmdline.Command, n *int) {
	def := runtime.NumCPU()
	if v, ok := os.LookupEnv("MEGCTL_CPUS"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			def = parsed
		}
	}
	cmd.Flags.IntVar(n, "cpus", def, "number of emulated CPUs (env MEGCTL_CPUS)")
}

func report(env *cmdline.Env, name string, pass bool, detail string) error {
	status := "PASS"
	if !pass {
		status = "FAIL"
	}
	fmt.Fprintf(env.Stdout, "%s: %s — %s\n", status, name, detail)
	if !pass {
		return cmdline.ErrExitCode(1)
	}
	return nil
}

// timeScenario runs body under a timing.Timer with one child interval
// per named phase body pushes, printing the resulting tree to
// env.Stdout before body's own PASS/FAIL line.
func timeScenario(env *cmdline.Env, name string, body func(timer timing.Timer)) {
	timer := timing.NewFullTimer(name)
	body(timer)
	timer.Finish()
	fmt.Fprint(env.Stdout, timer.String())
}

var cmdVersion = &cmdline.Command{
	Name:   "version",
	Short:  "print build metadata",
	Runner: cmdline.RunnerFunc(runVersion),
}

func runVersion(env *cmdline.Env, args []string) error {
	fmt.Fprintln(env.Stdout, buildinfo.Info().String())
	return nil
}
