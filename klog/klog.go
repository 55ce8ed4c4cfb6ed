// Package klog is the kernel's leveled diagnostic facade, fronting a
// glog-compatible backend. It plays the role vlog plays for the rest
// of this codebase's ambient logging, but Fatal here also freezes the
// scheduler instead of merely exiting the process, since a kernel has
// no process to exit into — a panic must stop every other CPU first.
package klog

import (
	"github.com/cosmosnicolaou/llog"
)

// Level is a V-log verbosity level.
type Level llog.Level

// Freezer is implemented by sched.Scheduler; klog.Fatal calls Freeze
// before halting so a panic on one CPU stops the rest.
type Freezer interface {
	Freeze(panicking bool)
}

const stackSkip = 1

var (
	backend = llog.NewLogger("maystorm", stackSkip)
	freezer Freezer
)

// SetFreezer installs the scheduler instance Fatal must freeze before
// halting. Called once during boot wiring.
func SetFreezer(f Freezer) {
	freezer = f
}

// SetVerbosity sets the global V-log threshold.
func SetVerbosity(v Level) {
	backend.SetV(llog.Level(v))
}

// V reports whether logging at v is currently enabled.
func V(v Level) bool {
	return backend.V(llog.Level(v))
}

// Info logs to the INFO log.
func Info(args ...interface{}) { backend.Print(llog.InfoLog, args...) }

// Infof logs to the INFO log with formatting.
func Infof(format string, args ...interface{}) { backend.Printf(llog.InfoLog, format, args...) }

// Warning logs to the WARNING and INFO logs.
func Warning(args ...interface{}) { backend.Print(llog.WarningLog, args...) }

// Warningf logs to the WARNING and INFO logs with formatting.
func Warningf(format string, args ...interface{}) { backend.Printf(llog.WarningLog, format, args...) }

// Error logs to the ERROR, WARNING, and INFO logs.
func Error(args ...interface{}) { backend.Print(llog.ErrorLog, args...) }

// Errorf logs to the ERROR, WARNING, and INFO logs with formatting.
func Errorf(format string, args ...interface{}) { backend.Printf(llog.ErrorLog, format, args...) }

// Fatal logs to the FATAL log, freezes the scheduler (stopping every
// other CPU) if one has been installed, then halts the calling
// goroutine forever — there is no process to os.Exit into.
func Fatal(args ...interface{}) {
	backend.Print(llog.FatalLog, args...)
	freeze()
}

// Fatalf is Fatal with formatting.
func Fatalf(format string, args ...interface{}) {
	backend.Printf(llog.FatalLog, format, args...)
	freeze()
}

func freeze() {
	if freezer != nil {
		freezer.Freeze(true)
	}
	select {}
}
