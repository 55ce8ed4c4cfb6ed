// Package ratelimit wraps catrate's sliding-window limiter to keep a
// thread stuck in a tight preemption-overrun or repeated-wakeup loop
// from flooding klog with the same diagnostic line every tick.
package ratelimit

import (
	"time"

	catrate "github.com/joeycumines/go-catrate"
)

// Limiter gates repeated diagnostics by category (e.g. a ThreadID, or
// the string "quantum-overrun").
type Limiter struct {
	inner *catrate.Limiter
}

// New returns a Limiter allowing up to burst events per window,
// per category.
func New(window time.Duration, burst int) *Limiter {
	return &Limiter{inner: catrate.NewLimiter(map[time.Duration]int{window: burst})}
}

// Allow reports whether an event for category may be emitted right
// now, registering it if so.
func (l *Limiter) Allow(category interface{}) bool {
	_, ok := l.inner.Allow(category)
	return ok
}
