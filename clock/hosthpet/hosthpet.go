// Package hosthpet provides a clock.Source backed by the host's
// monotonic clock, standing in for a real HPET-backed TimerSource.
// HPET is the production source; any monotonic microsecond clock
// suffices.
package hosthpet

import (
	"sync"
	"time"

	"github.com/maystorm-os/kernel/clock"
)

// Source is a host-monotonic clock.Source. The anchor is captured once
// at New and never changes, so Measure is always a delta against a
// single fixed reference point rather than repeated comparisons
// against a moving time.Now().
type Source struct {
	mu     sync.RWMutex
	anchor time.Time
}

var _ clock.Source = (*Source)(nil)

// New returns a Source anchored to the current host time.
func New() *Source {
	return &Source{anchor: time.Now()}
}

// Measure returns microseconds elapsed since the anchor.
func (s *Source) Measure() clock.TimeSpec {
	s.mu.RLock()
	anchor := s.anchor
	s.mu.RUnlock()
	return clock.TimeSpec(time.Since(anchor).Microseconds())
}

// FromDuration converts d to a TimeSpec delta in microseconds.
func (s *Source) FromDuration(d time.Duration) clock.TimeSpec {
	return clock.TimeSpec(d.Microseconds())
}

// IntoDuration converts a TimeSpec delta back to a Duration.
func (s *Source) IntoDuration(t clock.TimeSpec) time.Duration {
	return time.Duration(t) * time.Microsecond
}
