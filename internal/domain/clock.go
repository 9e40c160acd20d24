package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze "today" via SetClock.
// It is only consulted when a run has no explicit reference date.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for decay scoring. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Today returns the current calendar date as UTC midnight.
func Today() time.Time {
	return civilDate(clock.Now())
}

// civilDate drops the time of day, keeping the calendar date of t in its own location.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
