// Package common provides small helpers shared across bartune packages.
package common

import (
	"fmt"
	"time"
)

// Timer measures a wall-clock interval on the monotonic clock.
type Timer struct {
	name     string
	start    time.Time
	duration time.Duration
	stopped  bool
}

// NewTimer starts an unnamed timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer starts a timer labelled name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop freezes the timer and returns the elapsed duration. Further calls
// return the same value.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.duration = time.Since(t.start)
		t.stopped = true
	}
	return t.duration
}

// Elapsed returns the running time, or the frozen duration after Stop.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.duration
	}
	return time.Since(t.start)
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// Milliseconds truncates d to whole milliseconds.
func Milliseconds(d time.Duration) int64 {
	return d.Milliseconds()
}

func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %dms", t.name, Milliseconds(t.Elapsed()))
	}
	return fmt.Sprintf("%dms", Milliseconds(t.Elapsed()))
}
