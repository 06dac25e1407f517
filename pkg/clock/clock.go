// Package clock abstracts time for the messaging engine. Production code
// runs on the wall clock; tests drive a virtual clock so timer-based
// behavior (delivery transitions, simulated replies) is deterministic.
package clock

import "time"

// Timer is a cancellable pending callback. Stop reports whether the
// callback was prevented from running.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and deferred callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

func (wallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Wall returns the real-time clock.
func Wall() Clock { return wallClock{} }
