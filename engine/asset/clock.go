package asset

import "time"

// Timer is a pending callback created by a Clock.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the callback already
	// ran or the timer was already stopped.
	Stop() bool
}

// Clock schedules eviction callbacks. The default uses time.AfterFunc; tests inject a
// manual clock.
type Clock interface {
	// AfterFunc runs f on its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
