// Package clock abstracts time so negotiation timeouts and relay backoff can
// be driven deterministically in tests.
package clock

import "time"

// Clock is the subset of the time package the coordinator and poller use.
type Clock interface {
	Now() time.Time

	// After returns a channel that receives the current time after d.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f after d. f runs on its own goroutine for the real
	// clock and synchronously inside Advance for the fake one.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. It returns false if the timer has
// already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stopFunc: t.Stop}
}
