package clock

import "time"

// Clocker provides the current time so tests can substitute a fixed
// or advancing clock.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the real system clock.
type TimeClocker struct{}

// New returns the production clock.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}
