package shared

import "time"

// Clock abstracts the current time so that time-dependent behavior
// (ban expiry, challenge closing, throttling) is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
