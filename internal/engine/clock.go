package engine

import "time"

// Clock supplies commit timestamps. Timestamps are metadata on revisions;
// ordering always uses the sequence number, never the clock.
//
// Implemented by SystemClock (production) and
// testutil.DeterministicClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
