package pipeline

import "time"

// Clock is injected into every stage so that GeneratedAt timestamps (and
// anything else time-sensitive) are reproducible in tests. Library code
// must never call time.Now() directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, returning the current UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a Clock that always returns the same instant, for tests.
type FixedClock struct{ At time.Time }

func (f FixedClock) Now() time.Time { return f.At }
