package shared

import "time"

// Clock abstracts the current time
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall-clock time in UTC
type SystemClock struct{}

// Now returns time.Now in UTC
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.At
}
