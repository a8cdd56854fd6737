// Package clock abstracts the time source used by the booking engine.
// Validation rules ("start must not be in the past", completion sweeps)
// compare against Clock.Now instead of calling time.Now directly so
// tests can pin the current instant to a fixed value.
package clock

import "time"

// Clock supplies the current time. All implementations must return
// UTC timestamps; the rest of the system stores and compares in UTC.
type Clock interface {
	Now() time.Time
}

// System is the production Clock backed by the wall clock.
type System struct{}

// Now returns the current wall-clock time in UTC.
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock frozen at a single instant. It is intended for
// deterministic tests.
type Fixed struct {
	T time.Time
}

// Now returns the frozen instant in UTC.
func (f Fixed) Now() time.Time { return f.T.UTC() }
