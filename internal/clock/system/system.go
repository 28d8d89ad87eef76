// Package system provides harvest.Clock implementations.
package system

import "time"

// Clock reads the wall clock in a fixed location. Date windows and export
// filenames follow that location.
type Clock struct {
	loc *time.Location
}

// New returns a Clock in the machine's local time zone.
func New() *Clock {
	return NewIn(time.Local)
}

// NewIn returns a Clock in loc; nil selects UTC.
func NewIn(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a Clock that always reports the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
