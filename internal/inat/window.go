package inat

import "time"

// DateLayout is the day-granularity format of window bounds.
const DateLayout = "2006-01-02"

// Window is an inclusive date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window ending at now and starting days earlier.
func NewWindow(now time.Time, days int) Window {
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}

// D1 is the formatted start bound.
func (w Window) D1() string {
	return w.Start.Format(DateLayout)
}

// D2 is the formatted end bound.
func (w Window) D2() string {
	return w.End.Format(DateLayout)
}

func (w Window) String() string {
	return w.D1() + ".." + w.D2()
}
