// Package timewindow models a recurring daily interval, possibly wrapping
// past midnight, and the arithmetic needed to tell when one of its
// boundaries has been crossed.
//
// A window with Start < End lies within a single day. Any other window,
// including Start == End, wraps past midnight. Membership is exclusive at
// both boundaries, so a window with Start == End contains every time of
// day except the boundary itself.
package timewindow

import (
	"fmt"
	"strings"
	"time"
)

// Window is the daily interval (Start, End).
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// New returns the window between start and end.
func New(start, end TimeOfDay) Window {
	return Window{Start: start, End: end}
}

// FromStrings parses start and end as times of day.
func FromStrings(start, end string) (Window, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	return New(s, e), nil
}

// ParseWindow parses "HH:MM-HH:MM" (seconds optional on either side).
func ParseWindow(s string) (Window, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q (expected START-END)", s)
	}
	return FromStrings(start, end)
}

// SameDay reports whether the window starts and ends on the same day.
func (w Window) SameDay() bool {
	return w.Start < w.End
}

// Includes reports whether t is strictly inside the window.
func (w Window) Includes(t TimeOfDay) bool {
	if w.SameDay() {
		return t > w.Start && t < w.End
	}
	return t > w.Start || t < w.End
}

// Contains reports whether the wall clock time of day of t is inside the window.
func (w Window) Contains(t time.Time) bool {
	return w.Includes(Of(t))
}

// NextBoundaryFrom returns the boundary the window crosses next going
// forward from t: End while inside, Start otherwise.
func (w Window) NextBoundaryFrom(t TimeOfDay) TimeOfDay {
	if w.Includes(t) {
		return w.End
	}
	return w.Start
}

// DistanceUntilBoundaryFrom returns the time from t until NextBoundaryFrom(t).
// It is never negative.
func (w Window) DistanceUntilBoundaryFrom(t TimeOfDay) time.Duration {
	return t.Until(w.NextBoundaryFrom(t))
}

// CrossedBoundary reports whether more time passed between since and until
// than the distance from since to its next boundary. Hitting the boundary
// exactly does not count, and until before since is never a crossing.
//
// Only the first boundary after since is considered: the answer says a fresh
// evaluation is due, not how many boundaries were passed.
func (w Window) CrossedBoundary(since, until time.Time) bool {
	// Drop monotonic readings: they stop while the machine is suspended.
	elapsed := until.Round(0).Sub(since.Round(0))
	return elapsed > w.DistanceUntilBoundaryFrom(Of(since))
}

// NextBoundaryAfter returns the instant of the next boundary at or after t.
func (w Window) NextBoundaryAfter(t time.Time) time.Time {
	return t.Add(w.DistanceUntilBoundaryFrom(Of(t)))
}

// String formats the window as HH:MM-HH:MM.
func (w Window) String() string {
	return w.Start.HourMinute() + "-" + w.End.HourMinute()
}

// MarshalText implements encoding.TextMarshaler, keeping seconds when present.
func (w Window) MarshalText() ([]byte, error) {
	return []byte(w.Start.String() + "-" + w.End.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Window) UnmarshalText(text []byte) error {
	parsed, err := ParseWindow(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
