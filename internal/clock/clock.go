// Package clock provides the calendar-date authority for the engine. All
// deadline and trigger comparisons go through a Clock pinned to one
// configured timezone; machine-local time and UTC are never consulted
// directly.
package clock

import (
	"fmt"
	"time"
)

// Clock yields the current instant and the current calendar date.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// Real is a Clock backed by the system time in a fixed timezone.
type Real struct {
	loc *time.Location
}

// NewReal creates a Real clock for the given IANA timezone name.
func NewReal(timezone string) (*Real, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Real{loc: loc}, nil
}

// Now returns the current instant in the configured timezone.
func (r *Real) Now() time.Time {
	return time.Now().In(r.loc)
}

// Today returns midnight of the current calendar date in the configured
// timezone.
func (r *Real) Today() time.Time {
	return Midnight(time.Now().In(r.loc))
}

// Fixed is a Clock frozen at one instant, for tests.
type Fixed struct {
	T time.Time
}

// Now returns the frozen instant.
func (f Fixed) Now() time.Time { return f.T }

// Today returns midnight of the frozen instant's calendar date.
func (f Fixed) Today() time.Time { return Midnight(f.T) }

// Midnight truncates t to midnight in its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Date builds a calendar date (midnight UTC). Pure dates compare by
// year/month/day only, so the location carries no meaning.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar date,
// regardless of location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
