package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameDateIgnoresLocationAndTime(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	assert.NoError(t, err)

	a := time.Date(2025, 3, 10, 23, 30, 0, 0, kolkata)
	b := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, SameDate(a, b))

	c := time.Date(2025, 3, 11, 0, 0, 0, 0, kolkata)
	assert.False(t, SameDate(a, c))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 3, DaysBetween(Date(2025, 3, 7), Date(2025, 3, 10)))
	assert.Equal(t, -3, DaysBetween(Date(2025, 3, 10), Date(2025, 3, 7)))
	assert.Equal(t, 0, DaysBetween(Date(2025, 3, 10), Date(2025, 3, 10)))

	// Crosses a month boundary and a leap day.
	assert.Equal(t, 2, DaysBetween(Date(2024, 2, 28), Date(2024, 3, 1)))
}

func TestMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	assert.NoError(t, err)

	ts := time.Date(2025, 3, 10, 17, 45, 12, 999, loc)
	m := Midnight(ts)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, loc), m)
	assert.Equal(t, loc, m.Location())
}

func TestFixedClock(t *testing.T) {
	f := Fixed{T: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC), f.Now())
	assert.Equal(t, Date(2025, 3, 10), f.Today())
}

func TestNewRealRejectsUnknownTimezone(t *testing.T) {
	_, err := NewReal("Not/AZone")
	assert.Error(t, err)
}
