// Package reminder holds the pure trigger-date calculator. It runs both
// at rule-creation time (to seed the pending history row) and on every
// scheduler tick (to re-derive the due date); the two computations must
// always agree for the same inputs.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"docroute-api/internal/models"
)

// TriggerDate maps a deadline plus an offset specification onto the
// calendar date the reminder becomes due.
//
// EXACT returns the deadline unchanged, ignoring value and direction.
// A missing value or direction for any other unit also falls back to
// the deadline itself. MONTH offsets follow calendar arithmetic: the
// day-of-month is clamped to the last valid day of the target month.
func TriggerDate(deadline time.Time, value *int, unit models.ReminderUnit, direction *models.ReminderDirection) time.Time {
	if unit == models.UnitExact {
		return deadline
	}

	if value == nil || direction == nil {
		return deadline
	}

	offset := *value
	if *direction == models.DirectionBefore {
		offset = -offset
	}

	switch unit {
	case models.UnitDay:
		return deadline.AddDate(0, 0, offset)
	case models.UnitWeek:
		return deadline.AddDate(0, 0, 7*offset)
	case models.UnitMonth:
		return addMonths(deadline, offset)
	default:
		return deadline
	}
}

// addMonths shifts t by whole calendar months, clamping the day to the
// end of the target month (Jan 31 minus one month is Dec 31; Mar 31
// minus one month is Feb 29 in a leap year). time.AddDate normalizes
// overflow instead of clamping, so it cannot be used directly.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}

// RuleText renders the human-readable rule description stored on
// history rows, e.g. "0 day before", "2 week after", "exact".
func RuleText(value *int, unit models.ReminderUnit, direction *models.ReminderDirection) string {
	if unit == models.UnitExact {
		return strings.ToLower(string(unit))
	}

	v := 0
	if value != nil {
		v = *value
	}

	dir := ""
	if direction != nil {
		dir = strings.ToLower(string(*direction))
	}

	return strings.TrimSpace(fmt.Sprintf("%d %s %s", v, strings.ToLower(string(unit)), dir))
}
