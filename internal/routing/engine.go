// Package routing implements the confidence-gated decision engine:
// urgency flag, priority, and the human-review requirement, all pure
// functions of a deadline date relative to a caller-supplied "today".
package routing

import (
	"time"

	"docroute-api/internal/clock"
	"docroute-api/internal/extract"
	"docroute-api/internal/models"
)

// ConfidenceThreshold is the cutoff below which automated deadline
// detection is not trusted and human review is mandatory.
const ConfidenceThreshold = 0.85

// Days-remaining boundaries shared by the flag and priority engines.
const (
	DeadlineCriticalDays = 1
	DeadlineNearDays     = 5
)

// DaysRemaining returns whole calendar days from today to the deadline.
func DaysRemaining(deadline, today time.Time) int {
	return clock.DaysBetween(today, deadline)
}

// Flag computes the urgency flag for a deadline. Passing nil means no
// deadline is available.
func Flag(deadline *time.Time, today time.Time) models.DecisionFlag {
	if deadline == nil {
		return models.FlagDateMissing
	}

	days := DaysRemaining(*deadline, today)

	if days < 0 {
		return models.FlagMissedDeadline
	}
	if days <= DeadlineCriticalDays {
		return models.FlagDeadlineCritical
	}
	if days <= DeadlineNearDays {
		return models.FlagDeadlineNear
	}

	return models.FlagDeadlineFound
}

// Priority mirrors the flag thresholds with three levels. No deadline
// means MEDIUM.
func Priority(deadline *time.Time, today time.Time) models.PriorityLevel {
	if deadline == nil {
		return models.PriorityMedium
	}

	days := DaysRemaining(*deadline, today)

	if days <= DeadlineCriticalDays {
		return models.PriorityCritical
	}
	if days <= DeadlineNearDays {
		return models.PriorityHigh
	}

	return models.PriorityMedium
}

// RequiresHumanReview is true unless a deadline exists and its
// confidence meets the threshold.
func RequiresHumanReview(deadline *time.Time, confidence *float64) bool {
	if deadline == nil || confidence == nil {
		return true
	}
	return *confidence < ConfidenceThreshold
}

// SelectBest picks the candidate with the highest confidence. Ties are
// broken by keeping the first maximum encountered, so the result is
// non-deterministic when equal-confidence candidates arrive in varying
// order. Returns nil for an empty set.
func SelectBest(candidates []extract.Candidate) *extract.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return &best
}

// FlagFromPriority maps a human-chosen priority onto the decision flag
// recorded for a manually entered deadline.
func FlagFromPriority(priority models.PriorityLevel) models.DecisionFlag {
	switch priority {
	case models.PriorityCritical:
		return models.FlagDeadlineCritical
	case models.PriorityHigh:
		return models.FlagDeadlineNear
	default:
		return models.FlagDeadlineFound
	}
}

// ShouldEscalate reports whether a deadline warrants escalation: already
// missed, or carrying CRITICAL priority.
func ShouldEscalate(deadline, today time.Time, priority models.PriorityLevel) bool {
	return DaysRemaining(deadline, today) < 0 || priority == models.PriorityCritical
}

// ShouldNotify reports whether the deadline sits at one of the
// notification checkpoints (near boundary, one day out, due today) or
// has been missed.
func ShouldNotify(deadline, today time.Time) bool {
	days := DaysRemaining(deadline, today)
	return days == DeadlineNearDays || days == 1 || days == 0 || days < 0
}
