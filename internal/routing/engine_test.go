package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docroute-api/internal/clock"
	"docroute-api/internal/extract"
	"docroute-api/internal/models"
)

var today = clock.Date(2025, 3, 1)

func date(day int) *time.Time {
	d := clock.Date(2025, 3, day)
	return &d
}

func TestFlag(t *testing.T) {
	assert.Equal(t, models.FlagDateMissing, Flag(nil, today))

	past := clock.Date(2025, 2, 28)
	assert.Equal(t, models.FlagMissedDeadline, Flag(&past, today))

	assert.Equal(t, models.FlagDeadlineCritical, Flag(date(1), today))
	assert.Equal(t, models.FlagDeadlineCritical, Flag(date(2), today))
	assert.Equal(t, models.FlagDeadlineNear, Flag(date(3), today))
	assert.Equal(t, models.FlagDeadlineNear, Flag(date(6), today))
	assert.Equal(t, models.FlagDeadlineFound, Flag(date(7), today))
}

func TestPriority(t *testing.T) {
	assert.Equal(t, models.PriorityMedium, Priority(nil, today))

	assert.Equal(t, models.PriorityCritical, Priority(date(1), today))
	assert.Equal(t, models.PriorityCritical, Priority(date(2), today))
	assert.Equal(t, models.PriorityHigh, Priority(date(3), today))
	assert.Equal(t, models.PriorityHigh, Priority(date(6), today))
	assert.Equal(t, models.PriorityMedium, Priority(date(7), today))
}

func TestRequiresHumanReview(t *testing.T) {
	high := 0.9
	atThreshold := 0.85
	low := 0.84

	assert.True(t, RequiresHumanReview(nil, &high))
	assert.True(t, RequiresHumanReview(date(10), nil))
	assert.True(t, RequiresHumanReview(date(10), &low))
	assert.False(t, RequiresHumanReview(date(10), &atThreshold))
	assert.False(t, RequiresHumanReview(date(10), &high))
}

func TestSelectBest(t *testing.T) {
	assert.Nil(t, SelectBest(nil))

	candidates := []extract.Candidate{
		{Date: clock.Date(2025, 3, 10), Confidence: 0.7},
		{Date: clock.Date(2025, 3, 15), Confidence: 0.9},
		{Date: clock.Date(2025, 3, 20), Confidence: 0.7},
	}
	best := SelectBest(candidates)
	assert.Equal(t, clock.Date(2025, 3, 15), best.Date)

	// Equal confidence keeps the first candidate encountered.
	tied := []extract.Candidate{
		{Date: clock.Date(2025, 3, 10), Confidence: 0.9},
		{Date: clock.Date(2025, 3, 15), Confidence: 0.9},
	}
	assert.Equal(t, clock.Date(2025, 3, 10), SelectBest(tied).Date)
}

func TestFlagFromPriority(t *testing.T) {
	assert.Equal(t, models.FlagDeadlineCritical, FlagFromPriority(models.PriorityCritical))
	assert.Equal(t, models.FlagDeadlineNear, FlagFromPriority(models.PriorityHigh))
	assert.Equal(t, models.FlagDeadlineFound, FlagFromPriority(models.PriorityMedium))
	assert.Equal(t, models.FlagDeadlineFound, FlagFromPriority(models.PriorityLow))
}

func TestShouldEscalate(t *testing.T) {
	missed := clock.Date(2025, 2, 20)
	assert.True(t, ShouldEscalate(missed, today, models.PriorityMedium))
	assert.True(t, ShouldEscalate(*date(20), today, models.PriorityCritical))
	assert.False(t, ShouldEscalate(*date(20), today, models.PriorityMedium))
}

func TestShouldNotify(t *testing.T) {
	assert.True(t, ShouldNotify(*date(6), today))  // near boundary
	assert.True(t, ShouldNotify(*date(2), today))  // one day out
	assert.True(t, ShouldNotify(*date(1), today))  // due today
	assert.True(t, ShouldNotify(clock.Date(2025, 2, 25), today))

	assert.False(t, ShouldNotify(*date(4), today))
	assert.False(t, ShouldNotify(*date(10), today))
}
