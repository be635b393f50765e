package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docroute-api/internal/clock"
	"docroute-api/internal/models"
)

func TestDeadlinesNumericDate(t *testing.T) {
	candidates := Deadlines("Application must be submitted by 15/08/2025")

	assert.Len(t, candidates, 1)
	assert.Equal(t, clock.Date(2025, 8, 15), candidates[0].Date)
	assert.Equal(t, models.LabelSubmission, candidates[0].Label)
	assert.Equal(t, 0.9, candidates[0].Confidence)
}

func TestDeadlinesShortYearLowerConfidence(t *testing.T) {
	candidates := Deadlines("Payment due by 15/08/25")

	assert.Len(t, candidates, 1)
	assert.Equal(t, clock.Date(2025, 8, 15), candidates[0].Date)
	assert.Equal(t, 0.7, candidates[0].Confidence)
}

func TestDeadlinesDashSeparator(t *testing.T) {
	candidates := Deadlines("Contract expires on 01-09-2025")

	assert.Len(t, candidates, 1)
	assert.Equal(t, clock.Date(2025, 9, 1), candidates[0].Date)
	assert.Equal(t, models.LabelExpiry, candidates[0].Label)
}

func TestDeadlinesTextualDates(t *testing.T) {
	candidates := Deadlines("Hearing scheduled for 15 August 2025")
	assert.Len(t, candidates, 1)
	assert.Equal(t, clock.Date(2025, 8, 15), candidates[0].Date)
	assert.Equal(t, models.LabelHearing, candidates[0].Label)
	assert.Equal(t, 0.9, candidates[0].Confidence)

	candidates = Deadlines("Renew before Aug 15, 2025")
	assert.Len(t, candidates, 1)
	assert.Equal(t, clock.Date(2025, 8, 15), candidates[0].Date)
	assert.Equal(t, models.LabelRenewal, candidates[0].Label)
}

func TestDeadlinesDefaultLabel(t *testing.T) {
	candidates := Deadlines("Payment of 5000 by 10/03/2025")

	assert.Len(t, candidates, 1)
	assert.Equal(t, models.LabelDue, candidates[0].Label)
}

func TestDeadlinesInvalidCalendarDateDropped(t *testing.T) {
	candidates := Deadlines("Respond by 31/02/2025")

	assert.Empty(t, candidates)
}

func TestDeadlinesNoDates(t *testing.T) {
	assert.Empty(t, Deadlines("No dates in this text"))
	assert.Empty(t, Deadlines(""))
}

func TestDeadlinesMultipleFormats(t *testing.T) {
	text := "Submit by 15/08/2025 or at the latest by 20 August 2025"
	candidates := Deadlines(text)

	assert.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.Equal(t, models.LabelSubmission, c.Label)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "15/08/2025", Normalize("  15 / 08 / 2025  "))
	assert.Equal(t, "due-date", Normalize("due - date"))
	assert.Equal(t, "a b c", Normalize("a\n\tb   c"))
	assert.Equal(t, "", Normalize(""))
}

func TestAmbiguous(t *testing.T) {
	same := []Candidate{
		{Date: clock.Date(2025, 8, 15)},
		{Date: clock.Date(2025, 8, 15)},
	}
	assert.False(t, Ambiguous(same))

	distinct := []Candidate{
		{Date: clock.Date(2025, 8, 15)},
		{Date: clock.Date(2025, 8, 20)},
	}
	assert.True(t, Ambiguous(distinct))

	assert.False(t, Ambiguous(nil))
}
