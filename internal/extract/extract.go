// Package extract pulls deadline candidates out of normalized document
// text and assigns a keyword-based document category. Extraction is
// best-effort: a candidate that fails to parse is dropped without
// aborting the rest.
package extract

import (
	"regexp"
	"strings"
	"time"

	"docroute-api/internal/clock"
	"docroute-api/internal/models"
)

// Candidate is one detected deadline. Candidates are ephemeral; the
// routing engine consumes them immediately.
type Candidate struct {
	Date       time.Time
	Label      models.DeadlineLabel
	Confidence float64
}

// Confidence is fixed per format family: formats carrying a four-digit
// year are trusted more than two-digit ones.
const (
	confidenceFullYear  = 0.9
	confidenceShortYear = 0.7
)

type datePattern struct {
	re      *regexp.Regexp
	layouts []dateLayout
}

type dateLayout struct {
	layout     string
	confidence float64
}

var patterns = []datePattern{
	{
		// 15/08/2025, 15-08-2025, 15/08/25
		re: regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`),
		layouts: []dateLayout{
			{"2/1/2006", confidenceFullYear},
			{"2/1/06", confidenceShortYear},
		},
	},
	{
		// 15 August 2025, 15 Aug 2025
		re: regexp.MustCompile(`\b(\d{1,2}\s+[A-Za-z]{3,9}\s+\d{4})\b`),
		layouts: []dateLayout{
			{"2 Jan 2006", confidenceFullYear},
			{"2 January 2006", confidenceFullYear},
		},
	},
	{
		// August 15, 2025, Aug 15, 2025
		re: regexp.MustCompile(`\b([A-Za-z]{3,9}\s+\d{1,2},\s*\d{4})\b`),
		layouts: []dateLayout{
			{"Jan 2, 2006", confidenceFullYear},
			{"January 2, 2006", confidenceFullYear},
		},
	},
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	slashRe      = regexp.MustCompile(`\s*/\s*`)
	dashRe       = regexp.MustCompile(`\s*-\s*`)
	commaRe      = regexp.MustCompile(`,\s*`)
)

// Normalize collapses whitespace and tightens date separators so the
// extraction patterns see a predictable shape.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = slashRe.ReplaceAllString(text, "/")
	text = dashRe.ReplaceAllString(text, "-")
	return strings.TrimSpace(text)
}

// Deadlines extracts every deadline candidate from normalized text. The
// label is inferred once from the whole text, not per match. The result
// is unordered and may be empty.
func Deadlines(text string) []Candidate {
	var results []Candidate
	if text == "" {
		return results
	}

	label := inferLabel(strings.ToLower(text))

	for _, p := range patterns {
		for _, match := range p.re.FindAllString(text, -1) {
			for _, l := range p.layouts {
				parsed, err := time.Parse(l.layout, canonicalizeMatch(match))
				if err != nil {
					continue
				}
				results = append(results, Candidate{
					Date:       clock.Date(parsed.Year(), parsed.Month(), parsed.Day()),
					Label:      label,
					Confidence: l.confidence,
				})
				break
			}
		}
	}

	return results
}

// canonicalizeMatch rewrites a regex match into the separator shape the
// parse layouts expect.
func canonicalizeMatch(match string) string {
	match = strings.ReplaceAll(match, "-", "/")
	return commaRe.ReplaceAllString(match, ", ")
}

func inferLabel(textLower string) models.DeadlineLabel {
	switch {
	case strings.Contains(textLower, "submit"), strings.Contains(textLower, "submission"):
		return models.LabelSubmission
	case strings.Contains(textLower, "expire"), strings.Contains(textLower, "expiry"):
		return models.LabelExpiry
	case strings.Contains(textLower, "renew"):
		return models.LabelRenewal
	case strings.Contains(textLower, "hearing"):
		return models.LabelHearing
	default:
		return models.LabelDue
	}
}

// Ambiguous reports whether the candidate set names more than one
// distinct calendar date. The routing decision path does not currently
// consult this; see DESIGN.md before wiring it in.
func Ambiguous(candidates []Candidate) bool {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		seen[c.Date.Format("2006-01-02")] = struct{}{}
	}
	return len(seen) > 1
}
