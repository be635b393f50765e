package extract

import (
	"strings"

	"docroute-api/internal/models"
)

// categoryKeywords is evaluated in order; the first class with a keyword
// hit wins. AGREEMENT absorbs contract language, so CONTRACT never wins
// here even though the enum defines it.
var categoryKeywords = []struct {
	category models.DocumentCategory
	keywords []string
}{
	{models.CategoryAgreement, []string{
		"agreement",
		"contract",
		"hereby agree",
		"terms and conditions",
		"party of the first part",
		"party of the second part",
	}},
	{models.CategoryLegal, []string{
		"court",
		"legal",
		"plaintiff",
		"defendant",
		"section",
		"act",
		"law",
		"jurisdiction",
	}},
	{models.CategorySubmission, []string{
		"submit",
		"submission",
		"apply",
		"application",
		"filing",
		"filed on",
	}},
	{models.CategoryInvoice, []string{
		"invoice",
		"amount due",
		"total payable",
		"gst",
		"tax",
		"bill number",
	}},
	{models.CategoryPolicy, []string{
		"policy",
		"guidelines",
		"compliance",
		"procedure",
		"framework",
	}},
	{models.CategoryNotice, []string{
		"notice",
		"hereby informed",
		"intimation",
		"this is to notify",
	}},
}

// Classify assigns a document category by keyword matching. OTHER is the
// fallback when nothing matches or the text is empty.
func Classify(text string) models.DocumentCategory {
	if text == "" {
		return models.CategoryOther
	}

	textLower := strings.ToLower(text)

	for _, class := range categoryKeywords {
		for _, kw := range class.keywords {
			if strings.Contains(textLower, kw) {
				return class.category
			}
		}
	}

	return models.CategoryOther
}
