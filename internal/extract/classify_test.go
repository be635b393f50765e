package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docroute-api/internal/models"
)

func TestClassifyCategories(t *testing.T) {
	assert.Equal(t, models.CategoryAgreement, Classify("The parties hereby agree to the terms and conditions"))
	assert.Equal(t, models.CategoryLegal, Classify("The plaintiff moved the court"))
	assert.Equal(t, models.CategorySubmission, Classify("Please submit your forms before the deadline"))
	assert.Equal(t, models.CategoryInvoice, Classify("Invoice: amount due 5000"))
	assert.Equal(t, models.CategoryPolicy, Classify("Refer to the compliance guidelines"))
	assert.Equal(t, models.CategoryNotice, Classify("This is to notify all residents"))
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// Agreement keywords outrank everything else in evaluation order.
	assert.Equal(t, models.CategoryAgreement, Classify("This agreement covers the invoice schedule"))

	// Legal outranks submission.
	assert.Equal(t, models.CategoryLegal, Classify("Submit the affidavit to the court"))
}

func TestClassifyContractFoldsIntoAgreement(t *testing.T) {
	assert.Equal(t, models.CategoryAgreement, Classify("The contract runs for two years"))
}

func TestClassifyFallback(t *testing.T) {
	assert.Equal(t, models.CategoryOther, Classify("Weather report for the weekend"))
	assert.Equal(t, models.CategoryOther, Classify(""))
}

func TestClassifyCaseInsensitive(t *testing.T) {
	assert.Equal(t, models.CategoryInvoice, Classify("INVOICE NUMBER 42"))
}
