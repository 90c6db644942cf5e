package vat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		rate          string
		reverseCharge bool
		jurisdiction  string
		direction     string
		want          Category
	}{
		{"high rate sales", "0.21", false, "", DirectionSales, CategoryDomesticHigh},
		{"high rate purchase", "0.21", false, "", DirectionPurchase, CategoryDomesticHigh},
		{"low rate", "0.09", false, "", DirectionSales, CategoryDomesticLow},
		{"zero rate", "0", false, "", DirectionSales, CategoryZero},
		{"legacy 6 percent rate", "0.06", false, "", DirectionSales, CategoryDomesticOther},
		{"legacy 19 percent rate", "0.19", false, "", DirectionPurchase, CategoryDomesticOther},
		{"reverse charge EU purchase", "0.21", true, JurisdictionEU, DirectionPurchase, CategoryReverseChargeEU},
		{"import outside EU", "0.21", true, JurisdictionNonEU, DirectionPurchase, CategoryImportNonEU},
		{"intra-community supply", "0", true, JurisdictionEU, DirectionSales, CategoryICSupply},
		{"export outside EU", "0", true, JurisdictionNonEU, DirectionSales, CategoryExportNonEU},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(d(tt.rate), tt.reverseCharge, tt.jurisdiction, tt.direction)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Equality on the rate must be numeric, not textual: "0.210" is still the
// high rate.
func TestClassify_RateNormalization(t *testing.T) {
	assert.Equal(t, CategoryDomesticHigh, Classify(d("0.2100"), false, "", DirectionSales))
	assert.Equal(t, CategoryZero, Classify(d("0.00"), false, "", DirectionPurchase))
}
