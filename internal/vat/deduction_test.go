package vat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func deductibleLine(category Category, vatAmount, pct string) Line {
	return Line{
		Category:         category,
		VATAmount:        d(vatAmount),
		Deductible:       true,
		DeductibilityPct: d(pct),
	}
}

func TestDeductibleVAT_FullDeduction(t *testing.T) {
	lines := []Line{
		deductibleLine(CategoryDomesticHigh, "21.00", "100"),
		deductibleLine(CategoryDomesticLow, "9.00", "100"),
	}
	total := DeductibleVAT(lines, DeductionConfig{HasFullDeductionRight: true})
	assert.True(t, total.Equal(d("30")), "total %s", total)
}

func TestDeductibleVAT_PartialDeductibility(t *testing.T) {
	// 21.00 x 50% = 10.50, rounds up to 11.
	lines := []Line{deductibleLine(CategoryDomesticHigh, "21.00", "50")}
	total := DeductibleVAT(lines, DeductionConfig{HasFullDeductionRight: true})
	assert.True(t, total.Equal(d("11")), "total %s", total)
}

// The total accumulates unrounded and rounds up exactly once. Rounding the
// same lines per-line would give 11 + 11 = 22; the correct answer is 21.
func TestDeductibleVAT_RoundsUpOnceAfterAccumulation(t *testing.T) {
	lines := []Line{
		deductibleLine(CategoryDomesticHigh, "21.00", "50"), // 10.50
		deductibleLine(CategoryDomesticHigh, "21.00", "50"), // 10.50
	}
	total := DeductibleVAT(lines, DeductionConfig{HasFullDeductionRight: true})
	assert.True(t, total.Equal(d("21")), "total %s", total)
}

func TestDeductibleVAT_SkipsNonDeductibleLines(t *testing.T) {
	lines := []Line{
		deductibleLine(CategoryDomesticHigh, "21.00", "100"),
		{Category: CategoryDomesticHigh, VATAmount: d("50.00"), Deductible: false, DeductibilityPct: d("100")},
	}
	total := DeductibleVAT(lines, DeductionConfig{HasFullDeductionRight: true})
	assert.True(t, total.Equal(d("21")), "total %s", total)
}

func TestDeductibleVAT_ReverseChargeGatedByDeductionRight(t *testing.T) {
	lines := []Line{
		deductibleLine(CategoryReverseChargeEU, "21.00", "100"),
		deductibleLine(CategoryReverseChargeNL, "10.00", "100"),
		deductibleLine(CategoryImportNonEU, "5.00", "100"),
		deductibleLine(CategoryDomesticHigh, "4.00", "100"),
	}

	withRight := DeductibleVAT(lines, DeductionConfig{HasFullDeductionRight: true})
	assert.True(t, withRight.Equal(d("40")), "with right %s", withRight)

	// Without the full deduction right only the plain domestic line counts.
	withoutRight := DeductibleVAT(lines, DeductionConfig{HasFullDeductionRight: false})
	assert.True(t, withoutRight.Equal(d("4")), "without right %s", withoutRight)
}

// A zero deductibility percentage means the field was never set; the line
// deducts in full.
func TestDeductibleVAT_ZeroPercentageDefaultsToFull(t *testing.T) {
	lines := []Line{deductibleLine(CategoryDomesticHigh, "21.00", "0")}
	total := DeductibleVAT(lines, DeductionConfig{HasFullDeductionRight: true})
	assert.True(t, total.Equal(d("21")), "total %s", total)
}

func TestDeductibleVAT_EmptyScope(t *testing.T) {
	total := DeductibleVAT(nil, DeductionConfig{HasFullDeductionRight: true})
	assert.True(t, total.IsZero())
}
