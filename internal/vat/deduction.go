package vat

import "github.com/shopspring/decimal"

// DeductionConfig gates how much input VAT a user may reclaim.
// Passed in explicitly so the calculator stays pure and testable.
type DeductionConfig struct {
	// HasFullDeductionRight controls whether self-assessed (reverse-charge)
	// input VAT counts toward the deduction. Defaults to true when the user
	// has no stored configuration.
	HasFullDeductionRight bool
}

// reverseChargeCategories are the purchase categories whose VAT the buyer
// self-assesses; they are only deductible under a full deduction right.
var reverseChargeCategories = map[Category]bool{
	CategoryReverseChargeNL: true,
	CategoryReverseChargeEU: true,
	CategoryImportNonEU:     true,
}

// DeductibleVAT computes box 5b: the total deductible input VAT over the
// purchase lines in scope.
//
// Each deductible line contributes vatAmount x deductibilityPct/100. The
// running total accumulates unrounded and is rounded to whole euros UP once
// at the end; this is the single place rounding favors the taxpayer, and it
// must never happen per line.
func DeductibleVAT(purchaseLines []Line, cfg DeductionConfig) decimal.Decimal {
	hundred := decimal.NewFromInt(100)

	total := decimal.Zero
	for _, line := range purchaseLines {
		if !line.Deductible {
			continue
		}
		if reverseChargeCategories[line.Category] && !cfg.HasFullDeductionRight {
			continue
		}

		pct := line.DeductibilityPct
		if pct.IsZero() {
			pct = hundred
		}
		total = total.Add(line.VATAmount.Mul(pct.Div(hundred)))
	}

	return total.RoundUp(0)
}
