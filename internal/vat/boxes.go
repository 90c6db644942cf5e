package vat

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Line is the slice of an invoice line the declaration engine needs:
// the classified category, the stored amounts and the deduction fields.
type Line struct {
	Category         Category
	Subtotal         decimal.Decimal
	VATAmount        decimal.Decimal
	Deductible       bool
	DeductibilityPct decimal.Decimal // 0-100, purchase lines only
}

// BoxValue is one declaration box: taxable base (2dp) and VAT due (whole euros).
type BoxValue struct {
	Base decimal.Decimal `json:"base"`
	VAT  decimal.Decimal `json:"vat"`
}

// Totals holds the computed values of every declaration box.
// Optional boxes (1c, 3c, 4c) are nil when no line contributed to them;
// box 1d is a manual field and never computed here.
type Totals struct {
	Box1a     BoxValue
	Box1b     BoxValue
	Box1c     *BoxValue
	Box1eBase decimal.Decimal
	Box2a     BoxValue
	Box3aBase decimal.Decimal
	Box3bBase decimal.Decimal
	Box3cBase *decimal.Decimal
	Box4a     BoxValue
	Box4b     BoxValue
	Box4c     *BoxValue
	Box5a     decimal.Decimal
}

// boxCategories is the closed category-to-box mapping of the declaration form.
// The bool marks boxes that carry a base amount only.
var boxCategories = map[string]struct {
	category  Category
	direction string
	baseOnly  bool
}{
	"1a": {CategoryDomesticHigh, DirectionSales, false},
	"1b": {CategoryDomesticLow, DirectionSales, false},
	"1c": {CategoryDomesticOther, DirectionSales, false},
	"1e": {CategoryZero, DirectionSales, true},
	"2a": {CategoryReverseChargeNL, DirectionPurchase, false},
	"3a": {CategoryExportNonEU, DirectionSales, true},
	"3b": {CategoryICSupply, DirectionSales, true},
	"3c": {CategoryICDistanceSales, DirectionSales, true},
	"4a": {CategoryImportNonEU, DirectionPurchase, false},
	"4b": {CategoryReverseChargeEU, DirectionPurchase, false},
	"4c": {CategoryOtherForeign, DirectionPurchase, false},
}

// BoxFilter returns the category and invoice direction feeding a declaration
// box, so callers can reproduce exactly the filter the aggregator applied.
func BoxFilter(box string) (Category, string, error) {
	entry, ok := boxCategories[box]
	if !ok {
		return "", "", fmt.Errorf("unknown declaration box %q", box)
	}
	return entry.category, entry.direction, nil
}

// AggregateBoxes folds classified, priced lines into declaration box values.
//
// Per box: the base is the sum of matching subtotals rounded to 2 decimals
// half-up; the VAT is the sum of matching VAT amounts rounded to whole euros
// DOWN (assessed tax rounds in the tax authority's favor). Box 5a is the sum
// of the already-rounded per-box VAT values; it is never re-derived from
// unrounded totals, so rounding is applied exactly once per box.
func AggregateBoxes(salesLines, purchaseLines []Line) Totals {
	t := Totals{
		Box1a:     aggregate(salesLines, CategoryDomesticHigh),
		Box1b:     aggregate(salesLines, CategoryDomesticLow),
		Box1eBase: aggregateBase(salesLines, CategoryZero),
		Box2a:     aggregate(purchaseLines, CategoryReverseChargeNL),
		Box3aBase: aggregateBase(salesLines, CategoryExportNonEU),
		Box3bBase: aggregateBase(salesLines, CategoryICSupply),
		Box4a:     aggregate(purchaseLines, CategoryImportNonEU),
		Box4b:     aggregate(purchaseLines, CategoryReverseChargeEU),
	}

	if hasCategory(salesLines, CategoryDomesticOther) {
		v := aggregate(salesLines, CategoryDomesticOther)
		t.Box1c = &v
	}
	if hasCategory(salesLines, CategoryICDistanceSales) {
		v := aggregateBase(salesLines, CategoryICDistanceSales)
		t.Box3cBase = &v
	}
	if hasCategory(purchaseLines, CategoryOtherForeign) {
		v := aggregate(purchaseLines, CategoryOtherForeign)
		t.Box4c = &v
	}

	box5a := t.Box1a.VAT.
		Add(t.Box1b.VAT).
		Add(t.Box2a.VAT).
		Add(t.Box4a.VAT).
		Add(t.Box4b.VAT)
	if t.Box1c != nil {
		box5a = box5a.Add(t.Box1c.VAT)
	}
	if t.Box4c != nil {
		box5a = box5a.Add(t.Box4c.VAT)
	}
	t.Box5a = box5a

	return t
}

func aggregate(lines []Line, category Category) BoxValue {
	base := decimal.Zero
	vat := decimal.Zero
	for _, line := range lines {
		if line.Category == category {
			base = base.Add(line.Subtotal)
			vat = vat.Add(line.VATAmount)
		}
	}
	return BoxValue{
		Base: base.Round(2),
		VAT:  vat.RoundDown(0),
	}
}

func aggregateBase(lines []Line, category Category) decimal.Decimal {
	base := decimal.Zero
	for _, line := range lines {
		if line.Category == category {
			base = base.Add(line.Subtotal)
		}
	}
	return base.Round(2)
}

func hasCategory(lines []Line, category Category) bool {
	for _, line := range lines {
		if line.Category == category {
			return true
		}
	}
	return false
}
