package vat

import "github.com/shopspring/decimal"

// Direction enum constants
const (
	DirectionSales    = "SALES"
	DirectionPurchase = "PURCHASE"
)

// Jurisdiction enum constants (reverse-charge counterparty location)
const (
	JurisdictionEU    = "EU"
	JurisdictionNonEU = "NON_EU"
)

// Category is the closed set of tax categories a line item can fall into.
// It is the join key between an invoice line and a declaration box.
type Category string

const (
	CategoryDomesticHigh    Category = "DOMESTIC_HIGH"     // 21% domestic
	CategoryDomesticLow     Category = "DOMESTIC_LOW"      // 9% domestic
	CategoryDomesticOther   Category = "DOMESTIC_OTHER"    // other non-standard domestic rates
	CategoryZero            Category = "ZERO"              // 0% domestic
	CategoryReverseChargeNL Category = "REVERSE_CHARGE_NL" // domestic reverse charge (manual bookings)
	CategoryReverseChargeEU Category = "REVERSE_CHARGE_EU" // EU acquisitions, VAT shifted to buyer
	CategoryImportNonEU     Category = "IMPORT_NON_EU"     // imports from outside the EU
	CategoryICSupply        Category = "IC_SUPPLY"         // intra-community supplies
	CategoryICDistanceSales Category = "IC_DISTANCE_SALES" // EU distance sales (manual bookings)
	CategoryExportNonEU     Category = "EXPORT_NON_EU"     // exports outside the EU
	CategoryOtherForeign    Category = "OTHER_FOREIGN"     // other foreign purchases
)

// Standard Dutch VAT rates used by the classifier.
var (
	RateHigh = decimal.RequireFromString("0.21")
	RateLow  = decimal.RequireFromString("0.09")
)

// Classify derives the tax category for a single invoice line.
//
// Without reverse charge the rate alone decides the category. With reverse
// charge, the invoice direction and the counterparty jurisdiction decide it.
// A reverse-charge line with an unknown jurisdiction must be rejected at line
// creation; Classify assumes its inputs are valid.
func Classify(rate decimal.Decimal, reverseCharge bool, jurisdiction string, direction string) Category {
	if !reverseCharge {
		switch {
		case rate.Equal(RateHigh):
			return CategoryDomesticHigh
		case rate.Equal(RateLow):
			return CategoryDomesticLow
		case rate.IsZero():
			return CategoryZero
		default:
			return CategoryDomesticOther
		}
	}

	if direction == DirectionPurchase {
		if jurisdiction == JurisdictionEU {
			return CategoryReverseChargeEU
		}
		return CategoryImportNonEU
	}

	// Sales with reverse charge
	if jurisdiction == JurisdictionEU {
		return CategoryICSupply
	}
	return CategoryExportNonEU
}
