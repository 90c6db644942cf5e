package vat

import "github.com/shopspring/decimal"

// LineAmounts holds the derived money fields of a priced invoice line,
// each rounded to 2 decimal places (half-up) for storage.
type LineAmounts struct {
	Subtotal  decimal.Decimal
	VATAmount decimal.Decimal
	Total     decimal.Decimal
}

// PriceLine computes subtotal, VAT amount and total for one invoice line.
//
// subtotal = quantity x unitPrice, vat = subtotal x rate. For reverse-charge
// lines the VAT is still computed and retained for declaration purposes but
// excluded from the payable total: the buyer self-assesses it.
func PriceLine(quantity, unitPrice, rate decimal.Decimal, reverseCharge bool) LineAmounts {
	subtotal := quantity.Mul(unitPrice)
	vatAmount := subtotal.Mul(rate)

	total := subtotal.Add(vatAmount)
	if reverseCharge {
		total = subtotal
	}

	return LineAmounts{
		Subtotal:  subtotal.Round(2),
		VATAmount: vatAmount.Round(2),
		Total:     total.Round(2),
	}
}
