package vat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestPriceLine_DomesticHigh(t *testing.T) {
	amounts := PriceLine(d("1"), d("100"), d("0.21"), false)

	assert.True(t, amounts.Subtotal.Equal(d("100.00")), "subtotal %s", amounts.Subtotal)
	assert.True(t, amounts.VATAmount.Equal(d("21.00")), "vat %s", amounts.VATAmount)
	assert.True(t, amounts.Total.Equal(d("121.00")), "total %s", amounts.Total)
}

// A reverse-charge line still carries its VAT amount, it just never reaches
// the payable total.
func TestPriceLine_ReverseChargeExcludesVATFromTotal(t *testing.T) {
	amounts := PriceLine(d("1"), d("100"), d("0.21"), true)

	assert.True(t, amounts.Subtotal.Equal(d("100.00")))
	assert.True(t, amounts.VATAmount.Equal(d("21.00")))
	assert.True(t, amounts.Total.Equal(d("100.00")))
}

func TestPriceLine_RoundsHalfUpAtTwoDecimals(t *testing.T) {
	// 3 x 0.335 = 1.005, rounds half-up to 1.01
	amounts := PriceLine(d("3"), d("0.335"), d("0"), false)
	assert.True(t, amounts.Subtotal.Equal(d("1.01")), "subtotal %s", amounts.Subtotal)

	// 1.005 x 0.21 = 0.21105 before rounding; vat rounds independently
	amounts = PriceLine(d("3"), d("0.335"), d("0.21"), false)
	assert.True(t, amounts.VATAmount.Equal(d("0.21")), "vat %s", amounts.VATAmount)
}

func TestPriceLine_FractionalQuantity(t *testing.T) {
	amounts := PriceLine(d("2.5"), d("40"), d("0.09"), false)

	assert.True(t, amounts.Subtotal.Equal(d("100.00")))
	assert.True(t, amounts.VATAmount.Equal(d("9.00")))
	assert.True(t, amounts.Total.Equal(d("109.00")))
}

func TestPriceLine_ZeroQuantity(t *testing.T) {
	amounts := PriceLine(d("0"), d("100"), d("0.21"), false)

	assert.True(t, amounts.Subtotal.IsZero())
	assert.True(t, amounts.VATAmount.IsZero())
	assert.True(t, amounts.Total.IsZero())
}
