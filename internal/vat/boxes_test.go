package vat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesLine(category Category, subtotal, vatAmount string) Line {
	return Line{Category: category, Subtotal: d(subtotal), VATAmount: d(vatAmount)}
}

func TestAggregateBoxes_SingleHighRateSale(t *testing.T) {
	totals := AggregateBoxes([]Line{salesLine(CategoryDomesticHigh, "100.00", "21.00")}, nil)

	assert.True(t, totals.Box1a.Base.Equal(d("100.00")))
	assert.True(t, totals.Box1a.VAT.Equal(d("21")))
	assert.True(t, totals.Box5a.Equal(d("21")))
}

// Per-box VAT rounds down to whole euros; box 5a is the sum of the rounded
// values, never a re-rounding of the raw sum.
func TestAggregateBoxes_VATRoundsDownPerBox(t *testing.T) {
	totals := AggregateBoxes(
		[]Line{
			salesLine(CategoryDomesticHigh, "10.00", "2.10"),
			salesLine(CategoryDomesticHigh, "10.00", "2.10"),
			salesLine(CategoryDomesticLow, "10.00", "0.90"),
		},
		nil,
	)

	// 1a: 4.20 -> 4, 1b: 0.90 -> 0
	assert.True(t, totals.Box1a.VAT.Equal(d("4")), "box1a vat %s", totals.Box1a.VAT)
	assert.True(t, totals.Box1b.VAT.Equal(d("0")), "box1b vat %s", totals.Box1b.VAT)

	// Sum of rounded values (4 + 0), not round(4.20 + 0.90) = 5.
	assert.True(t, totals.Box5a.Equal(d("4")), "box5a %s", totals.Box5a)
}

func TestAggregateBoxes_ReverseChargePurchaseFeedsBox4b(t *testing.T) {
	purchase := Line{Category: CategoryReverseChargeEU, Subtotal: d("100.00"), VATAmount: d("21.00")}
	totals := AggregateBoxes(nil, []Line{purchase})

	assert.True(t, totals.Box4b.Base.Equal(d("100.00")))
	assert.True(t, totals.Box4b.VAT.Equal(d("21")))
	assert.True(t, totals.Box5a.Equal(d("21")))
}

func TestAggregateBoxes_BaseOnlyBoxes(t *testing.T) {
	totals := AggregateBoxes(
		[]Line{
			salesLine(CategoryZero, "50.00", "0"),
			salesLine(CategoryICSupply, "200.00", "42.00"),
			salesLine(CategoryExportNonEU, "300.00", "0"),
		},
		nil,
	)

	assert.True(t, totals.Box1eBase.Equal(d("50.00")))
	assert.True(t, totals.Box3bBase.Equal(d("200.00")))
	assert.True(t, totals.Box3aBase.Equal(d("300.00")))
	// Base-only boxes never contribute VAT to 5a.
	assert.True(t, totals.Box5a.IsZero())
}

func TestAggregateBoxes_OptionalBoxesNilWithoutLines(t *testing.T) {
	totals := AggregateBoxes([]Line{salesLine(CategoryDomesticHigh, "100.00", "21.00")}, nil)

	assert.Nil(t, totals.Box1c)
	assert.Nil(t, totals.Box3cBase)
	assert.Nil(t, totals.Box4c)
}

func TestAggregateBoxes_OptionalBoxesPopulated(t *testing.T) {
	totals := AggregateBoxes(
		[]Line{
			salesLine(CategoryDomesticOther, "100.00", "6.00"),
			salesLine(CategoryICDistanceSales, "80.00", "0"),
		},
		[]Line{{Category: CategoryOtherForeign, Subtotal: d("40.00"), VATAmount: d("8.40")}},
	)

	require.NotNil(t, totals.Box1c)
	assert.True(t, totals.Box1c.Base.Equal(d("100.00")))
	assert.True(t, totals.Box1c.VAT.Equal(d("6")))

	require.NotNil(t, totals.Box3cBase)
	assert.True(t, totals.Box3cBase.Equal(d("80.00")))

	require.NotNil(t, totals.Box4c)
	assert.True(t, totals.Box4c.VAT.Equal(d("8")))

	// 6 + 8 from the optional boxes.
	assert.True(t, totals.Box5a.Equal(d("14")), "box5a %s", totals.Box5a)
}

func TestAggregateBoxes_EmptyScope(t *testing.T) {
	totals := AggregateBoxes(nil, nil)

	assert.True(t, totals.Box1a.Base.IsZero())
	assert.True(t, totals.Box5a.IsZero())
	assert.Nil(t, totals.Box1c)
}

func TestBoxFilter(t *testing.T) {
	category, direction, err := BoxFilter("4b")
	require.NoError(t, err)
	assert.Equal(t, CategoryReverseChargeEU, category)
	assert.Equal(t, DirectionPurchase, direction)

	category, direction, err = BoxFilter("3b")
	require.NoError(t, err)
	assert.Equal(t, CategoryICSupply, category)
	assert.Equal(t, DirectionSales, direction)

	_, _, err = BoxFilter("9z")
	assert.Error(t, err)
}

func TestBoxFilter_CoversEveryMappedBox(t *testing.T) {
	for _, box := range []string{"1a", "1b", "1c", "1e", "2a", "3a", "3b", "3c", "4a", "4b", "4c"} {
		_, _, err := BoxFilter(box)
		assert.NoError(t, err, "box %s", box)
	}
}

func TestAggregateBoxes_BaseRoundsHalfUp(t *testing.T) {
	totals := AggregateBoxes([]Line{
		salesLine(CategoryDomesticHigh, "10.005", "0"),
	}, nil)
	assert.True(t, totals.Box1a.Base.Equal(decimal.RequireFromString("10.01")), "base %s", totals.Box1a.Base)
}
