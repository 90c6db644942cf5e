package depreciation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestElapsedMonths(t *testing.T) {
	purchase := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ElapsedMonths(purchase, purchase))
	assert.Equal(t, 1, ElapsedMonths(purchase, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 12, ElapsedMonths(purchase, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, ElapsedMonths(purchase, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))

	// As-of before purchase floors at zero.
	assert.Equal(t, 0, ElapsedMonths(purchase, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCompute_StraightLine(t *testing.T) {
	asset := Asset{
		PurchasePrice: d("1200"),
		ResidualValue: d("0"),
		Method:        MethodStraightLine,
		UsefulLife:    5,
	}

	result := Compute(asset, 30) // 2.5 years
	assert.True(t, result.Annual.Equal(d("240.00")), "annual %s", result.Annual)
	assert.True(t, result.Accumulated.Equal(d("600.00")), "accumulated %s", result.Accumulated)

	assert.True(t, BookValue(asset, result.Accumulated).Equal(d("600.00")))
}

func TestCompute_StraightLineCapsAtDepreciableBase(t *testing.T) {
	asset := Asset{
		PurchasePrice: d("1200"),
		ResidualValue: d("200"),
		Method:        MethodStraightLine,
		UsefulLife:    5,
	}

	// 10 years elapsed on a 5 year life: capped at 1000.
	result := Compute(asset, 120)
	assert.True(t, result.Accumulated.Equal(d("1000.00")), "accumulated %s", result.Accumulated)
	assert.True(t, BookValue(asset, result.Accumulated).Equal(d("200.00")))
}

func TestCompute_DecliningBalance(t *testing.T) {
	asset := Asset{
		PurchasePrice: d("1000"),
		ResidualValue: d("100"),
		Method:        MethodDecliningBalance,
		Rate:          d("20"),
	}

	// Year 1: 200 off 1000. Year 2: 160 off 800.
	result := Compute(asset, 24)
	assert.True(t, result.Accumulated.Equal(d("360.00")), "accumulated %s", result.Accumulated)
	assert.True(t, BookValue(asset, result.Accumulated).Equal(d("640.00")))
}

func TestCompute_DecliningBalanceStopsAtResidual(t *testing.T) {
	asset := Asset{
		PurchasePrice: d("1000"),
		ResidualValue: d("500"),
		Method:        MethodDecliningBalance,
		Rate:          d("50"),
	}

	// Year 1 takes book value to 500 == residual; later years add nothing.
	result := Compute(asset, 60)
	assert.True(t, result.Accumulated.Equal(d("500.00")), "accumulated %s", result.Accumulated)
	assert.True(t, BookValue(asset, result.Accumulated).Equal(d("500.00")))
}

func TestSchedule_StraightLine(t *testing.T) {
	asset := Asset{
		PurchasePrice: d("1200"),
		ResidualValue: d("0"),
		Method:        MethodStraightLine,
		UsefulLife:    5,
	}

	schedule := Schedule(asset)
	require.Len(t, schedule, 5)

	assert.Equal(t, 1, schedule[0].Year)
	assert.True(t, schedule[0].StartingBookValue.Equal(d("1200.00")))
	assert.True(t, schedule[0].Expense.Equal(d("240.00")))
	assert.True(t, schedule[0].EndingBookValue.Equal(d("960.00")))

	last := schedule[4]
	assert.True(t, last.Accumulated.Equal(d("1200.00")))
	assert.True(t, last.EndingBookValue.IsZero())
}

// Each declining-balance year recomputes from that year's starting book
// value, and the final year clamps so the ending value lands exactly on the
// residual value.
func TestSchedule_DecliningBalanceClampsFinalYear(t *testing.T) {
	asset := Asset{
		PurchasePrice: d("1000"),
		ResidualValue: d("100"),
		Method:        MethodDecliningBalance,
		Rate:          d("20"),
		UsefulLife:    15,
	}

	schedule := Schedule(asset)
	require.NotEmpty(t, schedule)

	assert.True(t, schedule[0].Expense.Equal(d("200.00")), "year 1 expense %s", schedule[0].Expense)
	assert.True(t, schedule[1].Expense.Equal(d("160.00")), "year 2 expense %s", schedule[1].Expense)
	assert.True(t, schedule[1].StartingBookValue.Equal(d("800.00")))

	last := schedule[len(schedule)-1]
	assert.True(t, last.EndingBookValue.Equal(d("100.00")), "ending %s", last.EndingBookValue)
	assert.True(t, last.Accumulated.Equal(d("900.00")), "accumulated %s", last.Accumulated)

	// Schedule stops once the residual value is reached, before year 15.
	assert.Less(t, len(schedule), 15)
}

func TestSchedule_ResidualAboveBookValueNeverGoesNegative(t *testing.T) {
	asset := Asset{
		PurchasePrice: d("500"),
		ResidualValue: d("450"),
		Method:        MethodDecliningBalance,
		Rate:          d("40"),
		UsefulLife:    10,
	}

	schedule := Schedule(asset)
	require.Len(t, schedule, 1)
	assert.True(t, schedule[0].Expense.Equal(d("50.00")), "expense %s", schedule[0].Expense)
	assert.True(t, schedule[0].EndingBookValue.Equal(d("450.00")))
}
