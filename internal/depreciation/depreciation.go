package depreciation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method enum constants
const (
	MethodStraightLine     = "STRAIGHT_LINE"
	MethodDecliningBalance = "DECLINING_BALANCE"
)

// Asset carries the inputs of a depreciation calculation.
type Asset struct {
	PurchasePrice decimal.Decimal
	ResidualValue decimal.Decimal
	Method        string
	Rate          decimal.Decimal // percentage per year, declining balance only
	UsefulLife    int             // years, straight line only
}

// Result is the outcome of depreciating an asset over some elapsed time.
type Result struct {
	Annual      decimal.Decimal // current annual expense, 2dp
	Accumulated decimal.Decimal // total depreciation to date, 2dp, capped at price-residual
}

// ScheduleEntry is one year of a full amortization schedule.
type ScheduleEntry struct {
	Year              int             `json:"year"`
	StartingBookValue decimal.Decimal `json:"starting_book_value"`
	Expense           decimal.Decimal `json:"depreciation_expense"`
	Accumulated       decimal.Decimal `json:"accumulated_depreciation"`
	EndingBookValue   decimal.Decimal `json:"ending_book_value"`
}

// ElapsedMonths counts whole months between purchase and the as-of date,
// floored at zero. Partial months do not count.
func ElapsedMonths(purchase, asOf time.Time) int {
	months := (asOf.Year()-purchase.Year())*12 + int(asOf.Month()) - int(purchase.Month())
	if months < 0 {
		return 0
	}
	return months
}

// Compute returns the annual expense and accumulated depreciation after the
// given number of whole elapsed months.
//
// Straight line: annual = (price - residual) / usefulLife, accumulated =
// annual x elapsedYears (fractional years allowed). Declining balance applies
// the rate to the prior year-end book value for each fully elapsed year,
// stopping once the book value would reach the residual value. Accumulated
// depreciation is capped at price - residual in both methods.
func Compute(a Asset, elapsedMonths int) Result {
	base := a.PurchasePrice.Sub(a.ResidualValue)
	years := decimal.NewFromInt(int64(elapsedMonths)).Div(decimal.NewFromInt(12))

	annual := decimal.Zero
	accumulated := decimal.Zero

	switch a.Method {
	case MethodStraightLine:
		if a.UsefulLife > 0 {
			annual = base.Div(decimal.NewFromInt(int64(a.UsefulLife)))
			accumulated = annual.Mul(years)
		}
	case MethodDecliningBalance:
		rate := a.Rate.Div(decimal.NewFromInt(100))
		bookValue := a.PurchasePrice
		for i := 0; i < elapsedMonths/12; i++ {
			expense := bookValue.Mul(rate)
			accumulated = accumulated.Add(expense)
			bookValue = bookValue.Sub(expense)
			if bookValue.LessThanOrEqual(a.ResidualValue) {
				break
			}
		}
		annual = bookValue.Mul(rate)
	}

	if accumulated.GreaterThan(base) {
		accumulated = base
	}

	return Result{
		Annual:      annual.Round(2),
		Accumulated: accumulated.Round(2),
	}
}

// BookValue returns max(price - accumulated, residual).
func BookValue(a Asset, accumulated decimal.Decimal) decimal.Decimal {
	bv := a.PurchasePrice.Sub(accumulated)
	if bv.LessThan(a.ResidualValue) {
		return a.ResidualValue
	}
	return bv.Round(2)
}

// Schedule generates the full year-by-year amortization table.
//
// Each year's expense is recomputed from that year's starting book value, the
// final year is clamped so the ending value never drops below the residual
// value, and the schedule stops early once the residual value is reached.
func Schedule(a Asset) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, a.UsefulLife)
	bookValue := a.PurchasePrice
	accumulated := decimal.Zero

	for year := 1; year <= a.UsefulLife; year++ {
		starting := bookValue
		expense := annualExpense(a, bookValue)

		accumulated = accumulated.Add(expense)
		bookValue = bookValue.Sub(expense)

		// Clamp so the ending value never drops below the residual value.
		if bookValue.LessThan(a.ResidualValue) {
			adjustment := a.ResidualValue.Sub(bookValue)
			accumulated = accumulated.Sub(adjustment)
			expense = expense.Sub(adjustment)
			bookValue = a.ResidualValue
		}

		entries = append(entries, ScheduleEntry{
			Year:              year,
			StartingBookValue: starting.Round(2),
			Expense:           expense.Round(2),
			Accumulated:       accumulated.Round(2),
			EndingBookValue:   bookValue.Round(2),
		})

		if bookValue.Equal(a.ResidualValue) {
			break
		}
	}

	return entries
}

func annualExpense(a Asset, bookValue decimal.Decimal) decimal.Decimal {
	switch a.Method {
	case MethodStraightLine:
		if a.UsefulLife > 0 {
			return a.PurchasePrice.Sub(a.ResidualValue).Div(decimal.NewFromInt(int64(a.UsefulLife)))
		}
	case MethodDecliningBalance:
		expense := bookValue.Mul(a.Rate.Div(decimal.NewFromInt(100)))
		max := bookValue.Sub(a.ResidualValue)
		if expense.GreaterThan(max) {
			return max
		}
		return expense
	}
	return decimal.Zero
}
