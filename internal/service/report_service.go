package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tjappo/simple-books/internal/depreciation"
	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProfitLossReport is the result of a profit and loss calculation over a
// date range. All amounts are VAT-exclusive; VAT is a balance-sheet item,
// not revenue or cost.
type ProfitLossReport struct {
	StartDate           time.Time           `json:"start_date"`
	EndDate             time.Time           `json:"end_date"`
	Revenue             decimal.Decimal     `json:"revenue"`
	Expenses            decimal.Decimal     `json:"expenses"`
	Depreciation        decimal.Decimal     `json:"depreciation"`
	Result              decimal.Decimal     `json:"result"` // revenue - expenses - depreciation
	RevenueByCategory   []CategoryBreakdown `json:"revenue_by_category"`
	ExpensesByCategory  []CategoryBreakdown `json:"expenses_by_category"`
	InvoiceCountRevenue int                 `json:"invoice_count_revenue"`
	InvoiceCountExpense int                 `json:"invoice_count_expense"`
}

// CategoryBreakdown is one tax category's share of revenue or expenses.
type CategoryBreakdown struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// BalanceSheetReport is a snapshot of assets, receivables and payables as of
// a reference date.
type BalanceSheetReport struct {
	AsOf               time.Time          `json:"as_of"`
	FixedAssets        []BalanceSheetItem `json:"fixed_assets"`
	FixedAssetsTotal   decimal.Decimal    `json:"fixed_assets_total"`
	Receivables        decimal.Decimal    `json:"receivables"` // unpaid sales invoices, incl. VAT
	Payables           decimal.Decimal    `json:"payables"`    // unpaid purchase invoices, incl. VAT
	VATPayable         decimal.Decimal    `json:"vat_payable"` // open balance of finalized declarations
	TotalAssets        decimal.Decimal    `json:"total_assets"`
	TotalLiabilities   decimal.Decimal    `json:"total_liabilities"`
	Equity             decimal.Decimal    `json:"equity"`
}

// BalanceSheetItem is one fixed asset at its depreciated book value.
type BalanceSheetItem struct {
	AssetID       uuid.UUID       `json:"asset_id"`
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Accumulated   decimal.Decimal `json:"accumulated_depreciation"`
	BookValue     decimal.Decimal `json:"book_value"`
}

type ReportService interface {
	ProfitLoss(ctx context.Context, userID uuid.UUID, startDate, endDate string) (*ProfitLossReport, error)
	BalanceSheet(ctx context.Context, userID uuid.UUID, asOf string) (*BalanceSheetReport, error)
}

type reportService struct {
	invoiceRepo     repository.InvoiceRepository
	assetRepo       repository.AssetRepository
	declarationRepo repository.DeclarationRepository
}

func NewReportService(
	invoiceRepo repository.InvoiceRepository,
	assetRepo repository.AssetRepository,
	declarationRepo repository.DeclarationRepository,
) ReportService {
	return &reportService{
		invoiceRepo:     invoiceRepo,
		assetRepo:       assetRepo,
		declarationRepo: declarationRepo,
	}
}

func (s *reportService) ProfitLoss(ctx context.Context, userID uuid.UUID, startDate, endDate string) (*ProfitLossReport, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	sales, err := s.invoiceRepo.FindPostedInRange(ctx, userID, model.InvoiceTypeSales, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales invoices: %w", err)
	}
	purchases, err := s.invoiceRepo.FindPostedInRange(ctx, userID, model.InvoiceTypePurchase, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase invoices: %w", err)
	}

	revenue, revenueByCategory := sumSubtotals(sales)
	expenses, expensesByCategory := sumSubtotals(purchases)

	// Period depreciation: the difference between each asset's accumulated
	// depreciation at the period end and at the period start.
	assets, err := s.assetRepo.ListPurchasedBefore(ctx, userID, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}
	periodDepreciation := decimal.Zero
	for _, asset := range assets {
		calc := depreciation.Asset{
			PurchasePrice: asset.PurchasePrice,
			ResidualValue: asset.ResidualValue,
			Method:        asset.DepreciationMethod,
			Rate:          asset.DepreciationRate,
			UsefulLife:    asset.UsefulLife,
		}
		atEnd := depreciation.Compute(calc, depreciation.ElapsedMonths(asset.PurchaseDate, end))
		atStart := depreciation.Compute(calc, depreciation.ElapsedMonths(asset.PurchaseDate, start))
		periodDepreciation = periodDepreciation.Add(atEnd.Accumulated.Sub(atStart.Accumulated))
	}
	periodDepreciation = periodDepreciation.Round(2)

	return &ProfitLossReport{
		StartDate:           start,
		EndDate:             end,
		Revenue:             revenue,
		Expenses:            expenses,
		Depreciation:        periodDepreciation,
		Result:              revenue.Sub(expenses).Sub(periodDepreciation),
		RevenueByCategory:   revenueByCategory,
		ExpensesByCategory:  expensesByCategory,
		InvoiceCountRevenue: len(sales),
		InvoiceCountExpense: len(purchases),
	}, nil
}

func (s *reportService) BalanceSheet(ctx context.Context, userID uuid.UUID, asOf string) (*BalanceSheetReport, error) {
	cutoff := time.Now().UTC()
	if asOf != "" {
		parsed, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid as_of format (expected YYYY-MM-DD)", ErrInvalidInput)
		}
		cutoff = parsed
	}

	assets, err := s.assetRepo.ListPurchasedBefore(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}
	items := make([]BalanceSheetItem, 0, len(assets))
	fixedTotal := decimal.Zero
	for _, asset := range assets {
		calc := depreciation.Asset{
			PurchasePrice: asset.PurchasePrice,
			ResidualValue: asset.ResidualValue,
			Method:        asset.DepreciationMethod,
			Rate:          asset.DepreciationRate,
			UsefulLife:    asset.UsefulLife,
		}
		result := depreciation.Compute(calc, depreciation.ElapsedMonths(asset.PurchaseDate, cutoff))
		bookValue := depreciation.BookValue(calc, result.Accumulated)
		items = append(items, BalanceSheetItem{
			AssetID:       asset.ID,
			Name:          asset.Name,
			PurchasePrice: asset.PurchasePrice,
			Accumulated:   result.Accumulated,
			BookValue:     bookValue,
		})
		fixedTotal = fixedTotal.Add(bookValue)
	}

	receivables, err := s.sumOpenInvoices(ctx, userID, model.InvoiceTypeSales, cutoff)
	if err != nil {
		return nil, err
	}
	payables, err := s.sumOpenInvoices(ctx, userID, model.InvoiceTypePurchase, cutoff)
	if err != nil {
		return nil, err
	}

	// Open VAT position: finalized declarations are owed to (or reclaimable
	// from) the tax authority until settled outside this system.
	vatPayable := decimal.Zero
	declarations, err := s.declarationRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list declarations: %w", err)
	}
	for _, d := range declarations {
		if d.Status == model.DeclarationStatusFinal && !d.EndDate.After(cutoff) {
			vatPayable = vatPayable.Add(d.Box5d)
		}
	}

	totalAssets := fixedTotal.Add(receivables)
	totalLiabilities := payables.Add(vatPayable)

	return &BalanceSheetReport{
		AsOf:             cutoff,
		FixedAssets:      items,
		FixedAssetsTotal: fixedTotal,
		Receivables:      receivables,
		Payables:         payables,
		VATPayable:       vatPayable,
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		Equity:           totalAssets.Sub(totalLiabilities),
	}, nil
}

func (s *reportService) sumOpenInvoices(ctx context.Context, userID uuid.UUID, invoiceType string, cutoff time.Time) (decimal.Decimal, error) {
	invoices, err := s.invoiceRepo.FindUnpaidPostedBefore(ctx, userID, invoiceType, cutoff)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch open invoices: %w", err)
	}
	total := decimal.Zero
	for _, invoice := range invoices {
		for _, line := range invoice.LineItems {
			total = total.Add(line.Total)
		}
	}
	return total.Round(2), nil
}

func sumSubtotals(invoices []model.Invoice) (decimal.Decimal, []CategoryBreakdown) {
	total := decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	var order []string
	for _, invoice := range invoices {
		for _, line := range invoice.LineItems {
			total = total.Add(line.Subtotal)
			if _, seen := byCategory[line.VATCategory]; !seen {
				order = append(order, line.VATCategory)
			}
			byCategory[line.VATCategory] = byCategory[line.VATCategory].Add(line.Subtotal)
		}
	}

	breakdown := make([]CategoryBreakdown, 0, len(order))
	for _, category := range order {
		breakdown = append(breakdown, CategoryBreakdown{
			Category: category,
			Amount:   byCategory[category].Round(2),
		})
	}
	return total.Round(2), breakdown
}
