package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/repository"
	"github.com/tjappo/simple-books/internal/vat"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- DTOs ---

type CalculateDeclarationRequest struct {
	StartDate  string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate    string `json:"end_date" binding:"required"`   // YYYY-MM-DD
	PeriodType string `json:"period_type" binding:"required,oneof=MONTHLY QUARTERLY"`
	Period     string `json:"period"` // derived from start_date when empty
	Notes      string `json:"notes"`
}

type UpdateDeclarationRequest struct {
	Notes *string `json:"notes"`
	// Manual overrides for the sparse output-tax boxes. Changing either one
	// shifts the VAT due, so 5a and 5d are recomputed.
	Box1cBase *string `json:"box1c_base"`
	Box1cVAT  *string `json:"box1c_vat"`
	Box1dVAT  *string `json:"box1d_vat"`
}

// PeriodOption is one selectable declaration period, annotated with the
// status of the declaration already covering it, if any.
type PeriodOption struct {
	Period     string    `json:"period"`
	PeriodType string    `json:"period_type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"` // NONE, DRAFT or FINAL
}

// --- Interface ---

// DeclarationService is the declaration lifecycle manager. Calculate is a
// pure preview; SaveDraft persists a recalculable DRAFT; Finalize performs
// the one atomic transition to FINAL and attributes the covered invoices.
type DeclarationService interface {
	Calculate(ctx context.Context, userID uuid.UUID, req CalculateDeclarationRequest) (*model.VatDeclaration, error)
	SaveDraft(ctx context.Context, userID uuid.UUID, req CalculateDeclarationRequest) (*model.VatDeclaration, error)
	Finalize(ctx context.Context, userID uuid.UUID, req CalculateDeclarationRequest) (*model.VatDeclaration, error)
	Update(ctx context.Context, userID uuid.UUID, id string, req UpdateDeclarationRequest) (*model.VatDeclaration, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.VatDeclaration, error)
	GetByPeriod(ctx context.Context, userID uuid.UUID, period string) (*model.VatDeclaration, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.VatDeclaration, error)
	GetAvailablePeriods(ctx context.Context, userID uuid.UUID, periodType string) ([]PeriodOption, error)
	// GetInvoicesForBox returns the invoices, with line items narrowed to the
	// box's category, that produced the box value. ref is a declaration id or
	// a period string; a finalized declaration resolves through attribution,
	// anything else through the same scope the aggregation used.
	GetInvoicesForBox(ctx context.Context, userID uuid.UUID, ref, box string) ([]model.Invoice, error)
}

type declarationService struct {
	declarationRepo repository.DeclarationRepository
	invoiceRepo     repository.InvoiceRepository
	vatConfigRepo   repository.VatConfigRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewDeclarationService(
	declarationRepo repository.DeclarationRepository,
	invoiceRepo repository.InvoiceRepository,
	vatConfigRepo repository.VatConfigRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DeclarationService {
	return &declarationService{
		declarationRepo: declarationRepo,
		invoiceRepo:     invoiceRepo,
		vatConfigRepo:   vatConfigRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

// --- Lifecycle operations ---

func (s *declarationService) Calculate(ctx context.Context, userID uuid.UUID, req CalculateDeclarationRequest) (*model.VatDeclaration, error) {
	params, err := s.resolvePeriod(req)
	if err != nil {
		return nil, err
	}

	if err := s.guardNotFinal(ctx, userID, params.period); err != nil {
		return nil, err
	}

	declaration, _, err := s.compute(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	declaration.Notes = req.Notes
	return declaration, nil
}

func (s *declarationService) SaveDraft(ctx context.Context, userID uuid.UUID, req CalculateDeclarationRequest) (*model.VatDeclaration, error) {
	params, err := s.resolvePeriod(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.findByPeriod(ctx, userID, params.period)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == model.DeclarationStatusFinal {
		return nil, fmt.Errorf("%w: declaration for period %s is already finalized", ErrInvalidState, params.period)
	}

	declaration, _, err := s.compute(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	declaration.Notes = req.Notes

	if existing != nil {
		copyBoxValues(existing, declaration)
		existing.Notes = req.Notes
		if err := s.declarationRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to save declaration draft: %w", err)
		}
		return existing, nil
	}

	if err := s.declarationRepo.Create(ctx, declaration); err != nil {
		return nil, fmt.Errorf("failed to save declaration draft: %w", err)
	}
	return declaration, nil
}

// Finalize recomputes the declaration for the period and persists it as FINAL
// in one transaction: any invoices attributed to a stale draft are released,
// the declaration row is upserted, and every invoice in the computed scope is
// attributed to it. A concurrent finalize for the same period either commits
// first or hits the FINAL guard inside the transaction.
func (s *declarationService) Finalize(ctx context.Context, userID uuid.UUID, req CalculateDeclarationRequest) (*model.VatDeclaration, error) {
	params, err := s.resolvePeriod(req)
	if err != nil {
		return nil, err
	}

	var result *model.VatDeclaration
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.findByPeriod(txCtx, userID, params.period)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == model.DeclarationStatusFinal {
			return fmt.Errorf("%w: declaration for period %s is already finalized", ErrInvalidState, params.period)
		}

		declaration, invoiceIDs, err := s.compute(txCtx, userID, params)
		if err != nil {
			return err
		}
		declaration.Notes = req.Notes
		declaration.Status = model.DeclarationStatusFinal

		if existing != nil {
			if err := s.invoiceRepo.ClearAttribution(txCtx, existing.ID); err != nil {
				return fmt.Errorf("failed to release draft attribution: %w", err)
			}
			copyBoxValues(existing, declaration)
			existing.Notes = req.Notes
			existing.Status = model.DeclarationStatusFinal
			if err := s.declarationRepo.Save(txCtx, existing); err != nil {
				return fmt.Errorf("failed to finalize declaration: %w", err)
			}
			declaration = existing
		} else if err := s.declarationRepo.Create(txCtx, declaration); err != nil {
			return fmt.Errorf("failed to finalize declaration: %w", err)
		}

		if err := s.invoiceRepo.SetAttribution(txCtx, invoiceIDs, declaration.ID); err != nil {
			return fmt.Errorf("failed to attribute invoices: %w", err)
		}

		result = declaration
		return nil
	})
	if err != nil {
		return nil, err
	}

	writeAuditLog(ctx, s.auditRepo, userID, model.ActionFinalizeDeclaration, result.ID.String(), result.Period, map[string]string{
		"period": result.Period,
		"box5d":  result.Box5d.String(),
	})

	return result, nil
}

func (s *declarationService) Update(ctx context.Context, userID uuid.UUID, id string, req UpdateDeclarationRequest) (*model.VatDeclaration, error) {
	declaration, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if declaration.Status == model.DeclarationStatusFinal {
		return nil, fmt.Errorf("%w: declaration %s is finalized and immutable", ErrInvalidState, id)
	}

	if req.Notes != nil {
		declaration.Notes = *req.Notes
	}

	boxesChanged := false
	boxes := declaration.OptionalBoxes.Data()
	if boxes == nil {
		boxes = model.OptionalBoxes{}
	}
	if req.Box1cBase != nil {
		v, err := decimal.NewFromString(*req.Box1cBase)
		if err != nil {
			return nil, fmt.Errorf("%w: box1c_base must be a decimal", ErrInvalidInput)
		}
		entry := boxes["1c"]
		rounded := v.Round(2)
		entry.Base = &rounded
		boxes["1c"] = entry
		boxesChanged = true
	}
	if req.Box1cVAT != nil {
		v, err := decimal.NewFromString(*req.Box1cVAT)
		if err != nil {
			return nil, fmt.Errorf("%w: box1c_vat must be a decimal", ErrInvalidInput)
		}
		entry := boxes["1c"]
		rounded := v.RoundDown(0)
		entry.VAT = &rounded
		boxes["1c"] = entry
		boxesChanged = true
	}
	if req.Box1dVAT != nil {
		v, err := decimal.NewFromString(*req.Box1dVAT)
		if err != nil {
			return nil, fmt.Errorf("%w: box1d_vat must be a decimal", ErrInvalidInput)
		}
		entry := boxes["1d"]
		rounded := v.RoundDown(0)
		entry.VAT = &rounded
		boxes["1d"] = entry
		boxesChanged = true
	}

	if boxesChanged {
		declaration.OptionalBoxes = datatypes.NewJSONType(boxes)
		recomputeVATDue(declaration)
	}

	if err := s.declarationRepo.Save(ctx, declaration); err != nil {
		return nil, fmt.Errorf("failed to update declaration: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, userID, model.ActionUpdateDeclaration, declaration.ID.String(), declaration.Period, req)

	return declaration, nil
}

// --- Queries ---

func (s *declarationService) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.VatDeclaration, error) {
	declarationID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid declaration id", ErrInvalidInput)
	}

	declaration, err := s.declarationRepo.FindByID(ctx, userID, declarationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: declaration %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch declaration: %w", err)
	}
	return declaration, nil
}

func (s *declarationService) GetByPeriod(ctx context.Context, userID uuid.UUID, period string) (*model.VatDeclaration, error) {
	declaration, err := s.findByPeriod(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	if declaration == nil {
		return nil, fmt.Errorf("%w: no declaration for period %s", ErrNotFound, period)
	}
	return declaration, nil
}

func (s *declarationService) List(ctx context.Context, userID uuid.UUID) ([]model.VatDeclaration, error) {
	return s.declarationRepo.List(ctx, userID)
}

// GetAvailablePeriods lists every period from the user's earliest posted
// invoice up to today, annotated with the covering declaration's status.
func (s *declarationService) GetAvailablePeriods(ctx context.Context, userID uuid.UUID, periodType string) ([]PeriodOption, error) {
	if periodType != model.PeriodTypeMonthly && periodType != model.PeriodTypeQuarterly {
		return nil, fmt.Errorf("%w: unknown period type %q", ErrInvalidInput, periodType)
	}

	first, err := s.invoiceRepo.FirstPostedByIssueDate(ctx, userID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []PeriodOption{}, nil
		}
		return nil, fmt.Errorf("failed to determine period range: %w", err)
	}

	declarations, err := s.declarationRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list declarations: %w", err)
	}
	statusByPeriod := make(map[string]string, len(declarations))
	for _, d := range declarations {
		statusByPeriod[d.Period] = d.Status
	}

	var options []PeriodOption
	cursor, _ := periodBounds(first.IssueDate, periodType)
	now := time.Now().UTC()
	for !cursor.After(now) {
		start, end := periodBounds(cursor, periodType)
		period := formatPeriod(start, periodType)
		status := statusByPeriod[period]
		if status == "" {
			status = "NONE"
		}
		options = append(options, PeriodOption{
			Period:     period,
			PeriodType: periodType,
			StartDate:  start,
			EndDate:    end,
			Status:     status,
		})
		cursor = end.AddDate(0, 0, 1)
	}
	return options, nil
}

func (s *declarationService) GetInvoicesForBox(ctx context.Context, userID uuid.UUID, ref, box string) ([]model.Invoice, error) {
	category, direction, err := vat.BoxFilter(box)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	invoiceType := model.InvoiceTypeSales
	if direction == vat.DirectionPurchase {
		invoiceType = model.InvoiceTypePurchase
	}

	var declaration *model.VatDeclaration
	if declarationID, parseErr := uuid.Parse(ref); parseErr == nil {
		declaration, err = s.GetByID(ctx, userID, declarationID.String())
	} else {
		declaration, err = s.findByPeriod(ctx, userID, ref)
	}
	if err != nil {
		return nil, err
	}

	if declaration != nil && declaration.Status == model.DeclarationStatusFinal {
		return s.invoiceRepo.FindForBox(ctx, userID, invoiceType, string(category), &declaration.ID, nil, nil)
	}

	var start, end time.Time
	if declaration != nil {
		start, end = declaration.StartDate, declaration.EndDate
	} else {
		start, end, err = parsePeriod(ref)
		if err != nil {
			return nil, err
		}
	}
	return s.invoiceRepo.FindForBox(ctx, userID, invoiceType, string(category), nil, &start, &end)
}

// --- Computation ---

type periodParams struct {
	start      time.Time
	end        time.Time
	periodType string
	period     string
}

func (s *declarationService) resolvePeriod(req CalculateDeclarationRequest) (periodParams, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return periodParams{}, fmt.Errorf("%w: invalid start_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return periodParams{}, fmt.Errorf("%w: invalid end_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}
	if end.Before(start) {
		return periodParams{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	period := req.Period
	if period == "" {
		period = formatPeriod(start, req.PeriodType)
	}
	return periodParams{start: start, end: end, periodType: req.PeriodType, period: period}, nil
}

// compute runs the full pipeline over the invoices in scope and returns the
// unsaved declaration alongside the ids of the invoices that produced it.
func (s *declarationService) compute(ctx context.Context, userID uuid.UUID, params periodParams) (*model.VatDeclaration, []uuid.UUID, error) {
	invoices, err := s.invoiceRepo.FindPostedUnattributed(ctx, userID, params.start, params.end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch invoices in scope: %w", err)
	}

	salesLines, purchaseLines := splitVATLines(invoices)
	totals := vat.AggregateBoxes(salesLines, purchaseLines)

	config, err := s.vatConfigRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch vat configuration: %w", err)
	}
	deductionCfg := vat.DeductionConfig{HasFullDeductionRight: true}
	if config != nil {
		deductionCfg.HasFullDeductionRight = config.HasFullDeductionRight
	}
	box5b := vat.DeductibleVAT(purchaseLines, deductionCfg)

	declaration := &model.VatDeclaration{
		UserID:     userID,
		Period:     params.period,
		PeriodType: params.periodType,
		StartDate:  params.start,
		EndDate:    params.end,
		Box1aBase:  totals.Box1a.Base,
		Box1aVAT:   totals.Box1a.VAT,
		Box1bBase:  totals.Box1b.Base,
		Box1bVAT:   totals.Box1b.VAT,
		Box1eBase:  totals.Box1eBase,
		Box2aBase:  totals.Box2a.Base,
		Box2aVAT:   totals.Box2a.VAT,
		Box3aBase:  totals.Box3aBase,
		Box3bBase:  totals.Box3bBase,
		Box4aBase:  totals.Box4a.Base,
		Box4aVAT:   totals.Box4a.VAT,
		Box4bBase:  totals.Box4b.Base,
		Box4bVAT:   totals.Box4b.VAT,
		Box5a:      totals.Box5a,
		Box5b:      box5b,
		Box5d:      totals.Box5a.Sub(box5b),
		Status:     model.DeclarationStatusDraft,
	}

	boxes := model.OptionalBoxes{}
	if totals.Box1c != nil {
		boxes["1c"] = model.BoxAmount{Base: &totals.Box1c.Base, VAT: &totals.Box1c.VAT}
	}
	if totals.Box3cBase != nil {
		boxes["3c"] = model.BoxAmount{Base: totals.Box3cBase}
	}
	if totals.Box4c != nil {
		boxes["4c"] = model.BoxAmount{Base: &totals.Box4c.Base, VAT: &totals.Box4c.VAT}
	}
	if len(boxes) > 0 {
		declaration.OptionalBoxes = datatypes.NewJSONType(boxes)
	}

	invoiceIDs := make([]uuid.UUID, 0, len(invoices))
	for _, invoice := range invoices {
		invoiceIDs = append(invoiceIDs, invoice.ID)
	}
	return declaration, invoiceIDs, nil
}

// splitVATLines flattens invoice line items into classifier output slices,
// split by invoice direction.
func splitVATLines(invoices []model.Invoice) (sales, purchases []vat.Line) {
	for _, invoice := range invoices {
		for _, item := range invoice.LineItems {
			line := vat.Line{
				Category:         vat.Category(item.VATCategory),
				Subtotal:         item.Subtotal,
				VATAmount:        item.VATAmount,
				Deductible:       item.IsDeductible,
				DeductibilityPct: item.DeductibilityPercentage,
			}
			if invoice.Type == model.InvoiceTypePurchase {
				purchases = append(purchases, line)
			} else {
				sales = append(sales, line)
			}
		}
	}
	return sales, purchases
}

// recomputeVATDue rebuilds box 5a from the stored per-box VAT values, manual
// sparse boxes included, and rederives 5d. 5b is untouched: overrides on the
// output side never change the deductible input total.
func recomputeVATDue(d *model.VatDeclaration) {
	box5a := d.Box1aVAT.
		Add(d.Box1bVAT).
		Add(d.Box2aVAT).
		Add(d.Box4aVAT).
		Add(d.Box4bVAT)
	for _, id := range []string{"1c", "1d", "4c"} {
		if entry, ok := d.OptionalBoxes.Data()[id]; ok && entry.VAT != nil {
			box5a = box5a.Add(*entry.VAT)
		}
	}
	d.Box5a = box5a
	d.Box5d = box5a.Sub(d.Box5b)
}

func copyBoxValues(dst, src *model.VatDeclaration) {
	dst.PeriodType = src.PeriodType
	dst.StartDate = src.StartDate
	dst.EndDate = src.EndDate
	dst.Box1aBase = src.Box1aBase
	dst.Box1aVAT = src.Box1aVAT
	dst.Box1bBase = src.Box1bBase
	dst.Box1bVAT = src.Box1bVAT
	dst.Box1eBase = src.Box1eBase
	dst.Box2aBase = src.Box2aBase
	dst.Box2aVAT = src.Box2aVAT
	dst.Box3aBase = src.Box3aBase
	dst.Box3bBase = src.Box3bBase
	dst.Box4aBase = src.Box4aBase
	dst.Box4aVAT = src.Box4aVAT
	dst.Box4bBase = src.Box4bBase
	dst.Box4bVAT = src.Box4bVAT
	dst.Box5a = src.Box5a
	dst.Box5b = src.Box5b
	dst.Box5d = src.Box5d
	dst.OptionalBoxes = src.OptionalBoxes
}

func (s *declarationService) findByPeriod(ctx context.Context, userID uuid.UUID, period string) (*model.VatDeclaration, error) {
	declaration, err := s.declarationRepo.FindByPeriod(ctx, userID, period)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch declaration: %w", err)
	}
	return declaration, nil
}

func (s *declarationService) guardNotFinal(ctx context.Context, userID uuid.UUID, period string) error {
	existing, err := s.findByPeriod(ctx, userID, period)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == model.DeclarationStatusFinal {
		return fmt.Errorf("%w: declaration for period %s is already finalized", ErrInvalidState, period)
	}
	return nil
}

// --- Period helpers ---

// formatPeriod renders a period identifier: "2025-Q1" or "2025-01".
func formatPeriod(start time.Time, periodType string) string {
	if periodType == model.PeriodTypeQuarterly {
		quarter := (int(start.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", start.Year(), quarter)
	}
	return start.Format("2006-01")
}

// parsePeriod inverts formatPeriod into the period's date bounds.
func parsePeriod(period string) (time.Time, time.Time, error) {
	var year, quarter int
	if n, err := fmt.Sscanf(period, "%d-Q%d", &year, &quarter); err == nil && n == 2 {
		if quarter < 1 || quarter > 4 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid period %q", ErrInvalidInput, period)
		}
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, -1), nil
	}
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid period %q", ErrInvalidInput, period)
	}
	return start, start.AddDate(0, 1, -1), nil
}

// periodBounds returns the bounds of the period containing t.
func periodBounds(t time.Time, periodType string) (time.Time, time.Time) {
	if periodType == model.PeriodTypeQuarterly {
		quarter := (int(t.Month()) - 1) / 3
		start := time.Date(t.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, -1)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
