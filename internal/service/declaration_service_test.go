package service

import (
	"context"
	"testing"
	"time"

	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/vat"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- In-memory fakes ---

type fakeDeclarationRepo struct {
	byID map[uuid.UUID]*model.VatDeclaration
}

func newFakeDeclarationRepo() *fakeDeclarationRepo {
	return &fakeDeclarationRepo{byID: map[uuid.UUID]*model.VatDeclaration{}}
}

func (r *fakeDeclarationRepo) Create(_ context.Context, d *model.VatDeclaration) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	copied := *d
	r.byID[d.ID] = &copied
	return nil
}

func (r *fakeDeclarationRepo) Save(_ context.Context, d *model.VatDeclaration) error {
	copied := *d
	r.byID[d.ID] = &copied
	return nil
}

func (r *fakeDeclarationRepo) FindByID(_ context.Context, userID, id uuid.UUID) (*model.VatDeclaration, error) {
	if d, ok := r.byID[id]; ok && d.UserID == userID {
		copied := *d
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDeclarationRepo) FindByPeriod(_ context.Context, userID uuid.UUID, period string) (*model.VatDeclaration, error) {
	for _, d := range r.byID {
		if d.UserID == userID && d.Period == period {
			copied := *d
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDeclarationRepo) List(_ context.Context, userID uuid.UUID) ([]model.VatDeclaration, error) {
	var out []model.VatDeclaration
	for _, d := range r.byID {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
}

func newFakeInvoiceRepo(invoices ...*model.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{invoices: map[uuid.UUID]*model.Invoice{}}
	for _, inv := range invoices {
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		r.invoices[inv.ID] = inv
	}
	return r
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *model.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	r.invoices[invoice.ID] = invoice
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, userID, id uuid.UUID) (*model.Invoice, error) {
	if inv, ok := r.invoices[id]; ok && inv.UserID == userID {
		return inv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvoiceRepo) List(_ context.Context, userID uuid.UUID, _, _ string, _, _ int) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID == userID {
			out = append(out, *inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) ReplaceLineItems(_ context.Context, invoice *model.Invoice, lines []model.InvoiceLine) error {
	invoice.LineItems = lines
	r.invoices[invoice.ID] = invoice
	return nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, invoice *model.Invoice) error {
	r.invoices[invoice.ID] = invoice
	return nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) FindPostedUnattributed(_ context.Context, userID uuid.UUID, _, end time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID == userID && inv.Status == model.InvoiceStatusPosted &&
			inv.DeclarationID == nil && !inv.IssueDate.After(end) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindByDeclarationID(_ context.Context, declarationID uuid.UUID) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.DeclarationID != nil && *inv.DeclarationID == declarationID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindForBox(_ context.Context, userID uuid.UUID, invoiceType, category string, declarationID *uuid.UUID, _, end *time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID != userID || inv.Type != invoiceType {
			continue
		}
		if declarationID != nil {
			if inv.DeclarationID == nil || *inv.DeclarationID != *declarationID {
				continue
			}
		} else if inv.Status != model.InvoiceStatusPosted || inv.DeclarationID != nil || inv.IssueDate.After(*end) {
			continue
		}
		matched := *inv
		matched.LineItems = nil
		for _, line := range inv.LineItems {
			if line.VATCategory == category {
				matched.LineItems = append(matched.LineItems, line)
			}
		}
		if len(matched.LineItems) > 0 {
			out = append(out, matched)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) SetAttribution(_ context.Context, invoiceIDs []uuid.UUID, declarationID uuid.UUID) error {
	for _, id := range invoiceIDs {
		if inv, ok := r.invoices[id]; ok {
			declID := declarationID
			inv.DeclarationID = &declID
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) ClearAttribution(_ context.Context, declarationID uuid.UUID) error {
	for _, inv := range r.invoices {
		if inv.DeclarationID != nil && *inv.DeclarationID == declarationID {
			inv.DeclarationID = nil
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) FirstPostedByIssueDate(_ context.Context, userID uuid.UUID, ascending bool) (*model.Invoice, error) {
	var best *model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID != userID || inv.Status != model.InvoiceStatusPosted {
			continue
		}
		if best == nil ||
			(ascending && inv.IssueDate.Before(best.IssueDate)) ||
			(!ascending && inv.IssueDate.After(best.IssueDate)) {
			best = inv
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *fakeInvoiceRepo) FindPostedInRange(_ context.Context, userID uuid.UUID, invoiceType string, start, end time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID == userID && inv.Type == invoiceType && inv.Status == model.InvoiceStatusPosted &&
			!inv.IssueDate.Before(start) && !inv.IssueDate.After(end) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindUnpaidPostedBefore(_ context.Context, userID uuid.UUID, invoiceType string, cutoff time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID == userID && inv.Type == invoiceType && inv.Status == model.InvoiceStatusPosted &&
			inv.PaymentStatus == model.PaymentStatusUnpaid && !inv.IssueDate.After(cutoff) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

type fakeVatConfigRepo struct {
	config *model.VatConfiguration
}

func (r *fakeVatConfigRepo) FindByUserID(_ context.Context, _ uuid.UUID) (*model.VatConfiguration, error) {
	return r.config, nil
}

func (r *fakeVatConfigRepo) Upsert(_ context.Context, config *model.VatConfiguration) error {
	r.config = config
	return nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ uuid.UUID, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

// fakeTxManager runs the callback directly; the fakes have no transactions.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// --- Fixtures ---

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func postedInvoice(userID uuid.UUID, invoiceType string, issueDate time.Time, lines ...model.InvoiceLine) *model.Invoice {
	return &model.Invoice{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          invoiceType,
		InvoiceNumber: "INV-" + issueDate.Format("20060102"),
		IssueDate:     issueDate,
		Status:        model.InvoiceStatusPosted,
		PaymentStatus: model.PaymentStatusUnpaid,
		LineItems:     lines,
	}
}

func highRateLine(subtotal, vatAmount string) model.InvoiceLine {
	return model.InvoiceLine{
		Description:             "services",
		Quantity:                d("1"),
		UnitPrice:               d(subtotal),
		VATRate:                 d("0.21"),
		DeductibilityPercentage: d("100"),
		IsDeductible:            true,
		Subtotal:                d(subtotal),
		VATAmount:               d(vatAmount),
		Total:                   d(subtotal).Add(d(vatAmount)),
		VATCategory:             string(vat.CategoryDomesticHigh),
	}
}

func newTestDeclarationService(invoiceRepo *fakeInvoiceRepo) (DeclarationService, *fakeDeclarationRepo) {
	declRepo := newFakeDeclarationRepo()
	svc := NewDeclarationService(declRepo, invoiceRepo, &fakeVatConfigRepo{}, &fakeAuditRepo{}, fakeTxManager{})
	return svc, declRepo
}

func q1Request() CalculateDeclarationRequest {
	return CalculateDeclarationRequest{
		StartDate:  "2025-01-01",
		EndDate:    "2025-03-31",
		PeriodType: model.PeriodTypeQuarterly,
	}
}

// --- Tests ---

func TestCalculate_ComputesBoxesAndDerivesPeriod(t *testing.T) {
	userID := uuid.New()
	invoiceRepo := newFakeInvoiceRepo(
		postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00")),
		postedInvoice(userID, model.InvoiceTypePurchase, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), highRateLine("40.00", "8.40")),
	)
	svc, _ := newTestDeclarationService(invoiceRepo)

	preview, err := svc.Calculate(context.Background(), userID, q1Request())
	require.NoError(t, err)

	assert.Equal(t, "2025-Q1", preview.Period)
	assert.Equal(t, model.DeclarationStatusDraft, preview.Status)
	assert.True(t, preview.Box1aBase.Equal(d("100.00")), "box1a base %s", preview.Box1aBase)
	assert.True(t, preview.Box1aVAT.Equal(d("21")), "box1a vat %s", preview.Box1aVAT)
	assert.True(t, preview.Box5a.Equal(d("21")), "box5a %s", preview.Box5a)
	// Purchase VAT 8.40 rounds up to 9 in box 5b.
	assert.True(t, preview.Box5b.Equal(d("9")), "box5b %s", preview.Box5b)
	assert.True(t, preview.Box5d.Equal(d("12")), "box5d %s", preview.Box5d)
}

func TestCalculate_IsIdempotentAndNeverAttributes(t *testing.T) {
	userID := uuid.New()
	invoice := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00"))
	invoiceRepo := newFakeInvoiceRepo(invoice)
	svc, declRepo := newTestDeclarationService(invoiceRepo)

	first, err := svc.Calculate(context.Background(), userID, q1Request())
	require.NoError(t, err)
	second, err := svc.Calculate(context.Background(), userID, q1Request())
	require.NoError(t, err)

	assert.True(t, first.Box5d.Equal(second.Box5d))
	assert.Nil(t, invoice.DeclarationID, "preview must not attribute invoices")
	assert.Empty(t, declRepo.byID, "preview must not persist")
}

func TestCalculate_SweepsLateInvoices(t *testing.T) {
	userID := uuid.New()
	// Issued before Q1 but never attributed: still in scope.
	late := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC), highRateLine("50.00", "10.50"))
	current := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00"))
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo(late, current))

	preview, err := svc.Calculate(context.Background(), userID, q1Request())
	require.NoError(t, err)

	assert.True(t, preview.Box1aBase.Equal(d("150.00")), "box1a base %s", preview.Box1aBase)
}

func TestFinalize_AttributesScopedInvoicesOnly(t *testing.T) {
	userID := uuid.New()
	inScope := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00"))
	outsideScope := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), highRateLine("80.00", "16.80"))
	draft := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), highRateLine("60.00", "12.60"))
	draft.Status = model.InvoiceStatusDraft
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo(inScope, outsideScope, draft))

	declaration, err := svc.Finalize(context.Background(), userID, q1Request())
	require.NoError(t, err)
	assert.Equal(t, model.DeclarationStatusFinal, declaration.Status)

	require.NotNil(t, inScope.DeclarationID)
	assert.Equal(t, declaration.ID, *inScope.DeclarationID)
	assert.Nil(t, outsideScope.DeclarationID)
	assert.Nil(t, draft.DeclarationID)
}

func TestFinalize_SecondCallFailsWithInvalidState(t *testing.T) {
	userID := uuid.New()
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo(
		postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00")),
	))

	_, err := svc.Finalize(context.Background(), userID, q1Request())
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), userID, q1Request())
	assert.ErrorIs(t, err, ErrInvalidState)

	// The same period is now closed for previews too.
	_, err = svc.Calculate(context.Background(), userID, q1Request())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFinalize_ReattributesFromExistingDraft(t *testing.T) {
	userID := uuid.New()
	invoice := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00"))
	invoiceRepo := newFakeInvoiceRepo(invoice)
	svc, declRepo := newTestDeclarationService(invoiceRepo)

	draft, err := svc.SaveDraft(context.Background(), userID, q1Request())
	require.NoError(t, err)

	// A second posted invoice appears between draft and finalize.
	extra := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), highRateLine("50.00", "10.50"))
	require.NoError(t, invoiceRepo.Create(context.Background(), extra))

	final, err := svc.Finalize(context.Background(), userID, q1Request())
	require.NoError(t, err)

	// The draft row was promoted, not duplicated.
	assert.Equal(t, draft.ID, final.ID)
	assert.Len(t, declRepo.byID, 1)
	assert.True(t, final.Box1aBase.Equal(d("150.00")), "box1a base %s", final.Box1aBase)

	require.NotNil(t, invoice.DeclarationID)
	require.NotNil(t, extra.DeclarationID)
	assert.Equal(t, final.ID, *extra.DeclarationID)
}

func TestUpdate_RecomputesVATDueOnManualOverride(t *testing.T) {
	userID := uuid.New()
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo(
		postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00")),
	))

	draft, err := svc.SaveDraft(context.Background(), userID, q1Request())
	require.NoError(t, err)
	assert.True(t, draft.Box5a.Equal(d("21")))

	override := "7"
	updated, err := svc.Update(context.Background(), userID, draft.ID.String(), UpdateDeclarationRequest{
		Box1dVAT: &override,
	})
	require.NoError(t, err)

	// 21 from box 1a plus the manual 7 of box 1d.
	assert.True(t, updated.Box5a.Equal(d("28")), "box5a %s", updated.Box5a)
	assert.True(t, updated.Box5d.Equal(updated.Box5a.Sub(updated.Box5b)), "box5d %s", updated.Box5d)

	entry, ok := updated.OptionalBoxes.Data()["1d"]
	require.True(t, ok)
	require.NotNil(t, entry.VAT)
	assert.True(t, entry.VAT.Equal(d("7")))
}

func TestUpdate_RejectedOnceFinal(t *testing.T) {
	userID := uuid.New()
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo(
		postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00")),
	))

	declaration, err := svc.Finalize(context.Background(), userID, q1Request())
	require.NoError(t, err)

	notes := "late edit"
	_, err = svc.Update(context.Background(), userID, declaration.ID.String(), UpdateDeclarationRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetInvoicesForBox_FinalizedUsesAttribution(t *testing.T) {
	userID := uuid.New()
	invoice := postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00"))
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo(invoice))

	declaration, err := svc.Finalize(context.Background(), userID, q1Request())
	require.NoError(t, err)

	invoices, err := svc.GetInvoicesForBox(context.Background(), userID, declaration.ID.String(), "1a")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, invoice.ID, invoices[0].ID)

	// No line of this invoice feeds box 1b.
	invoices, err = svc.GetInvoicesForBox(context.Background(), userID, declaration.ID.String(), "1b")
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestGetInvoicesForBox_UnknownBoxIsInvalidInput(t *testing.T) {
	userID := uuid.New()
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo())

	_, err := svc.GetInvoicesForBox(context.Background(), userID, "2025-Q1", "9z")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetAvailablePeriods_AnnotatesDeclarationStatus(t *testing.T) {
	userID := uuid.New()
	svc, _ := newTestDeclarationService(newFakeInvoiceRepo(
		postedInvoice(userID, model.InvoiceTypeSales, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), highRateLine("100.00", "21.00")),
	))

	_, err := svc.Finalize(context.Background(), userID, q1Request())
	require.NoError(t, err)

	periods, err := svc.GetAvailablePeriods(context.Background(), userID, model.PeriodTypeQuarterly)
	require.NoError(t, err)
	require.NotEmpty(t, periods)

	assert.Equal(t, "2025-Q1", periods[0].Period)
	assert.Equal(t, model.DeclarationStatusFinal, periods[0].Status)
	if len(periods) > 1 {
		assert.Equal(t, "NONE", periods[1].Status)
	}
}
