package service

import (
	"context"
	"testing"

	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/vat"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoiceService(invoiceRepo *fakeInvoiceRepo) InvoiceService {
	return NewInvoiceService(invoiceRepo, &fakeAuditRepo{})
}

func salesInvoiceRequest(lines ...InvoiceLineRequest) CreateInvoiceRequest {
	return CreateInvoiceRequest{
		Type:          model.InvoiceTypeSales,
		InvoiceNumber: "2025-001",
		Counterparty:  "Acme BV",
		IssueDate:     "2025-02-01",
		DueDate:       "2025-03-01",
		LineItems:     lines,
	}
}

func TestCreate_DerivesAmountsAndCategory(t *testing.T) {
	svc := newTestInvoiceService(newFakeInvoiceRepo())

	invoice, err := svc.Create(context.Background(), uuid.New(), salesInvoiceRequest(
		InvoiceLineRequest{Description: "consulting", Quantity: "1", UnitPrice: "100", VATRate: "0.21"},
	))
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, "EUR", invoice.Currency)
	require.Len(t, invoice.LineItems, 1)

	line := invoice.LineItems[0]
	assert.True(t, line.Subtotal.Equal(d("100.00")), "subtotal %s", line.Subtotal)
	assert.True(t, line.VATAmount.Equal(d("21.00")), "vat %s", line.VATAmount)
	assert.True(t, line.Total.Equal(d("121.00")), "total %s", line.Total)
	assert.Equal(t, string(vat.CategoryDomesticHigh), line.VATCategory)
	assert.True(t, line.IsDeductible)
	assert.True(t, line.DeductibilityPercentage.Equal(d("100")))
}

func TestCreate_ReverseChargeRequiresJurisdiction(t *testing.T) {
	svc := newTestInvoiceService(newFakeInvoiceRepo())

	_, err := svc.Create(context.Background(), uuid.New(), salesInvoiceRequest(
		InvoiceLineRequest{Description: "export", Quantity: "1", UnitPrice: "100", VATRate: "0", ReverseCharge: true},
	))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreate_ReverseChargePurchaseClassifiesByJurisdiction(t *testing.T) {
	svc := newTestInvoiceService(newFakeInvoiceRepo())

	req := salesInvoiceRequest(
		InvoiceLineRequest{Description: "eu services", Quantity: "2", UnitPrice: "50", VATRate: "0.21", ReverseCharge: true, ReverseChargeLocation: vat.JurisdictionEU},
		InvoiceLineRequest{Description: "import", Quantity: "1", UnitPrice: "30", VATRate: "0.21", ReverseCharge: true, ReverseChargeLocation: vat.JurisdictionNonEU},
	)
	req.Type = model.InvoiceTypePurchase

	invoice, err := svc.Create(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	require.Len(t, invoice.LineItems, 2)

	eu, nonEU := invoice.LineItems[0], invoice.LineItems[1]
	assert.Equal(t, string(vat.CategoryReverseChargeEU), eu.VATCategory)
	assert.Equal(t, string(vat.CategoryImportNonEU), nonEU.VATCategory)
	// Reverse charge: notional VAT retained on the line, excluded from total.
	assert.True(t, eu.VATAmount.Equal(d("21.00")), "vat %s", eu.VATAmount)
	assert.True(t, eu.Total.Equal(d("100.00")), "total %s", eu.Total)
}

func TestCreate_RejectsInvalidLineInputs(t *testing.T) {
	svc := newTestInvoiceService(newFakeInvoiceRepo())
	userID := uuid.New()

	cases := []struct {
		name string
		line InvoiceLineRequest
	}{
		{"negative quantity", InvoiceLineRequest{Description: "x", Quantity: "-1", UnitPrice: "10", VATRate: "0.21"}},
		{"malformed price", InvoiceLineRequest{Description: "x", Quantity: "1", UnitPrice: "ten", VATRate: "0.21"}},
		{"rate above one", InvoiceLineRequest{Description: "x", Quantity: "1", UnitPrice: "10", VATRate: "1.5"}},
		{"deductibility above hundred", InvoiceLineRequest{Description: "x", Quantity: "1", UnitPrice: "10", VATRate: "0.21", DeductibilityPercentage: "150"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, salesInvoiceRequest(tc.line))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdate_RebuildsLineItems(t *testing.T) {
	invoiceRepo := newFakeInvoiceRepo()
	svc := newTestInvoiceService(invoiceRepo)
	userID := uuid.New()

	invoice, err := svc.Create(context.Background(), userID, salesInvoiceRequest(
		InvoiceLineRequest{Description: "consulting", Quantity: "1", UnitPrice: "100", VATRate: "0.21"},
	))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), userID, invoice.ID.String(), UpdateInvoiceRequest{
		LineItems: []InvoiceLineRequest{
			{Description: "books", Quantity: "3", UnitPrice: "10", VATRate: "0.09"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.LineItems, 1)

	line := updated.LineItems[0]
	assert.Equal(t, string(vat.CategoryDomesticLow), line.VATCategory)
	assert.True(t, line.Subtotal.Equal(d("30.00")), "subtotal %s", line.Subtotal)
	assert.True(t, line.VATAmount.Equal(d("2.70")), "vat %s", line.VATAmount)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	invoiceRepo := newFakeInvoiceRepo()
	svc := newTestInvoiceService(invoiceRepo)
	userID := uuid.New()

	invoice, err := svc.Create(context.Background(), userID, salesInvoiceRequest(
		InvoiceLineRequest{Description: "consulting", Quantity: "1", UnitPrice: "100", VATRate: "0.21"},
	))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), userID, invoice.ID.String(), "ARCHIVED")
	assert.ErrorIs(t, err, ErrInvalidInput)

	posted, err := svc.UpdateStatus(context.Background(), userID, invoice.ID.String(), model.InvoiceStatusPosted)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPosted, posted.Status)
}

func TestGetByID_UnknownInvoice(t *testing.T) {
	svc := newTestInvoiceService(newFakeInvoiceRepo())

	_, err := svc.GetByID(context.Background(), uuid.New(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetByID(context.Background(), uuid.New(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
