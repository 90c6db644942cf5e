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
	"gorm.io/gorm"
)

// --- DTOs ---

type InvoiceLineRequest struct {
	Description             string `json:"description" binding:"required"`
	Quantity                string `json:"quantity" binding:"required"`   // decimal string, e.g. "2.5"
	UnitPrice               string `json:"unit_price" binding:"required"` // decimal string
	VATRate                 string `json:"vat_rate" binding:"required"`   // decimal string, e.g. "0.21"
	ReverseCharge           bool   `json:"reverse_charge"`
	ReverseChargeLocation   string `json:"reverse_charge_location" binding:"omitempty,oneof=EU NON_EU"`
	IsDeductible            *bool  `json:"is_deductible"`            // purchase lines, default true
	DeductibilityPercentage string `json:"deductibility_percentage"` // 0-100, default 100
}

type CreateInvoiceRequest struct {
	Type           string               `json:"type" binding:"required,oneof=SALES PURCHASE"`
	InvoiceNumber  string               `json:"invoice_number" binding:"required"`
	Counterparty   string               `json:"counterparty" binding:"required"`
	IssueDate      string               `json:"issue_date" binding:"required"` // YYYY-MM-DD
	DueDate        string               `json:"due_date" binding:"required"`   // YYYY-MM-DD
	Currency       string               `json:"currency"`
	Status         string               `json:"status" binding:"omitempty,oneof=DRAFT POSTED"`
	PaymentStatus  string               `json:"payment_status" binding:"omitempty,oneof=UNPAID PAID"`
	AttachmentPath string               `json:"attachment_path"`
	LineItems      []InvoiceLineRequest `json:"line_items" binding:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	Type           string               `json:"type" binding:"omitempty,oneof=SALES PURCHASE"`
	InvoiceNumber  string               `json:"invoice_number"`
	Counterparty   string               `json:"counterparty"`
	IssueDate      string               `json:"issue_date"`
	DueDate        string               `json:"due_date"`
	Currency       string               `json:"currency"`
	PaymentStatus  string               `json:"payment_status" binding:"omitempty,oneof=UNPAID PAID"`
	AttachmentPath string               `json:"attachment_path"`
	LineItems      []InvoiceLineRequest `json:"line_items" binding:"omitempty,dive"`
}

// --- Interface ---

type InvoiceService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateInvoiceRequest) (*model.Invoice, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Invoice, error)
	List(ctx context.Context, userID uuid.UUID, invoiceType, status string, page, limit int) ([]model.Invoice, int64, error)
	Update(ctx context.Context, userID uuid.UUID, id string, req UpdateInvoiceRequest) (*model.Invoice, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, id string, status string) (*model.Invoice, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository, auditRepo repository.AuditRepository) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *invoiceService) Create(ctx context.Context, userID uuid.UUID, req CreateInvoiceRequest) (*model.Invoice, error) {
	issueDate, dueDate, err := parseInvoiceDates(req.IssueDate, req.DueDate)
	if err != nil {
		return nil, err
	}

	lines, err := buildLineItems(req.LineItems, req.Type)
	if err != nil {
		return nil, err
	}

	invoice := model.Invoice{
		UserID:         userID,
		Type:           req.Type,
		InvoiceNumber:  req.InvoiceNumber,
		Counterparty:   req.Counterparty,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		Currency:       req.Currency,
		Status:         req.Status,
		PaymentStatus:  req.PaymentStatus,
		AttachmentPath: req.AttachmentPath,
		LineItems:      lines,
	}
	if invoice.Currency == "" {
		invoice.Currency = "EUR"
	}
	if invoice.Status == "" {
		invoice.Status = model.InvoiceStatusDraft
	}
	if invoice.PaymentStatus == "" {
		invoice.PaymentStatus = model.PaymentStatusUnpaid
	}

	if err := s.invoiceRepo.Create(ctx, &invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, userID, model.ActionCreateInvoice, invoice.ID.String(), invoice.InvoiceNumber, req)

	return &invoice, nil
}

func (s *invoiceService) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Invoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid invoice id", ErrInvalidInput)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, userID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, userID uuid.UUID, invoiceType, status string, page, limit int) ([]model.Invoice, int64, error) {
	return s.invoiceRepo.List(ctx, userID, invoiceType, status, page, limit)
}

func (s *invoiceService) Update(ctx context.Context, userID uuid.UUID, id string, req UpdateInvoiceRequest) (*model.Invoice, error) {
	invoice, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Type != "" {
		invoice.Type = req.Type
	}
	if req.InvoiceNumber != "" {
		invoice.InvoiceNumber = req.InvoiceNumber
	}
	if req.Counterparty != "" {
		invoice.Counterparty = req.Counterparty
	}
	if req.Currency != "" {
		invoice.Currency = req.Currency
	}
	if req.PaymentStatus != "" {
		invoice.PaymentStatus = req.PaymentStatus
	}
	if req.AttachmentPath != "" {
		invoice.AttachmentPath = req.AttachmentPath
	}
	if req.IssueDate != "" {
		issueDate, err := time.Parse("2006-01-02", req.IssueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid issue_date format (expected YYYY-MM-DD)", ErrInvalidInput)
		}
		invoice.IssueDate = issueDate
	}
	if req.DueDate != "" {
		dueDate, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid due_date format (expected YYYY-MM-DD)", ErrInvalidInput)
		}
		invoice.DueDate = dueDate
	}

	// Line items are always rebuilt as a whole: the derived amounts and
	// categories must stay consistent with the line inputs and the invoice
	// direction.
	if len(req.LineItems) > 0 {
		lines, err := buildLineItems(req.LineItems, invoice.Type)
		if err != nil {
			return nil, err
		}
		if err := s.invoiceRepo.ReplaceLineItems(ctx, invoice, lines); err != nil {
			return nil, fmt.Errorf("failed to update invoice: %w", err)
		}
	} else if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, userID, model.ActionUpdateInvoice, invoice.ID.String(), invoice.InvoiceNumber, req)

	return s.GetByID(ctx, userID, id)
}

func (s *invoiceService) UpdateStatus(ctx context.Context, userID uuid.UUID, id string, status string) (*model.Invoice, error) {
	if status != model.InvoiceStatusDraft && status != model.InvoiceStatusPosted && status != model.InvoiceStatusCancelled {
		return nil, fmt.Errorf("%w: unknown invoice status %q", ErrInvalidInput, status)
	}

	invoice, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	invoice.Status = status
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	if status == model.InvoiceStatusPosted {
		writeAuditLog(ctx, s.auditRepo, userID, model.ActionPostInvoice, invoice.ID.String(), invoice.InvoiceNumber, map[string]string{"status": status})
	}

	return invoice, nil
}

func (s *invoiceService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	invoice, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.invoiceRepo.Delete(ctx, userID, invoice.ID); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, userID, model.ActionDeleteInvoice, id, invoice.InvoiceNumber, nil)

	return nil
}

// --- Helpers ---

func parseInvoiceDates(issueStr, dueStr string) (time.Time, time.Time, error) {
	issueDate, err := time.Parse("2006-01-02", issueStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid issue_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}
	dueDate, err := time.Parse("2006-01-02", dueStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid due_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}
	return issueDate, dueDate, nil
}

// buildLineItems derives the stored amounts and the tax category for every
// requested line. A reverse-charge line without a jurisdiction is rejected
// here, at creation time, so the classifier never sees one.
func buildLineItems(reqs []InvoiceLineRequest, direction string) ([]model.InvoiceLine, error) {
	lines := make([]model.InvoiceLine, 0, len(reqs))

	for i, req := range reqs {
		quantity, err := decimal.NewFromString(req.Quantity)
		if err != nil || quantity.IsNegative() {
			return nil, fmt.Errorf("%w: line %d: quantity must be a non-negative decimal", ErrInvalidInput, i+1)
		}
		unitPrice, err := decimal.NewFromString(req.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line %d: unit_price must be a non-negative decimal", ErrInvalidInput, i+1)
		}
		rate, err := decimal.NewFromString(req.VATRate)
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: line %d: vat_rate must be a decimal between 0 and 1", ErrInvalidInput, i+1)
		}

		var location *string
		if req.ReverseCharge {
			if req.ReverseChargeLocation != vat.JurisdictionEU && req.ReverseChargeLocation != vat.JurisdictionNonEU {
				return nil, fmt.Errorf("%w: line %d: reverse-charge lines require reverse_charge_location EU or NON_EU", ErrInvalidInput, i+1)
			}
			loc := req.ReverseChargeLocation
			location = &loc
		}

		deductibility := decimal.NewFromInt(100)
		if req.DeductibilityPercentage != "" {
			deductibility, err = decimal.NewFromString(req.DeductibilityPercentage)
			if err != nil || deductibility.IsNegative() || deductibility.GreaterThan(decimal.NewFromInt(100)) {
				return nil, fmt.Errorf("%w: line %d: deductibility_percentage must be between 0 and 100", ErrInvalidInput, i+1)
			}
		}
		deductible := true
		if req.IsDeductible != nil {
			deductible = *req.IsDeductible
		}

		amounts := vat.PriceLine(quantity, unitPrice, rate, req.ReverseCharge)
		category := vat.Classify(rate, req.ReverseCharge, req.ReverseChargeLocation, direction)

		lines = append(lines, model.InvoiceLine{
			Position:                i,
			Description:             req.Description,
			Quantity:                quantity,
			UnitPrice:               unitPrice,
			VATRate:                 rate,
			ReverseCharge:           req.ReverseCharge,
			ReverseChargeLocation:   location,
			DeductibilityPercentage: deductibility,
			IsDeductible:            deductible,
			Subtotal:                amounts.Subtotal,
			VATAmount:               amounts.VATAmount,
			Total:                   amounts.Total,
			VATCategory:             string(category),
		})
	}

	return lines, nil
}
