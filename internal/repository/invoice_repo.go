package repository

import (
	"context"
	"time"

	"github.com/tjappo/simple-books/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceRepository defines data access for invoices and their line items.
// The declaration engine relies on FindPostedUnattributed / SetAttribution /
// ClearAttribution; everything else serves the invoicing CRUD surface.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, userID uuid.UUID, invoiceType, status string, page, limit int) ([]model.Invoice, int64, error)
	ReplaceLineItems(ctx context.Context, invoice *model.Invoice, lines []model.InvoiceLine) error
	Update(ctx context.Context, invoice *model.Invoice) error
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// FindPostedUnattributed returns posted invoices not yet attributed to any
	// declaration whose issue date falls within [start, end], or before start:
	// invoices posted late for an earlier period are swept into the current one.
	FindPostedUnattributed(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.Invoice, error)
	FindByDeclarationID(ctx context.Context, declarationID uuid.UUID) ([]model.Invoice, error)
	// FindForBox returns invoices of the given type whose lines match the
	// category, with line items narrowed to that category.
	FindForBox(ctx context.Context, userID uuid.UUID, invoiceType, category string, declarationID *uuid.UUID, start, end *time.Time) ([]model.Invoice, error)
	SetAttribution(ctx context.Context, invoiceIDs []uuid.UUID, declarationID uuid.UUID) error
	ClearAttribution(ctx context.Context, declarationID uuid.UUID) error
	FirstPostedByIssueDate(ctx context.Context, userID uuid.UUID, ascending bool) (*model.Invoice, error)
	// FindPostedInRange returns posted invoices of the given type with an issue
	// date in [start, end]; feeds the financial reports.
	FindPostedInRange(ctx context.Context, userID uuid.UUID, invoiceType string, start, end time.Time) ([]model.Invoice, error)
	// FindUnpaidPostedBefore returns posted, unpaid invoices issued on or
	// before the cutoff; feeds the balance sheet receivables and payables.
	FindUnpaidPostedBefore(ctx context.Context, userID uuid.UUID, invoiceType string, cutoff time.Time) ([]model.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&invoice, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, userID uuid.UUID, invoiceType, status string, page, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Invoice{}).Where("user_id = ?", userID)
	if invoiceType != "" {
		query = query.Where("type = ?", invoiceType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ?", userID)
	if invoiceType != "" {
		fetchQuery = fetchQuery.Where("type = ?", invoiceType)
	}
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("issue_date DESC").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// ReplaceLineItems swaps the invoice's lines for a freshly derived set and
// saves the invoice, atomically.
func (r *invoiceRepository) ReplaceLineItems(ctx context.Context, invoice *model.Invoice, lines []model.InvoiceLine) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&model.InvoiceLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].InvoiceID = invoice.ID
		}
		invoice.LineItems = lines
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(invoice).Error
	})
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit("LineItems").Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Invoice{}).Error
}

func (r *invoiceRepository) FindPostedUnattributed(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND status = ? AND declaration_id IS NULL AND issue_date <= ?",
			userID, model.InvoiceStatusPosted, end).
		Order("issue_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) FindByDeclarationID(ctx context.Context, declarationID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("declaration_id = ?", declarationID).
		Order("issue_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) FindForBox(ctx context.Context, userID uuid.UUID, invoiceType, category string, declarationID *uuid.UUID, start, end *time.Time) ([]model.Invoice, error) {
	db := GetDB(ctx, r.db)

	query := db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Where("vat_category = ?", category).Order("position ASC")
		}).
		Where("user_id = ? AND type = ?", userID, invoiceType).
		Where("id IN (?)", db.Model(&model.InvoiceLine{}).
			Select("invoice_id").
			Where("vat_category = ?", category))

	if declarationID != nil {
		// Finalized declaration: only the invoices it attributed.
		query = query.Where("declaration_id = ?", *declarationID)
	} else {
		// Preview by period: the aggregator's scope, late invoices included.
		query = query.Where("status = ? AND declaration_id IS NULL AND issue_date <= ?",
			model.InvoiceStatusPosted, *end)
	}

	var invoices []model.Invoice
	if err := query.Order("issue_date ASC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) SetAttribution(ctx context.Context, invoiceIDs []uuid.UUID, declarationID uuid.UUID) error {
	if len(invoiceIDs) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("id IN ?", invoiceIDs).
		Update("declaration_id", declarationID).Error
}

func (r *invoiceRepository) ClearAttribution(ctx context.Context, declarationID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("declaration_id = ?", declarationID).
		Update("declaration_id", nil).Error
}

func (r *invoiceRepository) FindPostedInRange(ctx context.Context, userID uuid.UUID, invoiceType string, start, end time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND type = ? AND status = ? AND issue_date BETWEEN ? AND ?",
			userID, invoiceType, model.InvoiceStatusPosted, start, end).
		Order("issue_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) FindUnpaidPostedBefore(ctx context.Context, userID uuid.UUID, invoiceType string, cutoff time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND type = ? AND status = ? AND payment_status = ? AND issue_date <= ?",
			userID, invoiceType, model.InvoiceStatusPosted, model.PaymentStatusUnpaid, cutoff).
		Order("issue_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) FirstPostedByIssueDate(ctx context.Context, userID uuid.UUID, ascending bool) (*model.Invoice, error) {
	order := "issue_date ASC"
	if !ascending {
		order = "issue_date DESC"
	}

	var invoice model.Invoice
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND status = ?", userID, model.InvoiceStatusPosted).
		Order(order).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
