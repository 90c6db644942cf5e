package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceType enum constants
const (
	InvoiceTypeSales    = "SALES"
	InvoiceTypePurchase = "PURCHASE"
)

// InvoiceStatus enum constants
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusPosted    = "POSTED"
	InvoiceStatusCancelled = "CANCELLED"
)

// PaymentStatus enum constants
const (
	PaymentStatusUnpaid = "UNPAID"
	PaymentStatusPaid   = "PAID"
)

// Invoice represents a sales or purchase invoice with its line items.
// DeclarationID is set once the invoice is swept into a finalized VAT
// declaration; it is the guard against double-counting across periods.
type Invoice struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Type           string         `gorm:"type:varchar(10);not null;index" json:"type"` // SALES, PURCHASE
	InvoiceNumber  string         `gorm:"type:varchar(50);not null" json:"invoice_number"`
	Counterparty   string         `gorm:"type:varchar(255);not null" json:"counterparty"`
	IssueDate      time.Time      `gorm:"type:date;not null;index" json:"issue_date"`
	DueDate        time.Time      `gorm:"type:date;not null" json:"due_date"`
	Currency       string         `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Status         string         `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	PaymentStatus  string         `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"payment_status"`
	AttachmentPath string         `gorm:"type:text" json:"attachment_path,omitempty"`
	DeclarationID  *uuid.UUID     `gorm:"type:uuid;index" json:"declaration_id"` // nil until swept into a FINAL declaration
	LineItems      []InvoiceLine  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"line_items"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// InvoiceLine is one priced, classified line of an invoice. The derived
// fields (Subtotal, VATAmount, Total, VATCategory) are recomputed whenever
// quantity, price, rate or the reverse-charge flags change, never edited
// directly.
type InvoiceLine struct {
	ID                      uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID               uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position                int             `gorm:"not null;default:0" json:"position"`
	Description             string          `gorm:"type:text;not null" json:"description"`
	Quantity                decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice               decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	VATRate                 decimal.Decimal `gorm:"column:vat_rate;type:decimal(10,4);not null" json:"vat_rate"` // 0, 0.09, 0.21, ...
	ReverseCharge           bool            `gorm:"not null;default:false" json:"reverse_charge"`
	ReverseChargeLocation   *string         `gorm:"type:varchar(10)" json:"reverse_charge_location"` // EU, NON_EU; required iff reverse charge
	DeductibilityPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:100" json:"deductibility_percentage"`
	IsDeductible            bool            `gorm:"not null;default:true" json:"is_deductible"`
	Subtotal                decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	VATAmount               decimal.Decimal `gorm:"column:vat_amount;type:decimal(18,4);not null" json:"vat_amount"`
	Total                   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	VATCategory             string          `gorm:"column:vat_category;type:varchar(30);not null;index" json:"vat_category"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}
