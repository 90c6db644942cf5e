package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssetStatus enum constants
const (
	AssetStatusActive           = "ACTIVE"
	AssetStatusFullyDepreciated = "FULLY_DEPRECIATED"
	AssetStatusDisposed         = "DISPOSED"
)

// Asset is a fixed asset depreciated over its useful life. The stored
// CurrentBookValue and AccumulatedDepreciation are snapshots; reads
// recompute them as of the request date.
type Asset struct {
	ID                      uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID                  uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	InvoiceID               *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id"` // purchase invoice, optional
	Invoice                 *Invoice        `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	Name                    string          `gorm:"type:varchar(255);not null" json:"name"`
	Description             string          `gorm:"type:text" json:"description"`
	Category                string          `gorm:"type:varchar(100);not null" json:"category"`
	PurchaseDate            time.Time       `gorm:"type:date;not null;index" json:"purchase_date"`
	PurchasePrice           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"purchase_price"`
	ResidualValue           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"residual_value"`
	DepreciationMethod      string          `gorm:"type:varchar(20);not null" json:"depreciation_method"` // STRAIGHT_LINE, DECLINING_BALANCE
	DepreciationRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"depreciation_rate"`
	UsefulLife              int             `gorm:"not null" json:"useful_life"` // years
	CurrentBookValue        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"current_book_value"`
	AccumulatedDepreciation decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"accumulated_depreciation"`
	Status                  string          `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	DisposalDate            *time.Time      `gorm:"type:date" json:"disposal_date"`
	Notes                   string          `gorm:"type:text" json:"notes"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
	DeletedAt               gorm.DeletedAt  `gorm:"index" json:"-"`
}
