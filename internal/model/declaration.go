package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DeclarationStatus enum constants
const (
	DeclarationStatusDraft     = "DRAFT"
	DeclarationStatusSubmitted = "SUBMITTED"
	DeclarationStatusFinal     = "FINAL"
)

// PeriodType enum constants
const (
	PeriodTypeMonthly   = "MONTHLY"
	PeriodTypeQuarterly = "QUARTERLY"
)

// BoxAmount is a sparse declaration box value. Base and VAT are pointers so
// a box can carry only one of the two (e.g. box 1d is VAT-only); a box absent
// from the map is omitted from display entirely.
type BoxAmount struct {
	Base *decimal.Decimal `json:"base,omitempty"`
	VAT  *decimal.Decimal `json:"vat,omitempty"`
}

// OptionalBoxes maps a sparse box id ("1c", "1d", "3c", "4c") to its value.
type OptionalBoxes map[string]BoxAmount

// VatDeclaration is one periodic VAT return. The mandatory boxes are fixed
// columns; the historically sparse boxes live in the OptionalBoxes JSON map.
// Once Status is FINAL the row is immutable: no recalculation, no updates.
// At most one declaration exists per (user, period).
type VatDeclaration struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_declarations_user_period" json:"user_id"`
	Period     string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_declarations_user_period" json:"period"` // "2025-Q1" or "2025-01"
	PeriodType string    `gorm:"type:varchar(10);not null" json:"period_type"`                                     // MONTHLY, QUARTERLY
	StartDate  time.Time `gorm:"type:date;not null;index" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null" json:"end_date"`

	Box1aBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box1a_base"`
	Box1aVAT  decimal.Decimal `gorm:"column:box1a_vat;type:decimal(18,2);not null;default:0" json:"box1a_vat"`
	Box1bBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box1b_base"`
	Box1bVAT  decimal.Decimal `gorm:"column:box1b_vat;type:decimal(18,2);not null;default:0" json:"box1b_vat"`
	Box1eBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box1e_base"`
	Box2aBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box2a_base"`
	Box2aVAT  decimal.Decimal `gorm:"column:box2a_vat;type:decimal(18,2);not null;default:0" json:"box2a_vat"`
	Box3aBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box3a_base"`
	Box3bBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box3b_base"`
	Box4aBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box4a_base"`
	Box4aVAT  decimal.Decimal `gorm:"column:box4a_vat;type:decimal(18,2);not null;default:0" json:"box4a_vat"`
	Box4bBase decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box4b_base"`
	Box4bVAT  decimal.Decimal `gorm:"column:box4b_vat;type:decimal(18,2);not null;default:0" json:"box4b_vat"`
	Box5a     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box5a"`
	Box5b     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box5b"`
	Box5d     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"box5d"`

	// Sparse boxes: 1c (other domestic rates), 1d (private use, manual),
	// 3c (distance sales), 4c (other foreign).
	OptionalBoxes datatypes.JSONType[OptionalBoxes] `gorm:"column:optional_boxes" json:"optional_boxes"`

	Status    string    `gorm:"type:varchar(10);not null;default:'DRAFT';index" json:"status"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VatConfiguration stores per-user VAT settings. A user without a row is
// treated as having the full deduction right.
type VatConfiguration struct {
	ID                    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID                uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	HasFullDeductionRight bool      `gorm:"not null;default:true" json:"has_full_deduction_right"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
