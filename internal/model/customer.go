package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerType enum constants
const (
	CustomerTypePrivate  = "PRIVATE"
	CustomerTypeBusiness = "BUSINESS"
)

// Customer represents a private or business counterparty
type Customer struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string         `gorm:"type:varchar(10);not null;index" json:"type"` // PRIVATE, BUSINESS
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Address   string         `gorm:"type:text;not null" json:"address"`
	KVK       string         `gorm:"type:varchar(20)" json:"kvk"` // business customers only
	BTW       string         `gorm:"type:varchar(20)" json:"btw"` // VAT identification number
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
