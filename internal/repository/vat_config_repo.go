package repository

import (
	"context"
	"errors"

	"github.com/tjappo/simple-books/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VatConfigRepository stores per-user VAT configuration.
type VatConfigRepository interface {
	// FindByUserID returns nil (no error) when the user has no configuration.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.VatConfiguration, error)
	Upsert(ctx context.Context, config *model.VatConfiguration) error
}

type vatConfigRepository struct {
	db *gorm.DB
}

func NewVatConfigRepository(db *gorm.DB) VatConfigRepository {
	return &vatConfigRepository{db: db}
}

func (r *vatConfigRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.VatConfiguration, error) {
	var config model.VatConfiguration
	err := GetDB(ctx, r.db).First(&config, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *vatConfigRepository) Upsert(ctx context.Context, config *model.VatConfiguration) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"has_full_deduction_right", "updated_at"}),
	}).Create(config).Error
}
