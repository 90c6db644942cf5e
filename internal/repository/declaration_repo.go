package repository

import (
	"context"

	"github.com/tjappo/simple-books/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeclarationRepository defines data access for VAT declarations.
type DeclarationRepository interface {
	Create(ctx context.Context, declaration *model.VatDeclaration) error
	Save(ctx context.Context, declaration *model.VatDeclaration) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.VatDeclaration, error)
	FindByPeriod(ctx context.Context, userID uuid.UUID, period string) (*model.VatDeclaration, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.VatDeclaration, error)
}

type declarationRepository struct {
	db *gorm.DB
}

func NewDeclarationRepository(db *gorm.DB) DeclarationRepository {
	return &declarationRepository{db: db}
}

func (r *declarationRepository) Create(ctx context.Context, declaration *model.VatDeclaration) error {
	return GetDB(ctx, r.db).Create(declaration).Error
}

func (r *declarationRepository) Save(ctx context.Context, declaration *model.VatDeclaration) error {
	return GetDB(ctx, r.db).Save(declaration).Error
}

func (r *declarationRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.VatDeclaration, error) {
	var declaration model.VatDeclaration
	if err := GetDB(ctx, r.db).First(&declaration, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &declaration, nil
}

func (r *declarationRepository) FindByPeriod(ctx context.Context, userID uuid.UUID, period string) (*model.VatDeclaration, error) {
	var declaration model.VatDeclaration
	if err := GetDB(ctx, r.db).First(&declaration, "user_id = ? AND period = ?", userID, period).Error; err != nil {
		return nil, err
	}
	return &declaration, nil
}

func (r *declarationRepository) List(ctx context.Context, userID uuid.UUID) ([]model.VatDeclaration, error) {
	var declarations []model.VatDeclaration
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&declarations).Error
	if err != nil {
		return nil, err
	}
	return declarations, nil
}
