package repository

import (
	"context"
	"time"

	"github.com/tjappo/simple-books/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *model.Asset) error
	Update(ctx context.Context, asset *model.Asset) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Asset, error)
	List(ctx context.Context, userID uuid.UUID, status string) ([]model.Asset, error)
	// ListPurchasedBefore returns active or fully depreciated assets purchased
	// on or before the cutoff; feeds the balance sheet.
	ListPurchasedBefore(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]model.Asset, error)
}

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *model.Asset) error {
	return GetDB(ctx, r.db).Create(asset).Error
}

func (r *assetRepository) Update(ctx context.Context, asset *model.Asset) error {
	return GetDB(ctx, r.db).Omit("Invoice").Save(asset).Error
}

func (r *assetRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Asset{}).Error
}

func (r *assetRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Asset, error) {
	var asset model.Asset
	err := GetDB(ctx, r.db).
		Preload("Invoice.LineItems").
		First(&asset, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context, userID uuid.UUID, status string) ([]model.Asset, error) {
	var assets []model.Asset
	query := GetDB(ctx, r.db).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("purchase_date DESC").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepository) ListPurchasedBefore(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]model.Asset, error) {
	var assets []model.Asset
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND purchase_date <= ? AND status IN ?",
			userID, cutoff, []string{model.AssetStatusActive, model.AssetStatusFullyDepreciated}).
		Order("purchase_date ASC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}
