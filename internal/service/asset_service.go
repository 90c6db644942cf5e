package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tjappo/simple-books/internal/depreciation"
	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateAssetRequest struct {
	InvoiceID          string `json:"invoice_id"` // optional purchase invoice link
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	Category           string `json:"category" binding:"required"`
	PurchaseDate       string `json:"purchase_date" binding:"required"` // YYYY-MM-DD
	PurchasePrice      string `json:"purchase_price" binding:"required"`
	ResidualValue      string `json:"residual_value"`
	DepreciationMethod string `json:"depreciation_method" binding:"required,oneof=STRAIGHT_LINE DECLINING_BALANCE"`
	DepreciationRate   string `json:"depreciation_rate"` // declining balance, % per year
	UsefulLife         int    `json:"useful_life" binding:"required,min=1"`
	Notes              string `json:"notes"`
}

type UpdateAssetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Notes       string `json:"notes"`
}

type DisposeAssetRequest struct {
	DisposalDate string `json:"disposal_date" binding:"required"` // YYYY-MM-DD
	Notes        string `json:"notes"`
}

// AssetDetail is an asset with its depreciation recomputed as of now and the
// full year-by-year schedule attached.
type AssetDetail struct {
	model.Asset
	AnnualDepreciation decimal.Decimal              `json:"annual_depreciation"`
	Schedule           []depreciation.ScheduleEntry `json:"depreciation_schedule"`
}

// --- Interface ---

type AssetService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateAssetRequest) (*model.Asset, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*AssetDetail, error)
	List(ctx context.Context, userID uuid.UUID, status string) ([]model.Asset, error)
	Update(ctx context.Context, userID uuid.UUID, id string, req UpdateAssetRequest) (*model.Asset, error)
	Dispose(ctx context.Context, userID uuid.UUID, id string, req DisposeAssetRequest) (*model.Asset, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
}

type assetService struct {
	assetRepo repository.AssetRepository
	auditRepo repository.AuditRepository
}

func NewAssetService(assetRepo repository.AssetRepository, auditRepo repository.AuditRepository) AssetService {
	return &assetService{assetRepo: assetRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *assetService) Create(ctx context.Context, userID uuid.UUID, req CreateAssetRequest) (*model.Asset, error) {
	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid purchase_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}

	price, err := decimal.NewFromString(req.PurchasePrice)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("%w: purchase_price must be a non-negative decimal", ErrInvalidInput)
	}

	residual := decimal.Zero
	if req.ResidualValue != "" {
		residual, err = decimal.NewFromString(req.ResidualValue)
		if err != nil || residual.IsNegative() || residual.GreaterThan(price) {
			return nil, fmt.Errorf("%w: residual_value must be between 0 and the purchase price", ErrInvalidInput)
		}
	}

	rate := decimal.Zero
	if req.DepreciationMethod == depreciation.MethodDecliningBalance {
		if req.DepreciationRate == "" {
			return nil, fmt.Errorf("%w: declining balance assets require depreciation_rate", ErrInvalidInput)
		}
		rate, err = decimal.NewFromString(req.DepreciationRate)
		if err != nil || rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("%w: depreciation_rate must be between 0 and 100", ErrInvalidInput)
		}
	}

	var invoiceID *uuid.UUID
	if req.InvoiceID != "" {
		parsed, err := uuid.Parse(req.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid invoice_id", ErrInvalidInput)
		}
		invoiceID = &parsed
	}

	asset := model.Asset{
		UserID:             userID,
		InvoiceID:          invoiceID,
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		PurchaseDate:       purchaseDate,
		PurchasePrice:      price,
		ResidualValue:      residual,
		DepreciationMethod: req.DepreciationMethod,
		DepreciationRate:   rate,
		UsefulLife:         req.UsefulLife,
		Status:             model.AssetStatusActive,
		Notes:              req.Notes,
	}
	refreshDepreciation(&asset, time.Now())

	if err := s.assetRepo.Create(ctx, &asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, userID, model.ActionCreateAsset, asset.ID.String(), asset.Name, req)

	return &asset, nil
}

func (s *assetService) GetByID(ctx context.Context, userID uuid.UUID, id string) (*AssetDetail, error) {
	asset, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if asset.Status != model.AssetStatusDisposed {
		refreshDepreciation(asset, time.Now())
	}

	calc := toCalcAsset(asset)
	result := depreciation.Compute(calc, depreciation.ElapsedMonths(asset.PurchaseDate, time.Now()))

	return &AssetDetail{
		Asset:              *asset,
		AnnualDepreciation: result.Annual,
		Schedule:           depreciation.Schedule(calc),
	}, nil
}

func (s *assetService) List(ctx context.Context, userID uuid.UUID, status string) ([]model.Asset, error) {
	assets, err := s.assetRepo.List(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	now := time.Now()
	for i := range assets {
		if assets[i].Status != model.AssetStatusDisposed {
			refreshDepreciation(&assets[i], now)
		}
	}
	return assets, nil
}

func (s *assetService) Update(ctx context.Context, userID uuid.UUID, id string, req UpdateAssetRequest) (*model.Asset, error) {
	asset, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		asset.Name = req.Name
	}
	if req.Description != "" {
		asset.Description = req.Description
	}
	if req.Category != "" {
		asset.Category = req.Category
	}
	if req.Notes != "" {
		asset.Notes = req.Notes
	}

	if err := s.assetRepo.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	return asset, nil
}

func (s *assetService) Dispose(ctx context.Context, userID uuid.UUID, id string, req DisposeAssetRequest) (*model.Asset, error) {
	asset, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if asset.Status == model.AssetStatusDisposed {
		return nil, fmt.Errorf("%w: asset %s is already disposed", ErrInvalidState, id)
	}

	disposalDate, err := time.Parse("2006-01-02", req.DisposalDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid disposal_date format (expected YYYY-MM-DD)", ErrInvalidInput)
	}

	// Freeze depreciation at the disposal date before the status flips.
	refreshDepreciation(asset, disposalDate)
	asset.Status = model.AssetStatusDisposed
	asset.DisposalDate = &disposalDate
	if req.Notes != "" {
		asset.Notes = req.Notes
	}

	if err := s.assetRepo.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to dispose asset: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, userID, model.ActionDisposeAsset, asset.ID.String(), asset.Name, req)

	return asset, nil
}

func (s *assetService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	asset, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.assetRepo.Delete(ctx, userID, asset.ID); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// --- Helpers ---

func (s *assetService) find(ctx context.Context, userID uuid.UUID, id string) (*model.Asset, error) {
	assetID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid asset id", ErrInvalidInput)
	}
	asset, err := s.assetRepo.FindByID(ctx, userID, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: asset %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	return asset, nil
}

func toCalcAsset(asset *model.Asset) depreciation.Asset {
	return depreciation.Asset{
		PurchasePrice: asset.PurchasePrice,
		ResidualValue: asset.ResidualValue,
		Method:        asset.DepreciationMethod,
		Rate:          asset.DepreciationRate,
		UsefulLife:    asset.UsefulLife,
	}
}

// refreshDepreciation recomputes the stored depreciation snapshot as of the
// given date and flips the status once the asset is written off.
func refreshDepreciation(asset *model.Asset, asOf time.Time) {
	calc := toCalcAsset(asset)
	result := depreciation.Compute(calc, depreciation.ElapsedMonths(asset.PurchaseDate, asOf))

	asset.AccumulatedDepreciation = result.Accumulated
	asset.CurrentBookValue = depreciation.BookValue(calc, result.Accumulated)

	if asset.Status == model.AssetStatusActive &&
		asset.CurrentBookValue.LessThanOrEqual(asset.ResidualValue) &&
		result.Accumulated.Equal(asset.PurchasePrice.Sub(asset.ResidualValue)) {
		asset.Status = model.AssetStatusFullyDepreciated
	}
}
