package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateCustomerRequest struct {
	Type    string `json:"type" binding:"required,oneof=PRIVATE BUSINESS"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	KVK     string `json:"kvk"` // chamber of commerce number, business customers
	BTW     string `json:"btw"` // VAT identification number
}

type UpdateCustomerRequest struct {
	Type    string `json:"type" binding:"omitempty,oneof=PRIVATE BUSINESS"`
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	KVK     string `json:"kvk"`
	BTW     string `json:"btw"`
}

type CustomerService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateCustomerRequest) (*model.Customer, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Customer, error)
	List(ctx context.Context, userID uuid.UUID, customerType, search string, page, limit int) ([]model.Customer, int64, error)
	Update(ctx context.Context, userID uuid.UUID, id string, req UpdateCustomerRequest) (*model.Customer, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) Create(ctx context.Context, userID uuid.UUID, req CreateCustomerRequest) (*model.Customer, error) {
	customer := model.Customer{
		UserID:  userID,
		Type:    req.Type,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		KVK:     req.KVK,
		BTW:     req.BTW,
	}
	if err := s.customerRepo.Create(ctx, &customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &customer, nil
}

func (s *customerService) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid customer id", ErrInvalidInput)
	}
	customer, err := s.customerRepo.FindByID(ctx, userID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, userID uuid.UUID, customerType, search string, page, limit int) ([]model.Customer, int64, error) {
	return s.customerRepo.List(ctx, userID, customerType, search, page, limit)
}

func (s *customerService) Update(ctx context.Context, userID uuid.UUID, id string, req UpdateCustomerRequest) (*model.Customer, error) {
	customer, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Type != "" {
		customer.Type = req.Type
	}
	if req.Name != "" {
		customer.Name = req.Name
	}
	if req.Email != "" {
		customer.Email = req.Email
	}
	if req.Phone != "" {
		customer.Phone = req.Phone
	}
	if req.Address != "" {
		customer.Address = req.Address
	}
	if req.KVK != "" {
		customer.KVK = req.KVK
	}
	if req.BTW != "" {
		customer.BTW = req.BTW
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	customer, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, userID, customer.ID); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
