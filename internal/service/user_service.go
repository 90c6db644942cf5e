package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt string    `json:"created_at"`
}

type CompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	KVK     string `json:"kvk"`
	BTW     string `json:"btw"`
	IBAN    string `json:"iban"`
	Address string `json:"address"`
}

type VatConfigRequest struct {
	HasFullDeductionRight *bool `json:"has_full_deduction_right" binding:"required"`
}

// UserService covers registration, login, token refresh and the per-user
// settings (company profile, VAT configuration).
type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error)

	GetCompany(ctx context.Context, userID uuid.UUID) (*model.Company, error)
	SaveCompany(ctx context.Context, userID uuid.UUID, req CompanyRequest) (*model.Company, error)
	GetVatConfig(ctx context.Context, userID uuid.UUID) (*model.VatConfiguration, error)
	SaveVatConfig(ctx context.Context, userID uuid.UUID, req VatConfigRequest) (*model.VatConfiguration, error)
}

type userService struct {
	userRepo      repository.UserRepository
	vatConfigRepo repository.VatConfigRepository
	jwtSecret     []byte
}

// NewUserService returns a new instance of UserService
func NewUserService(userRepo repository.UserRepository, vatConfigRepo repository.VatConfigRepository, jwtSecret []byte) UserService {
	return &userService{userRepo: userRepo, vatConfigRepo: vatConfigRepo, jwtSecret: jwtSecret}
}

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

func mapToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapToUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates the refresh token: the presented token is consumed and a
// fresh pair is issued.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.userRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.userRepo.DeleteRefreshToken(ctx, refreshToken)
		return nil, errors.New("refresh token expired")
	}

	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, stored.UserID)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return mapToUserResponse(user), nil
}

func (s *userService) GetCompany(ctx context.Context, userID uuid.UUID) (*model.Company, error) {
	company, err := s.userRepo.GetCompany(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: company profile", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}
	return company, nil
}

func (s *userService) SaveCompany(ctx context.Context, userID uuid.UUID, req CompanyRequest) (*model.Company, error) {
	company, err := s.userRepo.GetCompany(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to fetch company: %w", err)
		}
		company = &model.Company{UserID: userID}
	}

	company.Name = req.Name
	company.KVK = req.KVK
	company.BTW = req.BTW
	company.IBAN = req.IBAN
	company.Address = req.Address

	if err := s.userRepo.SaveCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to save company: %w", err)
	}
	return company, nil
}

func (s *userService) GetVatConfig(ctx context.Context, userID uuid.UUID) (*model.VatConfiguration, error) {
	config, err := s.vatConfigRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vat configuration: %w", err)
	}
	if config == nil {
		// No stored row means the default applies.
		return &model.VatConfiguration{UserID: userID, HasFullDeductionRight: true}, nil
	}
	return config, nil
}

func (s *userService) SaveVatConfig(ctx context.Context, userID uuid.UUID, req VatConfigRequest) (*model.VatConfiguration, error) {
	config := &model.VatConfiguration{
		UserID:                userID,
		HasFullDeductionRight: *req.HasFullDeductionRight,
	}
	if err := s.vatConfigRepo.Upsert(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to save vat configuration: %w", err)
	}
	return config, nil
}

func (s *userService) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(accessTokenTTL).Unix(),
	})
	accessToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshToken := hex.EncodeToString(raw)

	if err := s.userRepo.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    userID,
		Token:     refreshToken,
		ExpiresAt: now.Add(refreshTokenTTL),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
