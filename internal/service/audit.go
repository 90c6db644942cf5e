package service

import (
	"context"
	"encoding/json"

	"github.com/tjappo/simple-books/internal/model"
	"github.com/tjappo/simple-books/internal/repository"

	"github.com/google/uuid"
)

// AuditService exposes the audit trail to the reporting layer.
type AuditService interface {
	List(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, userID, page, limit)
}

// writeAuditLog records a domain action. Best effort: a failed audit write
// never fails the operation that triggered it.
func writeAuditLog(ctx context.Context, repo repository.AuditRepository, userID uuid.UUID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	_ = repo.Log(ctx, &entry)
}
