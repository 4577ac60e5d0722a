package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/repository"
	"go.uber.org/zap"
)

// AuditLogService handles audit logging operations
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Action     domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	EntityName string
	Metadata   map[string]interface{}
}

// Log creates an audit log entry from context and request. Audit failures are
// logged but never fail the calling operation.
func (s *AuditLogService) Log(ctx context.Context, r *http.Request, entry LogEntry) error {
	auditLog := &domain.AuditLog{
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		EntityName:  entry.EntityName,
		PerformedAt: time.Now(),
	}

	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		auditLog.UserID = userCtx.UserID
		auditLog.UserName = userCtx.DisplayName
	}

	if r != nil {
		auditLog.RequestID = r.Header.Get("X-Request-ID")
	}

	if entry.Metadata != nil {
		if metaJSON, err := json.Marshal(entry.Metadata); err == nil {
			auditLog.Metadata = string(metaJSON)
		} else {
			auditLog.Metadata = "null"
		}
	} else {
		auditLog.Metadata = "null"
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.logger.Error("failed to write audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entityType", entry.EntityType),
			zap.Error(err))
		return err
	}

	return nil
}

// List retrieves audit logs with pagination and optional filters
func (s *AuditLogService) List(ctx context.Context, filter *repository.AuditLogFilter, page, pageSize int) ([]domain.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, filter, page, pageSize)
}

// ListByEntity retrieves the audit trail for one entity
func (s *AuditLogService) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.auditRepo.ListByEntity(ctx, entityType, entityID, limit)
}

// PurgeOlderThan deletes audit entries past the retention window. Called by
// the scheduled retention job.
func (s *AuditLogService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.auditRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("audit retention purge failed", zap.Error(err))
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("audit retention purge completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

// Stats returns per-action entry counts for a time range
func (s *AuditLogService) Stats(ctx context.Context, start, end time.Time) (map[domain.AuditAction]int64, error) {
	return s.auditRepo.CountByAction(ctx, start, end)
}
