package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/repository"
	"github.com/medisupply/devis-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// AuditLogDTO represents an audit log entry for API response
type AuditLogDTO struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId,omitempty"`
	UserName    string                 `json:"userName,omitempty"`
	Action      string                 `json:"action"`
	EntityType  string                 `json:"entityType"`
	EntityID    string                 `json:"entityId,omitempty"`
	EntityName  string                 `json:"entityName,omitempty"`
	RequestID   string                 `json:"requestId,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	PerformedAt string                 `json:"performedAt"`
}

// AuditStatsResponse represents audit log statistics
type AuditStatsResponse struct {
	ActionCounts map[string]int64 `json:"actionCounts"`
	StartTime    string           `json:"startTime"`
	EndTime      string           `json:"endTime"`
}

// List godoc
// @Summary List audit logs
// @Description Returns a paginated list of audit log entries with optional filters
// @Tags Audit
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param userId query string false "Filter by user ID"
// @Param action query string false "Filter by action type" Enums(create, update, delete, export)
// @Param entityType query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity ID"
// @Param startTime query string false "Filter by start time (RFC3339)"
// @Param endTime query string false "Filter by end time (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parseIntQuery(r, "page", 1)
	pageSize := parseIntQuery(r, "pageSize", 20)
	if pageSize > 100 {
		pageSize = 100
	}

	filter := repository.AuditLogFilter{
		UserID:     r.URL.Query().Get("userId"),
		EntityType: r.URL.Query().Get("entityType"),
	}

	if actionStr := r.URL.Query().Get("action"); actionStr != "" {
		action := domain.AuditAction(actionStr)
		filter.Action = &action
	}
	if entityIDStr := r.URL.Query().Get("entityId"); entityIDStr != "" {
		if entityID, err := uuid.Parse(entityIDStr); err == nil {
			filter.EntityID = &entityID
		}
	}
	if startStr := r.URL.Query().Get("startTime"); startStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startStr); err == nil {
			filter.StartTime = &startTime
		}
	}
	if endStr := r.URL.Query().Get("endTime"); endStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endStr); err == nil {
			filter.EndTime = &endTime
		}
	}

	logs, total, err := h.auditService.List(r.Context(), &filter, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list audit logs", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve audit logs")
		return
	}

	dtos := make([]AuditLogDTO, len(logs))
	for i, log := range logs {
		dtos[i] = h.toDTO(log)
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Items:      dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// GetByEntity godoc
// @Summary Get audit logs for an entity
// @Description Returns audit logs for a specific entity, most recent first
// @Tags Audit
// @Produce json
// @Param entityType path string true "Entity type (e.g., Quote, Client)"
// @Param entityId path string true "Entity ID"
// @Param limit query int false "Maximum number of entries (default: 50)"
// @Success 200 {array} AuditLogDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit/entity/{entityType}/{entityId} [get]
func (h *AuditHandler) GetByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityIDStr := chi.URLParam(r, "entityId")

	entityID, err := uuid.Parse(entityIDStr)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity ID: must be a valid UUID")
		return
	}

	limit := parseIntQuery(r, "limit", 50)

	logs, err := h.auditService.ListByEntity(r.Context(), entityType, entityID, limit)
	if err != nil {
		h.logger.Error("failed to get entity audit logs",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityIDStr),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve audit logs")
		return
	}

	dtos := make([]AuditLogDTO, len(logs))
	for i, log := range logs {
		dtos[i] = h.toDTO(log)
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GetStats godoc
// @Summary Get audit log statistics
// @Description Returns per-action entry counts for a time range
// @Tags Audit
// @Produce json
// @Param startTime query string true "Start time (RFC3339)"
// @Param endTime query string true "End time (RFC3339)"
// @Success 200 {object} AuditStatsResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit/stats [get]
func (h *AuditHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("startTime")
	endStr := r.URL.Query().Get("endTime")

	if startStr == "" || endStr == "" {
		respondWithError(w, http.StatusBadRequest, "startTime and endTime are required")
		return
	}

	startTime, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid startTime format: must be RFC3339")
		return
	}

	endTime, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid endTime format: must be RFC3339")
		return
	}

	stats, err := h.auditService.Stats(r.Context(), startTime, endTime)
	if err != nil {
		h.logger.Error("failed to get audit stats", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve statistics")
		return
	}

	actionCounts := make(map[string]int64)
	for action, count := range stats {
		actionCounts[string(action)] = count
	}

	respondJSON(w, http.StatusOK, AuditStatsResponse{
		ActionCounts: actionCounts,
		StartTime:    startTime.Format(time.RFC3339),
		EndTime:      endTime.Format(time.RFC3339),
	})
}

// toDTO converts an audit log to a DTO
func (h *AuditHandler) toDTO(log domain.AuditLog) AuditLogDTO {
	dto := AuditLogDTO{
		ID:          log.ID.String(),
		UserID:      log.UserID,
		UserName:    log.UserName,
		Action:      string(log.Action),
		EntityType:  log.EntityType,
		EntityName:  log.EntityName,
		RequestID:   log.RequestID,
		PerformedAt: log.PerformedAt.Format(time.RFC3339),
	}

	if log.EntityID != nil {
		dto.EntityID = log.EntityID.String()
	}

	if log.Metadata != "" && log.Metadata != "null" {
		var metadata map[string]interface{}
		if err := json.Unmarshal([]byte(log.Metadata), &metadata); err == nil {
			dto.Metadata = metadata
		}
	}

	return dto
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}
