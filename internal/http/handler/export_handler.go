package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/medisupply/devis-api/internal/service"
	"go.uber.org/zap"
)

type ExportHandler struct {
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// @Summary Get export snapshot
// @Description Returns the quote as a read-only export view: totals plus lines
// @Description in the requested sort order. Nothing is persisted.
// @Tags Exports
// @Produce json
// @Param id path string true "Quote ID"
// @Param sortBy query string false "Line sort field" Enums(designation, quantity, unitPrice, marginPercent, totalWithTax)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(asc)
// @Success 200 {object} domain.ExportQuoteDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/export [get]
func (h *ExportHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	sortKey, sortOrder, ok := parseExportSort(w, r)
	if !ok {
		return
	}

	snapshot, err := h.exportService.BuildSnapshot(r.Context(), id, sortKey, sortOrder)
	if err != nil {
		h.logger.Error("failed to build export snapshot", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleExportError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// @Summary Export quote as CSV
// @Description Generates a CSV rendition of the quote, stores it and records
// @Description an export snapshot. Returns the snapshot metadata; use the
// @Description download endpoint to fetch the file.
// @Tags Exports
// @Produce json
// @Param id path string true "Quote ID"
// @Param sortBy query string false "Line sort field" Enums(designation, quantity, unitPrice, marginPercent, totalWithTax)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(asc)
// @Success 201 {object} domain.ExportSnapshotDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/exports [post]
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	sortKey, sortOrder, ok := parseExportSort(w, r)
	if !ok {
		return
	}

	snapshot, err := h.exportService.ExportCSV(r.Context(), id, sortKey, sortOrder)
	if err != nil {
		h.logger.Error("failed to export quote", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleExportError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, snapshot)
}

// @Summary List quote exports
// @Tags Exports
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {array} domain.ExportSnapshotDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/exports [get]
func (h *ExportHandler) ListByQuote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	snapshots, err := h.exportService.ListByQuote(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list exports", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleExportError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshots)
}

// @Summary Download an export
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Export snapshot ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/{id}/download [get]
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid export ID: must be a valid UUID")
		return
	}

	reader, snapshot, err := h.exportService.Download(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to download export", zap.Error(err), zap.String("export_id", id.String()))
		h.handleExportError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=devis_"+snapshot.QuoteID.String()+".csv")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("export download interrupted", zap.Error(err), zap.String("export_id", id.String()))
	}
}

// parseExportSort reads the optional sort parameters, writing an error
// response and returning ok=false when sortBy is unknown.
func parseExportSort(w http.ResponseWriter, r *http.Request) (pricing.SortKey, pricing.SortOrder, bool) {
	sortKey := pricing.SortByDesignation
	if sb := r.URL.Query().Get("sortBy"); sb != "" {
		sortKey = pricing.SortKey(sb)
		if !sortKey.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid sortBy: must be one of designation, quantity, unitPrice, marginPercent, totalWithTax")
			return "", "", false
		}
	}
	return sortKey, pricing.ParseSortOrder(r.URL.Query().Get("sortOrder")), true
}

// handleExportError maps service errors to HTTP status codes
func (h *ExportHandler) handleExportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQuoteNotFound):
		respondWithError(w, http.StatusNotFound, "Quote not found")
	case errors.Is(err, service.ErrExportNotFound):
		respondWithError(w, http.StatusNotFound, "Export not found")
	default:
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
