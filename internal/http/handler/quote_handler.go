package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/medisupply/devis-api/internal/repository"
	"github.com/medisupply/devis-api/internal/service"
	"go.uber.org/zap"
)

type QuoteHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

func NewQuoteHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// @Summary List quotes
// @Tags Quotes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param clientId query string false "Filter by client ID"
// @Param status query string false "Filter by status" Enums(draft, sent, accepted, rejected, expired)
// @Param createdBy query string false "Filter by creator user ID"
// @Param from query string false "Created on or after (RFC3339)"
// @Param to query string false "Created before (RFC3339)"
// @Param search query string false "Match against quote number or client name"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	var filter repository.QuoteFilter
	if cid := r.URL.Query().Get("clientId"); cid != "" {
		if id, err := uuid.Parse(cid); err == nil {
			filter.ClientID = &id
		}
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.QuoteStatus(s)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = &status
	}
	filter.CreatedBy = r.URL.Query().Get("createdBy")
	filter.Search = r.URL.Query().Get("search")
	if fs := r.URL.Query().Get("from"); fs != "" {
		if t, err := time.Parse(time.RFC3339, fs); err == nil {
			filter.From = &t
		}
	}
	if ts := r.URL.Query().Get("to"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			filter.To = &t
		}
	}

	quotes, total, err := h.quoteService.List(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list quotes", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list quotes")
		return
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Items:      quotes,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// @Summary Create quote
// @Description Creates a new quote in draft status. A quote number is assigned
// @Description from the monthly sequence and catalog fields are snapshotted onto each line.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body domain.CreateQuoteRequest true "Quote data"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse "Validation error"
// @Failure 404 {object} domain.ErrorResponse "Client or product not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create quote", zap.Error(err))
		h.handleQuoteError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, quote)
}

// @Summary Get quote
// @Description Returns the quote with all lines and recomputed amounts. The
// @Description lines can be re-ordered with sortBy/sortOrder without touching stored positions.
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Param sortBy query string false "Line sort field" Enums(designation, quantity, unitPrice, marginPercent, totalWithTax)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(asc)
// @Success 200 {object} domain.QuoteDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	sortBy := r.URL.Query().Get("sortBy")

	var quote *domain.QuoteDTO
	if sortBy != "" {
		key := pricing.SortKey(sortBy)
		if !key.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid sortBy: must be one of designation, quantity, unitPrice, marginPercent, totalWithTax")
			return
		}
		order := pricing.ParseSortOrder(r.URL.Query().Get("sortOrder"))
		quote, err = h.quoteService.GetByIDSorted(r.Context(), id, key, order)
	} else {
		quote, err = h.quoteService.GetByID(r.Context(), id)
	}
	if err != nil {
		h.logger.Error("failed to get quote", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleQuoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// @Summary Update quote
// @Description Replaces the quote's notes and line collection. Only quotes
// @Description whose effective status is draft can be edited, and the request
// @Description version must match the stored version.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.UpdateQuoteRequest true "Quote data"
// @Success 200 {object} domain.QuoteDTO
// @Failure 409 {object} domain.ErrorResponse "Version conflict"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	var req domain.UpdateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update quote", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleQuoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// @Summary Delete quote
// @Tags Quotes
// @Param id path string true "Quote ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	if err := h.quoteService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete quote", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleQuoteError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// @Summary Duplicate quote
// @Description Creates a new draft quote copying the source quote's lines.
// @Description The copy gets a fresh number, a fresh validity window and version 1.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Source quote ID"
// @Param request body domain.DuplicateQuoteRequest false "Override fields"
// @Success 201 {object} domain.QuoteDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/duplicate [post]
func (h *QuoteHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	var req domain.DuplicateQuoteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return
		}
	}

	quote, err := h.quoteService.Duplicate(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to duplicate quote", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleQuoteError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, quote)
}

// @Summary Change quote status
// @Description Applies a status transition validated against the quote's
// @Description effective status (a sent quote past its validity date counts as
// @Description expired). Re-sending resets the validity window.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.TransitionQuoteRequest true "Target status"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse "Transition not allowed"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/transition [post]
func (h *QuoteHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	var req domain.TransitionQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.RequestTransition(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to transition quote",
			zap.Error(err),
			zap.String("quote_id", id.String()),
			zap.String("target", string(req.Target)))
		h.handleQuoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// allowedTransitionsResponse lists the transitions currently available
type allowedTransitionsResponse struct {
	Status  domain.QuoteStatus   `json:"status"`
	Allowed []domain.QuoteStatus `json:"allowed"`
}

// @Summary List allowed transitions
// @Description Returns the quote's effective status and the statuses it can move to
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} allowedTransitionsResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/transitions [get]
func (h *QuoteHandler) AllowedTransitions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	status, allowed, err := h.quoteService.AllowedTransitions(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get allowed transitions", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleQuoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allowedTransitionsResponse{Status: status, Allowed: allowed})
}

// @Summary Get status history
// @Description Returns the quote's status transitions, most recent first
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {array} domain.QuoteStatusHistoryDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/history [get]
func (h *QuoteHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID: must be a valid UUID")
		return
	}

	history, err := h.quoteService.GetStatusHistory(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get quote history", zap.Error(err), zap.String("quote_id", id.String()))
		h.handleQuoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// handleQuoteError maps service errors to HTTP status codes
func (h *QuoteHandler) handleQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQuoteNotFound):
		respondWithError(w, http.StatusNotFound, "Quote not found")
	case errors.Is(err, service.ErrClientNotFound):
		respondWithError(w, http.StatusBadRequest, "Client not found")
	case errors.Is(err, service.ErrProductNotFound):
		respondWithError(w, http.StatusBadRequest, "Product not found")
	case errors.Is(err, service.ErrQuoteVersionConflict):
		respondWithError(w, http.StatusConflict, "Quote was modified by someone else; reload and retry")
	case errors.Is(err, service.ErrQuoteNotEditable):
		respondWithError(w, http.StatusBadRequest, "Only draft quotes can be edited")
	case errors.Is(err, service.ErrInvalidTransition):
		respondWithError(w, http.StatusBadRequest, "Status transition not allowed from the quote's current status")
	case errors.Is(err, service.ErrInvalidQuantity):
		respondWithError(w, http.StatusBadRequest, "Line quantity must be a positive integer")
	case errors.Is(err, service.ErrInvalidDiscount):
		respondWithError(w, http.StatusBadRequest, "Discount must be between 0 and 100 percent")
	case errors.Is(err, service.ErrInvalidTaxRate):
		respondWithError(w, http.StatusBadRequest, "Tax rate must be zero or positive")
	case errors.Is(err, service.ErrNegativePrice):
		respondWithError(w, http.StatusBadRequest, "Prices and costs must be zero or positive")
	default:
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// totalPages computes the page count for a paginated response
func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
