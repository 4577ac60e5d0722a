package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService *service.ClientService
	logger        *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// @Summary List clients
// @Tags Clients
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param clientType query string false "Filter by type" Enums(pharmacy, clinic, hospital, wholesaler, other)
// @Param status query string false "Filter by status" Enums(active, inactive)
// @Param search query string false "Match against name, SIRET or email"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
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

	var clientType *domain.ClientType
	if t := r.URL.Query().Get("clientType"); t != "" {
		ct := domain.ClientType(t)
		clientType = &ct
	}
	var status *domain.ClientStatus
	if s := r.URL.Query().Get("status"); s != "" {
		cs := domain.ClientStatus(s)
		status = &cs
	}
	search := r.URL.Query().Get("search")

	clients, total, err := h.clientService.List(r.Context(), page, pageSize, clientType, status, search)
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list clients")
		return
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Items:      clients,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// @Summary Create client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.CreateClientRequest true "Client data"
// @Success 201 {object} domain.ClientDTO
// @Failure 400 {object} domain.ErrorResponse "Validation error"
// @Failure 409 {object} domain.ErrorResponse "Duplicate SIRET"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create client", zap.Error(err))
		h.handleClientError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/clients/"+client.ID.String())
	respondJSON(w, http.StatusCreated, client)
}

// @Summary Get client
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} domain.ClientDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID: must be a valid UUID")
		return
	}

	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get client", zap.Error(err), zap.String("client_id", id.String()))
		h.handleClientError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body domain.UpdateClientRequest true "Client data"
// @Success 200 {object} domain.ClientDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID: must be a valid UUID")
		return
	}

	var req domain.UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update client", zap.Error(err), zap.String("client_id", id.String()))
		h.handleClientError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// @Summary Delete client
// @Description Deletes a client. Refused while quotes still reference the client.
// @Tags Clients
// @Param id path string true "Client ID"
// @Success 204 "No Content"
// @Failure 409 {object} domain.ErrorResponse "Client has quotes"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid client ID: must be a valid UUID")
		return
	}

	if err := h.clientService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete client", zap.Error(err), zap.String("client_id", id.String()))
		h.handleClientError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// handleClientError maps service errors to HTTP status codes
func (h *ClientHandler) handleClientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		respondWithError(w, http.StatusNotFound, "Client not found")
	case errors.Is(err, service.ErrDuplicateSiret):
		respondWithError(w, http.StatusConflict, "A client with this SIRET number already exists")
	case errors.Is(err, service.ErrClientHasQuotes):
		respondWithError(w, http.StatusConflict, "Client has quotes and cannot be deleted")
	default:
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
