package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/pricing"
	"github.com/medisupply/devis-api/internal/service"
	"go.uber.org/zap"
)

type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// @Summary List products
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param category query string false "Filter by category"
// @Param activeOnly query bool false "Only active products" default(false)
// @Param search query string false "Match against code or designation"
// @Param sortBy query string false "Sort field" Enums(designation, code, unitPrice)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(asc)
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
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

	category := r.URL.Query().Get("category")
	activeOnly := r.URL.Query().Get("activeOnly") == "true"
	search := r.URL.Query().Get("search")
	sortKey := pricing.ProductSortKey(r.URL.Query().Get("sortBy"))
	sortOrder := pricing.ParseSortOrder(r.URL.Query().Get("sortOrder"))

	products, total, err := h.productService.List(r.Context(), page, pageSize, category, activeOnly, search, sortKey, sortOrder)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// @Summary Search products
// @Description Quick lookup for the quote editor; matches code and designation
// @Tags Products
// @Produce json
// @Param q query string true "Search term"
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {array} domain.ProductDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/search [get]
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.productService.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search products", zap.Error(err), zap.String("query", query))
		respondWithError(w, http.StatusInternalServerError, "Failed to search products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// @Summary List product categories
// @Tags Products
// @Produce json
// @Success 200 {array} string
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/categories [get]
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	respondJSON(w, http.StatusOK, categories)
}

// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Param request body domain.CreateProductRequest true "Product data"
// @Success 201 {object} domain.ProductDTO
// @Failure 409 {object} domain.ErrorResponse "Duplicate product code"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	product, err := h.productService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		h.handleProductError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/products/"+product.ID.String())
	respondJSON(w, http.StatusCreated, product)
}

// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.ProductDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID: must be a valid UUID")
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", zap.Error(err), zap.String("product_id", id.String()))
		h.handleProductError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// @Summary Update product
// @Description Updates catalog fields. Quote lines keep their snapshotted
// @Description values; catalog changes only affect lines added afterwards.
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body domain.UpdateProductRequest true "Product data"
// @Success 200 {object} domain.ProductDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID: must be a valid UUID")
		return
	}

	var req domain.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update product", zap.Error(err), zap.String("product_id", id.String()))
		h.handleProductError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// @Summary Delete product
// @Tags Products
// @Param id path string true "Product ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID: must be a valid UUID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete product", zap.Error(err), zap.String("product_id", id.String()))
		h.handleProductError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// handleProductError maps service errors to HTTP status codes
func (h *ProductHandler) handleProductError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondWithError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, service.ErrDuplicateProductCode):
		respondWithError(w, http.StatusConflict, "A product with this code already exists")
	case errors.Is(err, service.ErrNegativePrice):
		respondWithError(w, http.StatusBadRequest, "Prices and costs must be zero or positive")
	case errors.Is(err, service.ErrInvalidTaxRate):
		respondWithError(w, http.StatusBadRequest, "Tax rate must be zero or positive")
	default:
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
