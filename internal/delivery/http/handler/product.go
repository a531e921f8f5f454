package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/storefront_api/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/request"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/usecase/product"
)

// ProductHandler handles HTTP requests for the catalog
type ProductHandler struct {
	service *product.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// ProductImageRequest is one image entry in a product payload
type ProductImageRequest struct {
	ImagePath string `json:"image_path" validate:"required"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductSpecRequest is one specification entry in a product payload
type ProductSpecRequest struct {
	SpecName     string `json:"spec_name" validate:"required"`
	SpecValue    string `json:"spec_value" validate:"required"`
	DisplayOrder int    `json:"display_order"`
}

// ProductRequest represents the request body for creating or updating a product
type ProductRequest struct {
	CategoryID     *int64                `json:"category_id"`
	Name           string                `json:"name" validate:"required"`
	Description    *string               `json:"description"`
	Price          float64               `json:"price" validate:"gte=0"`
	Images         []ProductImageRequest `json:"images"`
	Specifications []ProductSpecRequest  `json:"specifications"`
}

func (req *ProductRequest) toDomain() *domain.Product {
	p := &domain.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	for _, img := range req.Images {
		p.Images = append(p.Images, domain.ProductImage{
			ImagePath: img.ImagePath,
			IsPrimary: img.IsPrimary,
		})
	}
	for _, spec := range req.Specifications {
		p.Specifications = append(p.Specifications, domain.ProductSpec{
			SpecName:     spec.SpecName,
			SpecValue:    spec.SpecValue,
			DisplayOrder: spec.DisplayOrder,
		})
	}
	return p
}

// List handles GET /api/v1/products
// @Summary List products
// @Description Get a filtered, paginated catalog page
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 50)" default(10)
// @Param category_id query int false "Filter by category"
// @Param search query string false "Search in name and description"
// @Param sort query string false "Sort key: price_asc, price_desc, rating_desc, newest"
// @Success 200 {object} map[string]interface{} "Products with pagination"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := request.GetPaginationParams(r)

	filter := domain.ProductFilter{
		Search: r.URL.Query().Get("search"),
		Sort:   request.GetSortParam(r),
	}
	if categoryID := request.GetIntQuery(r, "category_id", 0); categoryID > 0 {
		id := int64(categoryID)
		filter.CategoryID = &id
	}

	products, pagination, err := h.service.List(r.Context(), page, limit, filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, "products", products, pagination)
}

// GetByID handles GET /api/v1/products/{id}
// @Summary Get a product
// @Description Get a product with images and specifications. Authenticated callers also see their bookmark and review flags.
// @Tags Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string "Product not found"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id, middleware.CallerID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// GetBySlug handles GET /api/v1/products/slug/{slug}
// @Summary Get a product by slug
// @Tags Products
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string "Product not found"
// @Router /products/slug/{slug} [get]
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		response.Error(w, http.StatusBadRequest, "Missing slug")
		return
	}

	p, err := h.service.GetBySlug(r.Context(), slug, middleware.CallerID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// Create handles POST /api/v1/products
// @Summary Create a product
// @Tags Products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Product details"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Admin only"
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := req.toDomain()
	if err := h.service.Create(r.Context(), p); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/v1/products/{id}
// @Summary Update a product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body ProductRequest true "Product details"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 404 {object} map[string]string "Product not found"
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req ProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := req.toDomain()
	p.ID = id
	if err := h.service.Update(r.Context(), p); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/products/{id}
// @Summary Delete a product
// @Tags Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 204 "Product deleted"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 404 {object} map[string]string "Product not found"
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *ProductHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Product already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in product handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
