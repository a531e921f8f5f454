package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/storefront_api/internal/delivery/http/request"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/usecase/category"
)

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	service *category.Service
	logger  *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service *category.Service, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  log,
	}
}

// CategoryRequest represents the request body for creating or updating a category
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// List handles GET /api/v1/categories
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} map[string]interface{} "Categories"
// @Router /categories [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

// GetByID handles GET /api/v1/categories/{id}
// @Summary Get a category
// @Tags Categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} domain.Category
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	c, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, c)
}

// Create handles POST /api/v1/categories
// @Summary Create a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param category body CategoryRequest true "Category details"
// @Success 201 {object} domain.Category
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Category already exists"
// @Security BearerAuth
// @Router /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := &domain.Category{Name: req.Name, Description: req.Description}
	if err := h.service.Create(r.Context(), c); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/categories/{id}
// @Summary Update a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param category body CategoryRequest true "Category details"
// @Success 200 {object} domain.Category
// @Failure 404 {object} map[string]string "Category not found"
// @Security BearerAuth
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req CategoryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := &domain.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.service.Update(r.Context(), c); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/categories/{id}
// @Summary Delete a category
// @Description Delete a category. Fails with 409 while products still reference it.
// @Tags Categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 204 "Category deleted"
// @Failure 404 {object} map[string]string "Category not found"
// @Failure 409 {object} map[string]string "Category still has products"
// @Security BearerAuth
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *CategoryHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Category already exists")
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, "Category still has products")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in category handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
