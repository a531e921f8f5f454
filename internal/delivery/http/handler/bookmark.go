package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/storefront_api/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/request"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/usecase/bookmark"
)

// BookmarkHandler handles HTTP requests for bookmarks
type BookmarkHandler struct {
	service *bookmark.Service
	logger  *logger.Logger
}

// NewBookmarkHandler creates a new bookmark handler
func NewBookmarkHandler(service *bookmark.Service, log *logger.Logger) *BookmarkHandler {
	return &BookmarkHandler{
		service: service,
		logger:  log,
	}
}

// Toggle handles POST /api/v1/products/{id}/bookmark
// @Summary Toggle a bookmark
// @Description Bookmark the product, or remove the bookmark when one exists.
// @Tags Bookmarks
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]bool "New bookmark state"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 404 {object} map[string]string "Product not found"
// @Security BearerAuth
// @Router /products/{id}/bookmark [post]
func (h *BookmarkHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	user := middleware.CurrentUser(r.Context())

	bookmarked, err := h.service.Toggle(r.Context(), user.ID, productID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{
		"bookmarked": bookmarked,
	})
}

// List handles GET /api/v1/bookmarks
// @Summary List the caller's bookmarked products
// @Tags Bookmarks
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 50)" default(10)
// @Success 200 {object} map[string]interface{} "Products with pagination"
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /bookmarks [get]
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	page, limit := request.GetPaginationParams(r)

	products, pagination, err := h.service.ListProducts(r.Context(), user.ID, page, limit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, "products", products, pagination)
}

func (h *BookmarkHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	default:
		h.logger.Error("Internal error in bookmark handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
