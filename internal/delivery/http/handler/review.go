package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/storefront_api/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/request"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// ReviewRequest represents the request body for creating or updating a review
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content" validate:"required,min=1"`
}

// HelpfulRequest represents the request body for a helpful vote
type HelpfulRequest struct {
	IsHelpful bool `json:"isHelpful"`
}

// ListByProduct handles GET /api/v1/products/{id}/reviews
// @Summary List reviews for a product
// @Description Get a paginated list of reviews for a product. Authenticated callers see their own helpful votes.
// @Tags Reviews
// @Produce json
// @Param id path int true "Product ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 50)" default(10)
// @Param sort query string false "Sort key: date_desc, rating_desc, helpful_desc" default(date_desc)
// @Success 200 {object} map[string]interface{} "Reviews with pagination"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	page, limit := request.GetPaginationParams(r)
	sort := request.GetSortParam(r)

	reviews, pagination, err := h.service.ListByProduct(r.Context(), productID, page, limit, sort, middleware.CallerID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, "reviews", reviews, pagination)
}

// ListMine handles GET /api/v1/reviews/me
// @Summary List the caller's reviews
// @Tags Reviews
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 50)" default(10)
// @Success 200 {object} map[string]interface{} "Reviews with pagination"
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /reviews/me [get]
func (h *ReviewHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	page, limit := request.GetPaginationParams(r)

	reviews, pagination, err := h.service.ListByUser(r.Context(), user.ID, page, limit, request.GetSortParam(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, "reviews", reviews, pagination)
}

// Create handles POST /api/v1/products/{id}/reviews
// @Summary Create a review
// @Description Create a review for a product. One review per user per product; the product's average rating updates in the same transaction.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param review body ReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review created"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 409 {object} map[string]string "Review already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /products/{id}/reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req ReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.CurrentUser(r.Context())
	rev := &domain.Review{
		ProductID: productID,
		Rating:    req.Rating,
		Content:   req.Content,
	}

	if err := h.service.Create(r.Context(), user.ID, rev); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"id":      rev.ID,
		"rating":  rev.Rating,
		"content": rev.Content,
		"date":    rev.CreatedAt,
		"message": "Review created",
	})
}

// Update handles PUT /api/v1/reviews/{id}
// @Summary Update a review
// @Description Update a review's rating and content. Author only; the product's average rating updates in the same transaction.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param review body ReviewRequest true "Updated review"
// @Success 200 {object} map[string]interface{} "Review updated"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Not the review owner"
// @Failure 404 {object} map[string]string "Review not found"
// @Security BearerAuth
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req ReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.CurrentUser(r.Context())

	rev, err := h.service.Update(r.Context(), user, id, req.Rating, req.Content)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"id":      rev.ID,
		"message": "Review updated",
	})
}

// Delete handles DELETE /api/v1/reviews/{id}
// @Summary Delete a review
// @Description Delete a review. Owner or admin only; the product's average rating updates in the same transaction.
// @Tags Reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} map[string]string "Review deleted"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Not the review owner"
// @Failure 404 {object} map[string]string "Review not found"
// @Security BearerAuth
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	user := middleware.CurrentUser(r.Context())

	if err := h.service.Delete(r.Context(), user, id); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "Review deleted",
	})
}

// MarkHelpful handles POST /api/v1/reviews/{id}/helpful
// @Summary Vote on a review's helpfulness
// @Description Record or flip the caller's helpful vote. Re-submitting the same flag is a no-op.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param vote body HelpfulRequest true "Helpful flag"
// @Success 200 {object} map[string]interface{} "Updated helpful count"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 404 {object} map[string]string "Review not found"
// @Security BearerAuth
// @Router /reviews/{id}/helpful [post]
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req HelpfulRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.CurrentUser(r.Context())

	count, err := h.service.MarkHelpful(r.Context(), id, user.ID, req.IsHelpful)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"id":           id,
		"helpfulCount": count,
		"isHelpful":    req.IsHelpful,
	})
}

func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Review or product not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "You have already reviewed this product")
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Operation not permitted")
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, "Vote conflict, please retry")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in review handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
