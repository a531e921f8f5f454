package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/storefront_api/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/request"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/usecase/user"
)

// UserHandler handles admin user-management endpoints
type UserHandler struct {
	service *user.Service
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *user.Service, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  log,
	}
}

// SetRoleRequest represents the request body for a role change
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// List handles GET /api/v1/admin/users
// @Summary List users
// @Tags Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 50)" default(10)
// @Param search query string false "Search in name and email"
// @Success 200 {object} map[string]interface{} "Users with pagination"
// @Failure 403 {object} map[string]string "Admin only"
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := request.GetPaginationParams(r)
	search := r.URL.Query().Get("search")

	users, pagination, err := h.service.List(r.Context(), page, limit, search)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, "users", users, pagination)
}

// SetRole handles PUT /api/v1/admin/users/{id}/role
// @Summary Change a user's role
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param role body SetRoleRequest true "New role"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string "Invalid role"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req SetRoleRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.SetRole(r.Context(), id, req.Role)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/admin/users/{id}
// @Summary Delete a user account
// @Tags Admin
// @Produce json
// @Param id path int true "User ID"
// @Success 204 "User deleted"
// @Failure 400 {object} map[string]string "Cannot delete own account"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetInt64Param(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	caller := middleware.CurrentUser(r.Context())
	if caller.ID == id {
		response.Error(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *UserHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in user handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
