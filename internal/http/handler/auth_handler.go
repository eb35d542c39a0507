package handler

import (
	"encoding/json"
	"net/http"

	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles login and the caller's own account
type AuthHandler struct {
	accountService *service.AccountService
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accountService *service.AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Verifies username and password and returns a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.ErrorResponse "Invalid request body"
// @Failure 401 {object} domain.ErrorResponse "Invalid credentials"
// @Failure 403 {object} domain.ErrorResponse "Account disabled"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	response, err := h.accountService.Login(r.Context(), &req)
	if err != nil {
		h.logger.Info("login refused", zap.String("username", req.Username), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// Me godoc
// @Summary Get current account
// @Description Returns the account of the authenticated caller.
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.AccountDTO
// @Failure 401 {object} domain.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.Me(r.Context())
	if err != nil {
		h.logger.Error("failed to get current account", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// UpdatePassword godoc
// @Summary Change own password
// @Description Changes the caller's password after verifying the current one.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.UpdatePasswordRequest true "Password change"
// @Success 204 "Password changed"
// @Failure 400 {object} domain.ErrorResponse "Invalid request body"
// @Failure 401 {object} domain.ErrorResponse "Current password wrong"
// @Security BearerAuth
// @Router /auth/password [put]
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.accountService.UpdatePassword(r.Context(), &req); err != nil {
		h.logger.Error("failed to update password", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
