package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/service"
	"go.uber.org/zap"
)

// AccountHandler handles admin account management
type AccountHandler struct {
	accountService *service.AccountService
	logger         *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// List godoc
// @Summary List accounts
// @Description Returns all accounts. Admin only.
// @Tags Accounts
// @Produce json
// @Success 200 {array} domain.AccountDTO
// @Failure 403 {object} domain.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /accounts [get]
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list accounts", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, accounts)
}

// Create godoc
// @Summary Create account
// @Description Creates a new account with the given role. Admin only.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body domain.CreateAccountRequest true "New account"
// @Success 201 {object} domain.AccountDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid request body"
// @Failure 409 {object} domain.ErrorResponse "Username already in use"
// @Security BearerAuth
// @Router /accounts [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	account, err := h.accountService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create account", zap.Error(err), zap.String("username", req.Username))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, account)
}

// Update godoc
// @Summary Update account
// @Description Applies a partial update to an account. Admin only.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body domain.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} domain.AccountDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid account ID or request body"
// @Failure 404 {object} domain.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [put]
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	var req domain.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	account, err := h.accountService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update account", zap.Error(err), zap.String("account_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// ResetPassword godoc
// @Summary Reset account password
// @Description Sets a new password for another account. Admin only.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body domain.ResetPasswordRequest true "New password"
// @Success 204 "Password reset"
// @Failure 400 {object} domain.ErrorResponse "Invalid account ID or request body"
// @Failure 404 {object} domain.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/password [put]
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.accountService.ResetPassword(r.Context(), id, &req); err != nil {
		h.logger.Error("failed to reset password", zap.Error(err), zap.String("account_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
