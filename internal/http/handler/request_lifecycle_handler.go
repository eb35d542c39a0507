package handler

// Status transition endpoints for purchase requests. Every transition is a
// POST on the target request; refused transitions and lost races come back
// as 409.

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/service"
	"go.uber.org/zap"
)

// RequestLifecycleHandler handles status transitions of purchase requests
type RequestLifecycleHandler struct {
	lifecycleService *service.RequestLifecycleService
	logger           *zap.Logger
}

// NewRequestLifecycleHandler creates a new RequestLifecycleHandler
func NewRequestLifecycleHandler(lifecycleService *service.RequestLifecycleService, logger *zap.Logger) *RequestLifecycleHandler {
	return &RequestLifecycleHandler{
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

// Approve godoc
// @Summary Approve purchase request
// @Description Moves a pending request to approved. Requires the approver or admin role and an attached quotation. An optional drawn signature is stamped onto the quotation and stored as the signed quotation.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body domain.ApproveRequestRequest false "Optional signature"
// @Success 200 {object} domain.RequestDTO "Approved request"
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID or signature"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Failure 409 {object} domain.ErrorResponse "Transition refused or request changed concurrently"
// @Security BearerAuth
// @Router /requests/{id}/approve [post]
func (h *RequestLifecycleHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var req domain.ApproveRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Empty body is allowed
		req = domain.ApproveRequestRequest{}
	}

	request, err := h.lifecycleService.Approve(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to approve request", zap.Error(err), zap.String("request_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// Reject godoc
// @Summary Reject purchase request
// @Description Moves a pending request to rejected. Requires the approver or admin role and a reason.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body domain.RejectRequestRequest true "Rejection reason"
// @Success 200 {object} domain.RequestDTO "Rejected request"
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID or body"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Failure 409 {object} domain.ErrorResponse "Transition refused or request changed concurrently"
// @Security BearerAuth
// @Router /requests/{id}/reject [post]
func (h *RequestLifecycleHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var req domain.RejectRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	request, err := h.lifecycleService.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.logger.Error("failed to reject request", zap.Error(err), zap.String("request_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// Cancel godoc
// @Summary Cancel purchase request
// @Description Moves a pending request to cancelled. The owner may cancel their own request; admins may cancel any.
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.RequestDTO "Cancelled request"
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Failure 409 {object} domain.ErrorResponse "Transition refused or request changed concurrently"
// @Security BearerAuth
// @Router /requests/{id}/cancel [post]
func (h *RequestLifecycleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := h.lifecycleService.Cancel(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to cancel request", zap.Error(err), zap.String("request_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// MarkOrdered godoc
// @Summary Mark purchase request as ordered
// @Description Moves an approved request to ordered, indicating the purchase has been placed. The owner may mark their own request; admins may mark any.
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.RequestDTO "Ordered request"
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Failure 409 {object} domain.ErrorResponse "Transition refused or request changed concurrently"
// @Security BearerAuth
// @Router /requests/{id}/order [post]
func (h *RequestLifecycleHandler) MarkOrdered(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := h.lifecycleService.MarkOrdered(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to mark request ordered", zap.Error(err), zap.String("request_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// Complete godoc
// @Summary Complete purchase request
// @Description Moves an ordered request to completed. The signed quotation must be attached first.
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.RequestDTO "Completed request"
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Failure 409 {object} domain.ErrorResponse "Transition refused or request changed concurrently"
// @Security BearerAuth
// @Router /requests/{id}/complete [post]
func (h *RequestLifecycleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := h.lifecycleService.Complete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to complete request", zap.Error(err), zap.String("request_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}
