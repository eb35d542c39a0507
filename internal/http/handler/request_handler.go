package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/repository"
	"github.com/prflow/approval-api/internal/service"
	"go.uber.org/zap"
)

// RequestHandler handles purchase request CRUD and export
type RequestHandler struct {
	requestService *service.RequestService
	exportService  *service.ExportService
	logger         *zap.Logger
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(
	requestService *service.RequestService,
	exportService *service.ExportService,
	logger *zap.Logger,
) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		exportService:  exportService,
		logger:         logger,
	}
}

// Create godoc
// @Summary Create purchase request
// @Description Creates a new purchase request in the pending status. The total amount is computed from the line items.
// @Tags Requests
// @Accept json
// @Produce json
// @Param request body domain.CreateRequestRequest true "New request"
// @Success 201 {object} domain.RequestDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid request body"
// @Security BearerAuth
// @Router /requests [post]
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	request, err := h.requestService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create request", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/requests/"+request.ID.String())
	respondJSON(w, http.StatusCreated, request)
}

// List godoc
// @Summary List purchase requests
// @Description Returns a page of requests, newest first. Regular users only see their own requests.
// @Tags Requests
// @Produce json
// @Param status query string false "Filter by status" Enums(pending, approved, rejected, ordered, completed, cancelled)
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param year query string false "Filter by year (YYYY)"
// @Param from query string false "Created on or after (YYYY-MM-DD)"
// @Param to query string false "Created before (YYYY-MM-DD, exclusive)"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {object} domain.RequestListDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid filter"
// @Security BearerAuth
// @Router /requests [get]
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRequestFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.requestService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list requests", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// GetByID godoc
// @Summary Get purchase request
// @Description Returns a single request with its items and documents.
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.RequestDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Security BearerAuth
// @Router /requests/{id} [get]
func (h *RequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := h.requestService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// UpdateItems godoc
// @Summary Replace request items
// @Description Replaces the line items of a pending request and recomputes the total. Only the owner or an admin may edit, and only while the request is pending.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body domain.UpdateRequestItemsRequest true "New items"
// @Success 200 {object} domain.RequestDTO
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID or body"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Failure 409 {object} domain.ErrorResponse "Request no longer editable"
// @Security BearerAuth
// @Router /requests/{id}/items [put]
func (h *RequestHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var req domain.UpdateRequestItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	request, err := h.requestService.UpdateItems(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update request items", zap.Error(err), zap.String("request_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// Delete godoc
// @Summary Delete purchase request
// @Description Removes a request and its items entirely. Admin only.
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 204 "Request deleted"
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID"
// @Failure 403 {object} domain.ErrorResponse "Forbidden"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Security BearerAuth
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	if err := h.requestService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete request", zap.Error(err), zap.String("request_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Export godoc
// @Summary Export requests as CSV
// @Description Streams requests matching the filter as CSV with one summary row per request and one row per line item. The same visibility rules as listings apply.
// @Tags Requests
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param year query string false "Filter by year (YYYY)"
// @Param from query string false "Created on or after (YYYY-MM-DD)"
// @Param to query string false "Created before (YYYY-MM-DD, exclusive)"
// @Success 200 {string} string "CSV document"
// @Failure 400 {object} domain.ErrorResponse "Invalid filter"
// @Security BearerAuth
// @Router /requests/export [get]
func (h *RequestHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRequestFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename := "purchase_requests_" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.exportService.ExportCSV(r.Context(), filter, w); err != nil {
		// Headers may already be written, log and give up
		h.logger.Error("failed to export requests", zap.Error(err))
	}
}

// parseRequestFilter builds a listing filter from query parameters. The
// month, year and from/to parameters are mutually combinable; month and year
// expand to a created-at range.
func parseRequestFilter(r *http.Request) (repository.RequestFilter, error) {
	var filter repository.RequestFilter
	query := r.URL.Query()

	if status := query.Get("status"); status != "" {
		parsed := domain.RequestStatus(status)
		if !parsed.IsValid() {
			return filter, fmt.Errorf("invalid status: %s", status)
		}
		filter.Status = parsed
	}

	if month := query.Get("month"); month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			return filter, fmt.Errorf("invalid month, expected YYYY-MM: %s", month)
		}
		end := start.AddDate(0, 1, 0)
		filter.CreatedFrom = &start
		filter.CreatedTo = &end
	} else if year := query.Get("year"); year != "" {
		start, err := time.Parse("2006", year)
		if err != nil {
			return filter, fmt.Errorf("invalid year, expected YYYY: %s", year)
		}
		end := start.AddDate(1, 0, 0)
		filter.CreatedFrom = &start
		filter.CreatedTo = &end
	} else {
		if from := query.Get("from"); from != "" {
			start, err := time.Parse("2006-01-02", from)
			if err != nil {
				return filter, fmt.Errorf("invalid from date, expected YYYY-MM-DD: %s", from)
			}
			filter.CreatedFrom = &start
		}
		if to := query.Get("to"); to != "" {
			end, err := time.Parse("2006-01-02", to)
			if err != nil {
				return filter, fmt.Errorf("invalid to date, expected YYYY-MM-DD: %s", to)
			}
			filter.CreatedTo = &end
		}
	}

	if page := query.Get("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return filter, fmt.Errorf("invalid page: %s", page)
		}
		filter.Page = n
	}
	if pageSize := query.Get("pageSize"); pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil || n < 1 {
			return filter, fmt.Errorf("invalid pageSize: %s", pageSize)
		}
		filter.PageSize = n
	}

	return filter, nil
}
