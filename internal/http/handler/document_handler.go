package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/service"
	"go.uber.org/zap"
)

// DocumentHandler handles uploads and downloads of the documents attached to
// purchase requests
type DocumentHandler struct {
	documentService *service.DocumentService
	maxUploadMB     int64
	logger          *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *service.DocumentService, maxUploadMB int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadMB:     maxUploadMB,
		logger:          logger,
	}
}

// Upload godoc
// @Summary Attach document to request
// @Description Uploads a document into the given slot. Each slot can only be filled once; the first successful upload wins.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Request ID"
// @Param slot path string true "Document slot" Enums(quotation, signed_quotation)
// @Param file formData file true "Document to attach"
// @Success 201 {object} domain.RequestDTO "Request with the document attached"
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID, slot or file"
// @Failure 404 {object} domain.ErrorResponse "Request not found"
// @Failure 409 {object} domain.ErrorResponse "Slot already filled"
// @Failure 413 {object} domain.ErrorResponse "File too large"
// @Security BearerAuth
// @Router /requests/{id}/documents/{slot} [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	slot := domain.DocumentSlot(chi.URLParam(r, "slot"))
	if !slot.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid document slot: must be quotation or signed_quotation")
		return
	}

	// Limit request size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	request, err := h.documentService.Attach(r.Context(), id, slot, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("failed to attach document",
			zap.Error(err),
			zap.String("request_id", id.String()),
			zap.String("slot", string(slot)),
		)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, request)
}

// Download godoc
// @Summary Download request document
// @Description Streams the document in the given slot.
// @Tags Documents
// @Produce application/octet-stream
// @Param id path string true "Request ID"
// @Param slot path string true "Document slot" Enums(quotation, signed_quotation)
// @Success 200
// @Failure 400 {object} domain.ErrorResponse "Invalid request ID or slot"
// @Failure 404 {object} domain.ErrorResponse "Request or document not found"
// @Security BearerAuth
// @Router /requests/{id}/documents/{slot} [get]
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	slot := domain.DocumentSlot(chi.URLParam(r, "slot"))
	if !slot.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid document slot: must be quotation or signed_quotation")
		return
	}

	reader, filename, err := h.documentService.Download(r.Context(), id, slot)
	if err != nil {
		h.logger.Error("failed to download document",
			zap.Error(err),
			zap.String("request_id", id.String()),
			zap.String("slot", string(slot)),
		)
		respondServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Type", "application/octet-stream")

	_, _ = io.Copy(w, reader)
}
