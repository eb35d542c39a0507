package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/mapper"
	"github.com/prflow/approval-api/internal/repository"
	"github.com/prflow/approval-api/internal/storage"
	"go.uber.org/zap"
)

// DocumentService attaches and serves the documents backing a request's
// lifecycle gates. Each slot is fill-once: the first successful upload wins
// and later uploads are refused.
type DocumentService struct {
	requestRepo *repository.RequestRepository
	storage     storage.Storage
	logger      *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(requestRepo *repository.RequestRepository, store storage.Storage, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		requestRepo: requestRepo,
		storage:     store,
		logger:      logger,
	}
}

// Attach uploads a document into a slot. The slot is claimed with a
// conditional update, so when two uploads race only one of them lands; the
// loser's stored file is removed again.
func (s *DocumentService) Attach(ctx context.Context, id uuid.UUID, slot domain.DocumentSlot, filename, contentType string, data io.Reader) (*domain.RequestDTO, error) {
	if !slot.IsValid() {
		return nil, fmt.Errorf("%w: unknown document slot %q", ErrInvalidInput, slot)
	}

	request, _, err := visibleRequest(ctx, s.requestRepo, id)
	if err != nil {
		return nil, err
	}

	if request.Status.IsTerminal() {
		return nil, ErrRequestNotEditable
	}
	if request.HasDocument(slot) {
		return nil, ErrSlotLocked
	}

	prefix := "requests/" + request.ID.String()
	storagePath, size, err := s.storage.Upload(ctx, prefix, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	filled, err := s.requestRepo.FillDocumentSlot(ctx, id, slot, storagePath, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to attach document: %w", err)
	}
	if !filled {
		if cleanupErr := s.storage.Delete(ctx, storagePath); cleanupErr != nil {
			s.logger.Warn("failed to clean up orphaned document",
				zap.String("storage_path", storagePath),
				zap.Error(cleanupErr),
			)
		}
		return nil, ErrSlotLocked
	}

	s.logger.Info("document attached",
		zap.String("request_id", id.String()),
		zap.String("slot", string(slot)),
		zap.String("filename", filename),
		zap.Int64("size", size),
	)

	updated, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request: %w", err)
	}

	dto := mapper.ToRequestDTO(updated)
	return &dto, nil
}

// Download opens the document in a slot for streaming to the client. The
// caller must close the reader.
func (s *DocumentService) Download(ctx context.Context, id uuid.UUID, slot domain.DocumentSlot) (io.ReadCloser, string, error) {
	if !slot.IsValid() {
		return nil, "", fmt.Errorf("%w: unknown document slot %q", ErrInvalidInput, slot)
	}

	request, _, err := visibleRequest(ctx, s.requestRepo, id)
	if err != nil {
		return nil, "", err
	}

	if !request.HasDocument(slot) {
		return nil, "", ErrRequestNotFound
	}

	storagePath, filename := request.DocumentPath(slot)
	reader, err := s.storage.Download(ctx, storagePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open document: %w", err)
	}
	return reader, filename, nil
}
