package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/mapper"
	"github.com/prflow/approval-api/internal/notify"
	"github.com/prflow/approval-api/internal/repository"
	"github.com/prflow/approval-api/internal/signing"
	"github.com/prflow/approval-api/internal/storage"
	"go.uber.org/zap"
)

// RequestLifecycleService moves purchase requests through their status
// transitions. Every transition is applied with a conditional update so that
// two concurrent actors can never both win the same change.
type RequestLifecycleService struct {
	requestRepo *repository.RequestRepository
	storage     storage.Storage
	renderer    signing.Renderer
	dispatcher  *notify.Dispatcher
	logger      *zap.Logger
}

// NewRequestLifecycleService creates a new RequestLifecycleService
func NewRequestLifecycleService(
	requestRepo *repository.RequestRepository,
	store storage.Storage,
	renderer signing.Renderer,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) *RequestLifecycleService {
	return &RequestLifecycleService{
		requestRepo: requestRepo,
		storage:     store,
		renderer:    renderer,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Approve moves a pending request to approved. When the payload carries a
// drawn signature, the signature is stamped onto the quotation and stored in
// the signed quotation slot before the status changes. If stamping or upload
// fails the status is left untouched.
func (s *RequestLifecycleService) Approve(ctx context.Context, id uuid.UUID, payload *domain.ApproveRequestRequest) (*domain.RequestDTO, error) {
	request, user, err := visibleRequest(ctx, s.requestRepo, id)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateTransition(request, domain.StatusApproved, user.Role, user.AccountID(), ""); err != nil {
		return nil, err
	}

	if payload != nil && payload.SignatureImage != "" {
		if err := s.stampSignedQuotation(ctx, request, payload.SignatureImage); err != nil {
			return nil, err
		}
	}

	return s.apply(ctx, request, domain.StatusApproved, "")
}

// Reject moves a pending request to rejected, recording the reason
func (s *RequestLifecycleService) Reject(ctx context.Context, id uuid.UUID, reason string) (*domain.RequestDTO, error) {
	return s.transition(ctx, id, domain.StatusRejected, reason)
}

// Cancel moves a pending request to cancelled
func (s *RequestLifecycleService) Cancel(ctx context.Context, id uuid.UUID) (*domain.RequestDTO, error) {
	return s.transition(ctx, id, domain.StatusCancelled, "")
}

// MarkOrdered moves an approved request to ordered
func (s *RequestLifecycleService) MarkOrdered(ctx context.Context, id uuid.UUID) (*domain.RequestDTO, error) {
	return s.transition(ctx, id, domain.StatusOrdered, "")
}

// Complete moves an ordered request to completed. The signed quotation must
// already be attached.
func (s *RequestLifecycleService) Complete(ctx context.Context, id uuid.UUID) (*domain.RequestDTO, error) {
	return s.transition(ctx, id, domain.StatusCompleted, "")
}

func (s *RequestLifecycleService) transition(ctx context.Context, id uuid.UUID, to domain.RequestStatus, reason string) (*domain.RequestDTO, error) {
	request, user, err := visibleRequest(ctx, s.requestRepo, id)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateTransition(request, to, user.Role, user.AccountID(), reason); err != nil {
		return nil, err
	}

	return s.apply(ctx, request, to, reason)
}

// apply persists an already validated transition. The update only succeeds
// while the stored status still matches the one the caller validated against.
func (s *RequestLifecycleService) apply(ctx context.Context, request *domain.Request, to domain.RequestStatus, reason string) (*domain.RequestDTO, error) {
	now := time.Now().UTC()
	patch := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	if column, ok := domain.StatusTimestampColumn(to); ok {
		patch[column] = now
	}
	if to == domain.StatusRejected {
		patch["rejection_reason"] = reason
	}

	updated, err := s.requestRepo.UpdateStatusIf(ctx, request.ID, request.Status, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if !updated {
		return nil, ErrStatusConflict
	}

	reloaded, err := s.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request: %w", err)
	}

	s.logger.Info("request status changed",
		zap.String("request_id", request.ID.String()),
		zap.String("request_number", request.RequestNumber),
		zap.String("from", string(request.Status)),
		zap.String("to", string(to)),
	)

	s.dispatcher.StatusChanged(reloaded, to, reason)

	dto := mapper.ToRequestDTO(reloaded)
	return &dto, nil
}

// stampSignedQuotation renders the signature onto the quotation and fills the
// signed quotation slot. Runs before the status flip so a render failure
// leaves the request pending.
func (s *RequestLifecycleService) stampSignedQuotation(ctx context.Context, request *domain.Request, signatureImage string) error {
	if !s.renderer.Enabled() {
		return ErrSigningUnavailable
	}
	if request.HasDocument(domain.SlotSignedQuotation) {
		return ErrSlotLocked
	}

	signaturePNG, err := decodeSignatureImage(signatureImage)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	quotationPath, quotationName := request.DocumentPath(domain.SlotQuotation)
	reader, err := s.storage.Download(ctx, quotationPath)
	if err != nil {
		return fmt.Errorf("failed to load quotation: %w", err)
	}
	defer reader.Close()

	quotationPDF, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read quotation: %w", err)
	}

	signedPDF, err := s.renderer.StampSignature(ctx, quotationPDF, signaturePNG)
	if err != nil {
		return fmt.Errorf("failed to stamp signature: %w", err)
	}

	signedName := signedFilename(quotationName)
	prefix := "requests/" + request.ID.String()
	storagePath, _, err := s.storage.Upload(ctx, prefix, signedName, "application/pdf", bytes.NewReader(signedPDF))
	if err != nil {
		return fmt.Errorf("failed to store signed quotation: %w", err)
	}

	filled, err := s.requestRepo.FillDocumentSlot(ctx, request.ID, domain.SlotSignedQuotation, storagePath, signedName)
	if err != nil {
		return fmt.Errorf("failed to attach signed quotation: %w", err)
	}
	if !filled {
		if cleanupErr := s.storage.Delete(ctx, storagePath); cleanupErr != nil {
			s.logger.Warn("failed to clean up orphaned signed quotation",
				zap.String("storage_path", storagePath),
				zap.Error(cleanupErr),
			)
		}
		return ErrSlotLocked
	}

	request.SignedQuotationPath = storagePath
	request.SignedQuotationName = signedName
	return nil
}

// decodeSignatureImage accepts both a bare base64 string and a data URL
func decodeSignatureImage(image string) ([]byte, error) {
	if _, encoded, found := strings.Cut(image, ","); found && strings.HasPrefix(image, "data:") {
		image = encoded
	}
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, fmt.Errorf("signature image is not valid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("signature image is empty")
	}
	return data, nil
}

func signedFilename(quotationName string) string {
	if quotationName == "" {
		return "signed_quotation.pdf"
	}
	ext := path.Ext(quotationName)
	return strings.TrimSuffix(quotationName, ext) + "_signed" + ext
}
