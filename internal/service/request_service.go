package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/auth"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/mapper"
	"github.com/prflow/approval-api/internal/notify"
	"github.com/prflow/approval-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestService handles creation, listing and editing of purchase requests
type RequestService struct {
	requestRepo *repository.RequestRepository
	numbers     *RequestNumberService
	dispatcher  *notify.Dispatcher
	logger      *zap.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo *repository.RequestRepository,
	numbers *RequestNumberService,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		numbers:     numbers,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// visibleRequest loads a request and enforces the visibility rule: regular
// users only see their own requests. A request hidden by the rule is
// indistinguishable from one that does not exist.
func visibleRequest(ctx context.Context, repo *repository.RequestRepository, id uuid.UUID) (*domain.Request, *auth.UserContext, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, nil, ErrUnauthorized
	}

	request, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrRequestNotFound
		}
		return nil, nil, fmt.Errorf("failed to get request: %w", err)
	}

	if !user.CanViewAll() && !request.IsOwnedBy(user.AccountID()) {
		return nil, nil, ErrRequestNotFound
	}
	return request, user, nil
}

// Create creates a new purchase request in the pending status. The total is
// derived from the line items, never taken from the caller.
func (s *RequestService) Create(ctx context.Context, payload *domain.CreateRequestRequest) (*domain.RequestDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	number, err := s.numbers.Generate(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	items := make([]domain.RequestItem, len(payload.Items))
	for i, item := range payload.Items {
		items[i] = domain.RequestItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			EstimatedPrice: item.EstimatedPrice,
			Note:           item.Note,
			DisplayOrder:   i,
		}
	}

	department := payload.Department
	if department == "" {
		department = user.Department
	}

	request := &domain.Request{
		RequestNumber: number,
		Title:         payload.Title,
		Description:   payload.Description,
		Department:    department,
		RequesterName: user.DisplayName,
		CreatedByID:   user.AccountID(),
		Status:        domain.StatusPending,
		Items:         items,
	}
	request.TotalAmount = request.ComputeTotal()

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("purchase request created",
		zap.String("request_id", request.ID.String()),
		zap.String("request_number", request.RequestNumber),
		zap.String("created_by", user.Username),
		zap.Float64("total_amount", request.TotalAmount),
	)

	s.dispatcher.RequestCreated(request)

	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

// GetByID returns a single request visible to the caller
func (s *RequestService) GetByID(ctx context.Context, id uuid.UUID) (*domain.RequestDTO, error) {
	request, _, err := visibleRequest(ctx, s.requestRepo, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToRequestDTO(request)
	return &dto, nil
}

// List returns a page of requests. Regular users are always scoped to their
// own requests regardless of what the filter asks for.
func (s *RequestService) List(ctx context.Context, filter repository.RequestFilter) (*domain.RequestListDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if !user.CanViewAll() {
		filter.CreatedByID = user.AccountID()
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	requests, total, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	dto := mapper.ToRequestListDTO(requests, total, filter.Page, filter.PageSize)
	return &dto, nil
}

// UpdateItems replaces the line items of a pending request. The owner may
// edit their own request; admins may edit any. Once the request leaves
// pending its contents are frozen.
func (s *RequestService) UpdateItems(ctx context.Context, id uuid.UUID, payload *domain.UpdateRequestItemsRequest) (*domain.RequestDTO, error) {
	request, user, err := visibleRequest(ctx, s.requestRepo, id)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() && !request.IsOwnedBy(user.AccountID()) {
		return nil, ErrPermissionDenied
	}
	if request.Status != domain.StatusPending {
		return nil, ErrRequestNotEditable
	}

	items := make([]domain.RequestItem, len(payload.Items))
	for i, item := range payload.Items {
		items[i] = domain.RequestItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			EstimatedPrice: item.EstimatedPrice,
			Note:           item.Note,
			DisplayOrder:   i,
		}
	}

	total := 0.0
	for i := range items {
		total += items[i].LineTotal()
	}

	if err := s.requestRepo.ReplaceItems(ctx, id, items, total); err != nil {
		return nil, fmt.Errorf("failed to update items: %w", err)
	}

	updated, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request: %w", err)
	}

	s.logger.Info("request items updated",
		zap.String("request_id", id.String()),
		zap.Int("items", len(items)),
		zap.Float64("total_amount", total),
	)

	dto := mapper.ToRequestDTO(updated)
	return &dto, nil
}

// Delete removes a request entirely. Admin only; the normal way out of the
// workflow is cancellation, which keeps the record.
func (s *RequestService) Delete(ctx context.Context, id uuid.UUID) error {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !user.IsAdmin() {
		return ErrPermissionDenied
	}

	if _, err := s.requestRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to get request: %w", err)
	}

	if err := s.requestRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	s.logger.Info("request deleted",
		zap.String("request_id", id.String()),
		zap.String("deleted_by", user.Username),
	)
	return nil
}
