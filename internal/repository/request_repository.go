package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"gorm.io/gorm"
)

// RequestFilter narrows request listings
type RequestFilter struct {
	// CreatedByID restricts results to one requester (the visibility filter
	// for the user role)
	CreatedByID string
	Status      domain.RequestStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// RequestRepository handles database operations for purchase requests
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new RequestRepository
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, request *domain.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var request domain.Request
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns a page of requests matching the filter, newest first, along
// with the total match count.
func (r *RequestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Request{})

	if filter.CreatedByID != "" {
		query = query.Where("created_by_id = ?", filter.CreatedByID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at < ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	query = query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order ASC")
	}).Order("created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var requests []domain.Request
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// UpdateStatusIf applies a status change only when the stored status still
// matches the one the caller observed. Returns false without error when
// another writer got there first.
func (r *RequestRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected domain.RequestStatus, patch map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// slotColumns maps a document slot to its path and filename columns.
func slotColumns(slot domain.DocumentSlot) (pathCol, nameCol string, ok bool) {
	switch slot {
	case domain.SlotQuotation:
		return "quotation_path", "quotation_name", true
	case domain.SlotSignedQuotation:
		return "signed_quotation_path", "signed_quotation_name", true
	}
	return "", "", false
}

// FillDocumentSlot writes a document into a slot only while the slot is still
// empty. Returns false when the slot was already filled.
func (r *RequestRepository) FillDocumentSlot(ctx context.Context, id uuid.UUID, slot domain.DocumentSlot, storagePath, filename string) (bool, error) {
	pathCol, nameCol, ok := slotColumns(slot)
	if !ok {
		return false, fmt.Errorf("unknown document slot: %s", slot)
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where(fmt.Sprintf("id = ? AND (%s IS NULL OR %s = '')", pathCol, pathCol), id).
		Updates(map[string]interface{}{
			pathCol:      storagePath,
			nameCol:      filename,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReplaceItems swaps the line items of a request and updates the derived
// total in one transaction.
func (r *RequestRepository) ReplaceItems(ctx context.Context, id uuid.UUID, items []domain.RequestItem, total float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&domain.RequestItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete existing items: %w", err)
		}
		for i := range items {
			items[i].RequestID = id
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to create items: %w", err)
			}
		}
		return tx.Model(&domain.Request{}).Where("id = ?", id).Updates(map[string]interface{}{
			"total_amount": total,
			"updated_at":   time.Now().UTC(),
		}).Error
	})
}

func (r *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Items").Delete(&domain.Request{BaseModel: domain.BaseModel{ID: id}}).Error
}

// ListPendingOlderThan returns pending requests created before the cutoff.
func (r *RequestRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Request, error) {
	var requests []domain.Request
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.StatusPending, cutoff).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}
