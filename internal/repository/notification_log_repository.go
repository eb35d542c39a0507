package repository

import (
	"context"

	"github.com/prflow/approval-api/internal/domain"
	"gorm.io/gorm"
)

// NotificationLogRepository records delivery attempts made by the dispatcher
type NotificationLogRepository struct {
	db *gorm.DB
}

// NewNotificationLogRepository creates a new NotificationLogRepository
func NewNotificationLogRepository(db *gorm.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

func (r *NotificationLogRepository) Create(ctx context.Context, entry *domain.NotificationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecent returns the latest delivery attempts, newest first.
func (r *NotificationLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []domain.NotificationLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
