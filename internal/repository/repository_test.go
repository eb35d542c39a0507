package repository_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prflow/approval-api/internal/database"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory database unique to the test, migrated to the
// current schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createTestRequest(t *testing.T, db *gorm.DB, createdByID string, status domain.RequestStatus) *domain.Request {
	t.Helper()

	request := &domain.Request{
		RequestNumber: fmt.Sprintf("PR-2608-%04d", requestCounter(db)),
		Title:         "Test Request",
		RequesterName: "Test User",
		CreatedByID:   createdByID,
		Status:        status,
		Items: []domain.RequestItem{
			{Name: "Laptop", Quantity: 2, Unit: "pcs", EstimatedPrice: 1500, DisplayOrder: 0},
			{Name: "Dock", Quantity: 2, Unit: "pcs", EstimatedPrice: 200, DisplayOrder: 1},
		},
	}
	request.TotalAmount = request.ComputeTotal()
	require.NoError(t, db.Create(request).Error)
	return request
}

func requestCounter(db *gorm.DB) int64 {
	var count int64
	db.Model(&domain.Request{}).Count(&count)
	return count + 1
}
