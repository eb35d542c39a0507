package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRequestRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)

	request := &domain.Request{
		RequestNumber: "PR-2608-0001",
		Title:         "New monitors",
		RequesterName: "Kari Nordmann",
		CreatedByID:   uuid.NewString(),
		Status:        domain.StatusPending,
		Items: []domain.RequestItem{
			{Name: "Monitor", Quantity: 3, EstimatedPrice: 400},
		},
	}
	request.TotalAmount = request.ComputeTotal()

	err := repo.Create(context.Background(), request)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, request.ID)
	assert.Equal(t, float64(1200), request.TotalAmount)
}

func TestRequestRepository_GetByID_OrdersItems(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)

	request := &domain.Request{
		RequestNumber: "PR-2608-0001",
		Title:         "Office supplies",
		RequesterName: "Test User",
		CreatedByID:   uuid.NewString(),
		Status:        domain.StatusPending,
		Items: []domain.RequestItem{
			{Name: "Second", Quantity: 1, EstimatedPrice: 10, DisplayOrder: 1},
			{Name: "First", Quantity: 1, EstimatedPrice: 20, DisplayOrder: 0},
		},
	}
	require.NoError(t, db.Create(request).Error)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "First", found.Items[0].Name)
	assert.Equal(t, "Second", found.Items[1].Name)
}

func TestRequestRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRequestRepository_List_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)

	alice := uuid.NewString()
	bob := uuid.NewString()
	createTestRequest(t, db, alice, domain.StatusPending)
	createTestRequest(t, db, alice, domain.StatusApproved)
	createTestRequest(t, db, bob, domain.StatusPending)

	requests, total, err := repo.List(context.Background(), repository.RequestFilter{CreatedByID: alice})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, requests, 2)

	requests, total, err = repo.List(context.Background(), repository.RequestFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, r := range requests {
		assert.Equal(t, domain.StatusPending, r.Status)
	}
}

func TestRequestRepository_List_Pagination(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)

	owner := uuid.NewString()
	for i := 0; i < 5; i++ {
		createTestRequest(t, db, owner, domain.StatusPending)
	}

	requests, total, err := repo.List(context.Background(), repository.RequestFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, requests, 2)
}

func TestRequestRepository_UpdateStatusIf(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	request := createTestRequest(t, db, uuid.NewString(), domain.StatusPending)

	now := time.Now().UTC()
	updated, err := repo.UpdateStatusIf(context.Background(), request.ID, domain.StatusPending, map[string]interface{}{
		"status":      domain.StatusApproved,
		"approved_at": now,
		"updated_at":  now,
	})
	require.NoError(t, err)
	assert.True(t, updated)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, found.Status)
	require.NotNil(t, found.ApprovedAt)
}

func TestRequestRepository_UpdateStatusIf_StaleStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	request := createTestRequest(t, db, uuid.NewString(), domain.StatusApproved)

	// The caller validated against pending, but another writer already moved
	// the request on. The update must not apply.
	updated, err := repo.UpdateStatusIf(context.Background(), request.ID, domain.StatusPending, map[string]interface{}{
		"status": domain.StatusRejected,
	})
	require.NoError(t, err)
	assert.False(t, updated)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, found.Status)
}

func TestRequestRepository_FillDocumentSlot(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	request := createTestRequest(t, db, uuid.NewString(), domain.StatusPending)

	filled, err := repo.FillDocumentSlot(context.Background(), request.ID, domain.SlotQuotation, "requests/x/a.pdf", "quotation.pdf")
	require.NoError(t, err)
	assert.True(t, filled)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "requests/x/a.pdf", found.QuotationPath)
	assert.Equal(t, "quotation.pdf", found.QuotationName)
}

func TestRequestRepository_FillDocumentSlot_AlreadyFilled(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	request := createTestRequest(t, db, uuid.NewString(), domain.StatusPending)

	filled, err := repo.FillDocumentSlot(context.Background(), request.ID, domain.SlotQuotation, "requests/x/a.pdf", "first.pdf")
	require.NoError(t, err)
	require.True(t, filled)

	filled, err = repo.FillDocumentSlot(context.Background(), request.ID, domain.SlotQuotation, "requests/x/b.pdf", "second.pdf")
	require.NoError(t, err)
	assert.False(t, filled)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "first.pdf", found.QuotationName)
}

func TestRequestRepository_FillDocumentSlot_IndependentSlots(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	request := createTestRequest(t, db, uuid.NewString(), domain.StatusPending)

	filled, err := repo.FillDocumentSlot(context.Background(), request.ID, domain.SlotQuotation, "requests/x/a.pdf", "quotation.pdf")
	require.NoError(t, err)
	require.True(t, filled)

	filled, err = repo.FillDocumentSlot(context.Background(), request.ID, domain.SlotSignedQuotation, "requests/x/b.pdf", "signed.pdf")
	require.NoError(t, err)
	assert.True(t, filled)
}

func TestRequestRepository_ReplaceItems(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	request := createTestRequest(t, db, uuid.NewString(), domain.StatusPending)

	newItems := []domain.RequestItem{
		{Name: "Chair", Quantity: 4, EstimatedPrice: 250, DisplayOrder: 0},
	}
	err := repo.ReplaceItems(context.Background(), request.ID, newItems, 1000)
	require.NoError(t, err)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Chair", found.Items[0].Name)
	assert.Equal(t, float64(1000), found.TotalAmount)
}

func TestRequestRepository_Delete_RemovesItems(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	request := createTestRequest(t, db, uuid.NewString(), domain.StatusPending)

	err := repo.Delete(context.Background(), request.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(context.Background(), request.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var itemCount int64
	require.NoError(t, db.Model(&domain.RequestItem{}).Where("request_id = ?", request.ID).Count(&itemCount).Error)
	assert.Equal(t, int64(0), itemCount)
}

func TestRequestRepository_ListPendingOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)

	stale := createTestRequest(t, db, uuid.NewString(), domain.StatusPending)
	past := time.Now().UTC().Add(-72 * time.Hour)
	require.NoError(t, db.Model(&domain.Request{}).Where("id = ?", stale.ID).Update("created_at", past).Error)

	createTestRequest(t, db, uuid.NewString(), domain.StatusPending)
	createTestRequest(t, db, uuid.NewString(), domain.StatusApproved)

	found, err := repo.ListPendingOlderThan(context.Background(), time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
}
