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

func createTestAccount(t *testing.T, db *gorm.DB, username string, role domain.Role, active bool) *domain.Account {
	t.Helper()

	account := &domain.Account{
		Username:     username,
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarealhash",
		DisplayName:  "Account " + username,
		Email:        username + "@example.com",
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAccountRepository(db)
	createTestAccount(t, db, "kari", domain.RoleUser, true)

	found, err := repo.GetByUsername(context.Background(), "kari")
	require.NoError(t, err)
	assert.Equal(t, "kari", found.Username)

	_, err = repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAccountRepository_ListActiveByRoles(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAccountRepository(db)

	createTestAccount(t, db, "user1", domain.RoleUser, true)
	createTestAccount(t, db, "approver1", domain.RoleApprover, true)
	createTestAccount(t, db, "approver2", domain.RoleApprover, false)
	createTestAccount(t, db, "admin1", domain.RoleAdmin, true)

	accounts, err := repo.ListActiveByRoles(context.Background(), domain.RoleApprover, domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	usernames := []string{accounts[0].Username, accounts[1].Username}
	assert.Contains(t, usernames, "approver1")
	assert.Contains(t, usernames, "admin1")
}

func TestAccountRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAccountRepository(db)
	account := createTestAccount(t, db, "kari", domain.RoleUser, true)

	err := repo.Update(context.Background(), account.ID, map[string]interface{}{
		"role":      domain.RoleApprover,
		"is_active": false,
	})
	require.NoError(t, err)

	found, err := repo.GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleApprover, found.Role)
	assert.False(t, found.IsActive)
}

func TestAccountRepository_TouchLastLogin(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAccountRepository(db)
	account := createTestAccount(t, db, "kari", domain.RoleUser, true)
	require.Nil(t, account.LastLoginAt)

	now := time.Now().UTC().Truncate(time.Second)
	err := repo.TouchLastLogin(context.Background(), account.ID, now)
	require.NoError(t, err)

	found, err := repo.GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.WithinDuration(t, now, *found.LastLoginAt, time.Second)
}

func TestAccountRepository_Count(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAccountRepository(db)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	createTestAccount(t, db, "kari", domain.RoleUser, true)
	createTestAccount(t, db, "ola", domain.RoleAdmin, true)

	count, err = repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotificationLogRepository_ListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewNotificationLogRepository(db)

	requestID := uuid.New()
	for i := 0; i < 3; i++ {
		err := repo.Create(context.Background(), &domain.NotificationLog{
			RequestID:  &requestID,
			Event:      domain.EventStatusChanged,
			Recipients: "kari@example.com",
			Subject:    "status update",
			Delivered:  true,
		})
		require.NoError(t, err)
	}

	entries, err := repo.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
