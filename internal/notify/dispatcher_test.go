package notify_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/database"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/notify"
	"github.com/prflow/approval-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

// chanSink hands delivered messages to the test goroutine
type chanSink struct {
	messages chan *notify.Message
	err      error
	mu       sync.Mutex
}

func newChanSink() *chanSink {
	return &chanSink{messages: make(chan *notify.Message, 8)}
}

func (s *chanSink) Send(ctx context.Context, msg *notify.Message) error {
	s.messages <- msg
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *chanSink) failWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *chanSink) waitForMessage(t *testing.T) *notify.Message {
	t.Helper()
	select {
	case msg := <-s.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
		return nil
	}
}

func seedAccount(t *testing.T, db *gorm.DB, username, email string, role domain.Role, active bool) *domain.Account {
	t.Helper()
	account := &domain.Account{
		Username:     username,
		PasswordHash: "x",
		DisplayName:  username,
		Email:        email,
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func newTestDispatcher(t *testing.T, db *gorm.DB, sink notify.Sink) *notify.Dispatcher {
	t.Helper()
	return notify.NewDispatcher(
		sink,
		repository.NewAccountRepository(db),
		repository.NewNotificationLogRepository(db),
		zap.NewNop(),
		2*time.Second,
		"Approval Workflow",
	)
}

func testRequest(createdByID string) *domain.Request {
	return &domain.Request{
		BaseModel:     domain.BaseModel{ID: uuid.New(), CreatedAt: time.Now().UTC()},
		RequestNumber: "PR-2608-0001",
		Title:         "New laptops",
		RequesterName: "Kari Nordmann",
		CreatedByID:   createdByID,
		Status:        domain.StatusPending,
		TotalAmount:   3400,
	}
}

func TestDispatcher_RequestCreated_NotifiesApprovers(t *testing.T) {
	db := setupTestDB(t)
	sink := newChanSink()
	dispatcher := newTestDispatcher(t, db, sink)

	seedAccount(t, db, "approver", "approver@example.com", domain.RoleApprover, true)
	seedAccount(t, db, "admin", "admin@example.com", domain.RoleAdmin, true)
	seedAccount(t, db, "inactive", "inactive@example.com", domain.RoleApprover, false)
	seedAccount(t, db, "user", "user@example.com", domain.RoleUser, true)

	dispatcher.RequestCreated(testRequest(uuid.NewString()))

	msg := sink.waitForMessage(t)
	assert.Contains(t, msg.Subject, "PR-2608-0001")
	assert.ElementsMatch(t, []string{"approver@example.com", "admin@example.com"}, msg.Recipients)
	assert.Contains(t, msg.Body, "Kari Nordmann")
}

func TestDispatcher_StatusChanged_NotifiesRequester(t *testing.T) {
	db := setupTestDB(t)
	sink := newChanSink()
	dispatcher := newTestDispatcher(t, db, sink)

	requester := seedAccount(t, db, "kari", "kari@example.com", domain.RoleUser, true)

	dispatcher.StatusChanged(testRequest(requester.ID.String()), domain.StatusRejected, "over budget")

	msg := sink.waitForMessage(t)
	assert.Equal(t, []string{"kari@example.com"}, msg.Recipients)
	assert.Contains(t, msg.Subject, "rejected")
	assert.Contains(t, msg.Body, "over budget")
}

func TestDispatcher_PendingReminder(t *testing.T) {
	db := setupTestDB(t)
	sink := newChanSink()
	dispatcher := newTestDispatcher(t, db, sink)

	seedAccount(t, db, "approver", "approver@example.com", domain.RoleApprover, true)

	waitingSince := time.Date(2026, time.August, 20, 9, 0, 0, 0, time.UTC)
	dispatcher.PendingReminder(testRequest(uuid.NewString()), waitingSince)

	msg := sink.waitForMessage(t)
	assert.Contains(t, msg.Subject, "still pending")
	assert.Contains(t, msg.Body, "2026-08-20")
}

func TestDispatcher_RecordsDeliveryAttempts(t *testing.T) {
	db := setupTestDB(t)
	sink := newChanSink()
	dispatcher := newTestDispatcher(t, db, sink)
	logRepo := repository.NewNotificationLogRepository(db)

	seedAccount(t, db, "approver", "approver@example.com", domain.RoleApprover, true)

	request := testRequest(uuid.NewString())
	dispatcher.RequestCreated(request)
	sink.waitForMessage(t)

	require.Eventually(t, func() bool {
		entries, err := logRepo.ListRecent(context.Background(), 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)

	entries, err := logRepo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	entry := entries[0]
	assert.Equal(t, domain.EventRequestCreated, entry.Event)
	assert.True(t, entry.Delivered)
	assert.Equal(t, request.ID, *entry.RequestID)
}

func TestDispatcher_DeliveryFailureIsRecordedNotRaised(t *testing.T) {
	db := setupTestDB(t)
	sink := newChanSink()
	sink.failWith(errors.New("gateway unreachable"))
	dispatcher := newTestDispatcher(t, db, sink)
	logRepo := repository.NewNotificationLogRepository(db)

	seedAccount(t, db, "approver", "approver@example.com", domain.RoleApprover, true)

	dispatcher.RequestCreated(testRequest(uuid.NewString()))
	sink.waitForMessage(t)

	require.Eventually(t, func() bool {
		entries, err := logRepo.ListRecent(context.Background(), 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)

	entries, err := logRepo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, entries[0].Delivered)
	assert.Contains(t, entries[0].Error, "gateway unreachable")
}

func TestDispatcher_NoApprovers_SkipsDelivery(t *testing.T) {
	db := setupTestDB(t)
	sink := newChanSink()
	dispatcher := newTestDispatcher(t, db, sink)
	logRepo := repository.NewNotificationLogRepository(db)

	dispatcher.RequestCreated(testRequest(uuid.NewString()))

	// The skip is still recorded for the audit trail
	require.Eventually(t, func() bool {
		entries, err := logRepo.ListRecent(context.Background(), 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case msg := <-sink.messages:
		t.Fatalf("unexpected delivery to %v", msg.Recipients)
	default:
	}
}
