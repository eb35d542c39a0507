package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/auth"
	"github.com/prflow/approval-api/internal/config"
	"github.com/prflow/approval-api/internal/database"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/notify"
	"github.com/prflow/approval-api/internal/repository"
	"github.com/prflow/approval-api/internal/service"
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

// memStorage keeps uploaded documents in a map
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) Upload(ctx context.Context, prefix, filename, contentType string, data io.Reader) (string, int64, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", 0, err
	}
	storagePath := path.Join(prefix, uuid.NewString()+path.Ext(filename))
	m.mu.Lock()
	m.files[storagePath] = content
	m.mu.Unlock()
	return storagePath, int64(len(content)), nil
}

func (m *memStorage) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	m.mu.Lock()
	content, ok := m.files[storagePath]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("file not found: %s", storagePath)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *memStorage) Delete(ctx context.Context, storagePath string) error {
	m.mu.Lock()
	delete(m.files, storagePath)
	m.mu.Unlock()
	return nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// stubRenderer stamps by prepending a marker to the document
type stubRenderer struct {
	enabled bool
	err     error
}

func (r *stubRenderer) StampSignature(ctx context.Context, quotationPDF, signaturePNG []byte) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]byte("signed:"), quotationPDF...), nil
}

func (r *stubRenderer) Enabled() bool {
	return r.enabled
}

// fixture wires the service layer against an in-memory database
type fixture struct {
	db          *gorm.DB
	requestRepo *repository.RequestRepository
	accountRepo *repository.AccountRepository
	store       *memStorage
	renderer    *stubRenderer

	requests  *service.RequestService
	lifecycle *service.RequestLifecycleService
	documents *service.DocumentService
	accounts  *service.AccountService
	export    *service.ExportService
	numbers   *service.RequestNumberService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	log := zap.NewNop()

	requestRepo := repository.NewRequestRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	sequenceRepo := repository.NewNumberSequenceRepository(db)
	logRepo := repository.NewNotificationLogRepository(db)

	dispatcher := notify.NewDispatcher(notify.NewLogSink(log), accountRepo, logRepo, log, time.Second, "Approval Workflow")
	store := newMemStorage()
	renderer := &stubRenderer{enabled: true}

	numbers := service.NewRequestNumberService(sequenceRepo)
	tokens := auth.NewTokenIssuer(&config.AuthConfig{JWTSecret: "test-secret", Issuer: "test", TokenTTL: 3600})

	return &fixture{
		db:          db,
		requestRepo: requestRepo,
		accountRepo: accountRepo,
		store:       store,
		renderer:    renderer,
		requests:    service.NewRequestService(requestRepo, numbers, dispatcher, log),
		lifecycle:   service.NewRequestLifecycleService(requestRepo, store, renderer, dispatcher, log),
		documents:   service.NewDocumentService(requestRepo, store, log),
		accounts:    service.NewAccountService(accountRepo, tokens, log),
		export:      service.NewExportService(requestRepo, log),
		numbers:     numbers,
	}
}

// newUser builds an authenticated context for a role without touching the
// accounts table. Tests that need recipient resolution seed accounts instead.
func newUser(role domain.Role) (*auth.UserContext, context.Context) {
	user := &auth.UserContext{
		UserID:      uuid.New(),
		Username:    "user-" + uuid.NewString()[:8],
		DisplayName: "Test " + string(role),
		Email:       "test@example.com",
		Department:  "Engineering",
		Role:        role,
	}
	return user, auth.WithUserContext(context.Background(), user)
}

func createPayload() *domain.CreateRequestRequest {
	return &domain.CreateRequestRequest{
		Title: "New laptops",
		Items: []domain.CreateRequestItemRequest{
			{Name: "Laptop", Quantity: 2, Unit: "pcs", EstimatedPrice: 1500},
			{Name: "Dock", Quantity: 2, Unit: "pcs", EstimatedPrice: 200},
		},
	}
}

func repositoryFilter() repository.RequestFilter {
	return repository.RequestFilter{}
}

func signedReader() io.Reader {
	return strings.NewReader("%PDF-signed")
}

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	return content
}

// attachQuotation uploads a quotation so the request can be approved
func (f *fixture) attachQuotation(t *testing.T, ctx context.Context, id uuid.UUID, content string) {
	t.Helper()
	_, err := f.documents.Attach(ctx, id, domain.SlotQuotation, "quotation.pdf", "application/pdf", strings.NewReader(content))
	require.NoError(t, err)
}
