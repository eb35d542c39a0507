package service_test

import (
	"strings"
	"testing"

	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_AttachAndDownload(t *testing.T) {
	f := newFixture(t)
	_, ctx := newUser(domain.RoleUser)

	created, err := f.requests.Create(ctx, createPayload())
	require.NoError(t, err)

	dto, err := f.documents.Attach(ctx, created.ID, domain.SlotQuotation, "quotation.pdf", "application/pdf", strings.NewReader("%PDF-content"))
	require.NoError(t, err)
	require.Len(t, dto.Documents, 1)
	assert.Equal(t, domain.SlotQuotation, dto.Documents[0].Slot)
	assert.Equal(t, "quotation.pdf", dto.Documents[0].Filename)

	reader, filename, err := f.documents.Download(ctx, created.ID, domain.SlotQuotation)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, "quotation.pdf", filename)
	assert.Equal(t, "%PDF-content", string(readAll(t, reader)))
}

func TestDocumentService_Attach_SlotFillsOnce(t *testing.T) {
	f := newFixture(t)
	_, ctx := newUser(domain.RoleUser)

	created, err := f.requests.Create(ctx, createPayload())
	require.NoError(t, err)

	_, err = f.documents.Attach(ctx, created.ID, domain.SlotQuotation, "first.pdf", "application/pdf", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = f.documents.Attach(ctx, created.ID, domain.SlotQuotation, "second.pdf", "application/pdf", strings.NewReader("second"))
	assert.ErrorIs(t, err, service.ErrSlotLocked)

	// The winning document stays in place
	_, filename, err := f.documents.Download(ctx, created.ID, domain.SlotQuotation)
	require.NoError(t, err)
	assert.Equal(t, "first.pdf", filename)
}

func TestDocumentService_Attach_InvalidSlot(t *testing.T) {
	f := newFixture(t)
	_, ctx := newUser(domain.RoleUser)

	created, err := f.requests.Create(ctx, createPayload())
	require.NoError(t, err)

	_, err = f.documents.Attach(ctx, created.ID, domain.DocumentSlot("receipt"), "r.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestDocumentService_Attach_TerminalRequest(t *testing.T) {
	f := newFixture(t)
	_, ctx := newUser(domain.RoleUser)

	created, err := f.requests.Create(ctx, createPayload())
	require.NoError(t, err)
	_, err = f.lifecycle.Cancel(ctx, created.ID)
	require.NoError(t, err)

	_, err = f.documents.Attach(ctx, created.ID, domain.SlotQuotation, "q.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrRequestNotEditable)
}

func TestDocumentService_Attach_HiddenRequest(t *testing.T) {
	f := newFixture(t)
	_, ownerCtx := newUser(domain.RoleUser)
	_, otherCtx := newUser(domain.RoleUser)

	created, err := f.requests.Create(ownerCtx, createPayload())
	require.NoError(t, err)

	_, err = f.documents.Attach(otherCtx, created.ID, domain.SlotQuotation, "q.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrRequestNotFound)
}

func TestDocumentService_Download_EmptySlot(t *testing.T) {
	f := newFixture(t)
	_, ctx := newUser(domain.RoleUser)

	created, err := f.requests.Create(ctx, createPayload())
	require.NoError(t, err)

	_, _, err = f.documents.Download(ctx, created.ID, domain.SlotQuotation)
	assert.ErrorIs(t, err, service.ErrRequestNotFound)
}
