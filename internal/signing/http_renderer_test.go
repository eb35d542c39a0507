package signing_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prflow/approval-api/internal/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRenderer_StampSignature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/stamp", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))

		document, _, err := r.FormFile("document")
		require.NoError(t, err)
		defer document.Close()
		content, err := io.ReadAll(document)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-quotation", string(content))

		sig, _, err := r.FormFile("signature")
		require.NoError(t, err)
		defer sig.Close()

		w.Write([]byte("%PDF-stamped"))
	}))
	defer server.Close()

	renderer := signing.NewHTTPRenderer(server.URL, 5*time.Second)
	assert.True(t, renderer.Enabled())

	stamped, err := renderer.StampSignature(context.Background(), []byte("%PDF-quotation"), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stamped", string(stamped))
}

func TestHTTPRenderer_StampSignature_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of memory", http.StatusInternalServerError)
	}))
	defer server.Close()

	renderer := signing.NewHTTPRenderer(server.URL, 5*time.Second)
	_, err := renderer.StampSignature(context.Background(), []byte("doc"), []byte("sig"))
	assert.ErrorContains(t, err, "status 500")
}

func TestHTTPRenderer_StampSignature_Unreachable(t *testing.T) {
	renderer := signing.NewHTTPRenderer("http://127.0.0.1:1", time.Second)
	_, err := renderer.StampSignature(context.Background(), []byte("doc"), []byte("sig"))
	assert.ErrorContains(t, err, "unreachable")
}

func TestDisabledRenderer(t *testing.T) {
	renderer := signing.NewDisabledRenderer()
	assert.False(t, renderer.Enabled())

	_, err := renderer.StampSignature(context.Background(), []byte("doc"), []byte("sig"))
	assert.ErrorIs(t, err, signing.ErrRendererDisabled)
}
