package signing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrRendererDisabled is returned when signature stamping is requested but no
// render service is configured.
var ErrRendererDisabled = errors.New("signature renderer is not configured")

// HTTPRenderer talks to an external render service that stamps signature
// images onto PDF documents.
type HTTPRenderer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRenderer creates a new HTTPRenderer
func NewHTTPRenderer(baseURL string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRenderer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (r *HTTPRenderer) Enabled() bool {
	return true
}

// StampSignature sends the quotation and signature to the render service,
// which places the signature on the final page, and returns the stamped PDF.
func (r *HTTPRenderer) StampSignature(ctx context.Context, quotationPDF, signaturePNG []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("document", "quotation.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(quotationPDF); err != nil {
		return nil, err
	}

	part, err = writer.CreateFormFile("signature", "signature.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(signaturePNG); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return r.post(ctx, fmt.Sprintf("%s/stamp", r.baseURL), body, writer.FormDataContentType())
}

func (r *HTTPRenderer) post(ctx context.Context, url string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service unreachable: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
