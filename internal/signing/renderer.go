package signing

import (
	"context"
)

// Renderer stamps a signature image onto the last page of a quotation PDF
// and returns the signed document.
type Renderer interface {
	StampSignature(ctx context.Context, quotationPDF, signaturePNG []byte) ([]byte, error)
	Enabled() bool
}

// DisabledRenderer is used when no render service is configured. Approvals
// still work; approvals with a signature are refused.
type DisabledRenderer struct{}

// NewDisabledRenderer creates a new DisabledRenderer
func NewDisabledRenderer() *DisabledRenderer {
	return &DisabledRenderer{}
}

func (r *DisabledRenderer) StampSignature(ctx context.Context, quotationPDF, signaturePNG []byte) ([]byte, error) {
	return nil, ErrRendererDisabled
}

func (r *DisabledRenderer) Enabled() bool {
	return false
}
