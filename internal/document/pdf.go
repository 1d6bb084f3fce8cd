package document

import (
	"context"

	"github.com/doxkit/pdfextract/internal/config"
	"github.com/doxkit/pdfextract/internal/extract"
)

// pdfProvider adapts the PDF extraction engine to the Provider
// interface. Encrypted documents get one pass over the builtin
// password list before content access.
type pdfProvider struct {
	cfg *config.Config
}

func (pdfProvider) Format() Format { return FormatPDF }

func (p *pdfProvider) ExtractText(ctx context.Context, path string) (string, error) {
	h, err := extract.Open(path, p.cfg)
	if err != nil {
		return "", err
	}
	defer h.Close()

	if h.CheckEncryption().IsEncrypted {
		if _, err := h.TryCommonPasswords(nil); err != nil {
			return "", err
		}
	}
	return h.GetText(ctx)
}
