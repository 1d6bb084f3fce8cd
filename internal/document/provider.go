// Package document dispatches text extraction across the supported
// document formats. The format set is closed: adding a format means
// adding a provider here.
package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doxkit/pdfextract/internal/config"
)

// Format identifies a supported document family.
type Format string

const (
	FormatWord       Format = "word"
	FormatPowerPoint Format = "powerpoint"
	FormatExcel      Format = "excel"
	FormatPDF        Format = "pdf"
)

// Provider extracts plain text from documents of one format.
type Provider interface {
	Format() Format
	ExtractText(ctx context.Context, path string) (string, error)
}

// NewProvider constructs the provider for a format. Unknown formats are
// rejected rather than silently falling back.
func NewProvider(f Format, cfg *config.Config) (Provider, error) {
	switch f {
	case FormatWord:
		return &wordProvider{}, nil
	case FormatPowerPoint:
		return &powerPointProvider{}, nil
	case FormatExcel:
		return &excelProvider{}, nil
	case FormatPDF:
		return &pdfProvider{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported document format: %q", f)
	}
}

// DetectFormat maps a file extension to its format. Legacy binary Office
// formats (.doc, .xls, .ppt) are not ZIP+XML and are rejected.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".docm", ".dotx", ".dotm":
		return FormatWord, nil
	case ".pptx", ".pptm", ".potx", ".potm":
		return FormatPowerPoint, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatExcel, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported document extension: %q", filepath.Ext(path))
	}
}

// Extract detects the format and extracts text in one call.
func Extract(ctx context.Context, path string, cfg *config.Config) (string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return "", err
	}
	p, err := NewProvider(format, cfg)
	if err != nil {
		return "", err
	}
	return p.ExtractText(ctx, path)
}
