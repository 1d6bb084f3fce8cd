// Command pdfextract extracts text, layout blocks and tables from PDF
// and OOXML documents, writing one JSON report per input to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/doxkit/pdfextract/internal/config"
	"github.com/doxkit/pdfextract/internal/document"
	"github.com/doxkit/pdfextract/internal/extract"
	"github.com/doxkit/pdfextract/internal/extract/batch"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
)

// report is the per-document JSON output shape.
type report struct {
	Path     string                  `json:"path"`
	Format   document.Format         `json:"format"`
	Text     string                  `json:"text,omitempty"`
	Advanced *extract.AdvancedResult `json:"advanced,omitempty"`
	Metadata *extract.Metadata       `json:"metadata,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

func main() {
	showVersion := pflag.Bool("version", false, "Print version and exit")
	advanced := pflag.Bool("advanced", false, "Emit layout blocks, tables and OCR advice for PDFs")
	withMetadata := pflag.Bool("metadata", false, "Include document metadata for PDFs")

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if *showVersion {
		fmt.Printf("pdfextract %s (built %s)\n", version, buildTime)
		return
	}

	setupLogging(cfg)

	paths := pflag.Args()
	if len(paths) == 0 {
		log.Fatal("Usage: pdfextract [flags] <file>...")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var failed bool
	if len(paths) > 1 && !*advanced && !*withMetadata {
		failed = runBatch(ctx, cfg, paths, enc)
	} else {
		for _, path := range paths {
			r := runOne(ctx, cfg, path, *advanced, *withMetadata)
			if r.Error != "" {
				failed = true
			}
			if err := enc.Encode(r); err != nil {
				log.Fatalf("Encoding output: %v", err)
			}
		}
	}
	if failed {
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Printf("Starting with %s", cfg)
	}
}

// runBatch pushes plain-text extraction through the bounded worker pool.
func runBatch(ctx context.Context, cfg *config.Config, paths []string, enc *json.Encoder) bool {
	pool := batch.NewPool(cfg)
	failed := false
	for _, res := range pool.Process(ctx, paths) {
		r := report{Path: res.Path, Format: document.FormatPDF, Text: res.Text, Error: res.Error}
		if res.Error != "" {
			failed = true
		}
		if err := enc.Encode(r); err != nil {
			log.Fatalf("Encoding output: %v", err)
		}
	}
	return failed
}

// runOne processes a single document, honoring the per-document timeout.
func runOne(ctx context.Context, cfg *config.Config, path string, advanced, withMetadata bool) report {
	ctx, cancel := context.WithTimeout(ctx, cfg.DocumentTimeout)
	defer cancel()

	format, err := document.DetectFormat(path)
	if err != nil {
		return report{Path: path, Error: err.Error()}
	}
	r := report{Path: path, Format: format}

	if format != document.FormatPDF {
		text, err := document.Extract(ctx, path, cfg)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		r.Text = text
		return r
	}

	h, err := extract.Open(path, cfg)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	defer h.Close()

	if h.CheckEncryption().IsEncrypted {
		if _, err := h.TryCommonPasswords(nil); err != nil {
			r.Error = err.Error()
			if withMetadata {
				r.Metadata, _ = h.Metadata()
			}
			return r
		}
	}

	if advanced {
		res, err := h.GetAdvancedText(ctx)
		if err != nil {
			r.Error = err.Error()
		}
		r.Advanced = res
	} else {
		text, err := h.GetText(ctx)
		if err != nil {
			r.Error = err.Error()
		}
		r.Text = text
	}
	if withMetadata {
		if m, err := h.Metadata(); err == nil {
			r.Metadata = m
		}
	}
	return r
}
