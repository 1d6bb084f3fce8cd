package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/doxkit/pdfextract/internal/extract/layout"
	"github.com/doxkit/pdfextract/internal/extract/ocr"
	"github.com/doxkit/pdfextract/internal/extract/streaming"
	"github.com/doxkit/pdfextract/internal/extract/tables"
)

// OCRAdvisory is the OCR readiness verdict for a whole document.
type OCRAdvisory struct {
	Recommended bool                   `json:"recommended"`
	Pages       []ocr.PageAnalysis     `json:"pages,omitempty"`
	Estimate    ocr.ProcessingEstimate `json:"estimate"`
}

// AdvancedResult carries everything one extraction run produced.
type AdvancedResult struct {
	Text     string               `json:"text"`
	Blocks   []layout.TextBlock   `json:"blocks,omitempty"`
	Tables   []tables.TableRegion `json:"tables,omitempty"`
	OCR      OCRAdvisory          `json:"ocr"`
	Warnings []string             `json:"warnings,omitempty"`
	Stats    ExtractionStats      `json:"stats"`
}

// extractionResult is the cached outcome of the single pipeline run.
type extractionResult struct {
	pageTexts []string
	blocks    []layout.TextBlock
	tables    []tables.TableRegion
	advisory  OCRAdvisory
	warnings  []string
	stats     ExtractionStats
	failure   *ExtractError
}

func (r *extractionResult) text() string {
	return strings.Join(r.pageTexts, "\n\n")
}

func (r *extractionResult) err() error {
	if r.failure != nil {
		return r.failure
	}
	return nil
}

// GetText extracts plain text in page order. On partial failure the text
// gathered so far is returned alongside the error.
func (h *DocumentHandle) GetText(ctx context.Context) (string, error) {
	res, err := h.run(ctx)
	if res == nil {
		return "", err
	}
	return res.text(), err
}

// GetAdvancedText extracts text with layout classification, detected
// tables, the OCR advisory and run statistics.
func (h *DocumentHandle) GetAdvancedText(ctx context.Context) (*AdvancedResult, error) {
	res, err := h.run(ctx)
	if res == nil {
		return nil, err
	}
	return &AdvancedResult{
		Text:     res.text(),
		Blocks:   res.blocks,
		Tables:   res.tables,
		OCR:      res.advisory,
		Warnings: res.warnings,
		Stats:    res.stats,
	}, err
}

// ExtractTables returns the detected table regions.
func (h *DocumentHandle) ExtractTables(ctx context.Context) ([]tables.TableRegion, error) {
	res, err := h.run(ctx)
	if res == nil {
		return nil, err
	}
	return res.tables, err
}

// GetExtractionStats returns the statistics of the completed run, or a
// zero-valued summary when extraction has not happened yet.
func (h *DocumentHandle) GetExtractionStats() ExtractionStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result != nil {
		return h.result.stats
	}
	return ExtractionStats{TotalPages: h.pageCount, StreamingUsed: h.mode.Streaming}
}

// RecognizeImage runs the injected OCR engine over one page image.
func (h *DocumentHandle) RecognizeImage(ctx context.Context, image []byte) (ocr.Result, error) {
	h.mu.Lock()
	engine := h.engine
	h.mu.Unlock()

	res, err := engine.Recognize(ctx, image)
	if errors.Is(err, ocr.ErrUnavailable) {
		return res, WrapError(CodeOcrUnavailable, err)
	}
	return res, err
}

// run executes the extraction pipeline once and caches the outcome.
// Later calls replay the cached result, errors included.
func (h *DocumentHandle) run(ctx context.Context) (*extractionResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.result != nil {
		return h.result, h.result.err()
	}

	switch h.state {
	case StateAuthFailed:
		return nil, NewError(CodeEncryptedUnauthorized)
	case StateOpened:
		return nil, NewError(CodeEncryptedUnauthorized)
	case StateModeSelected:
	default:
		return nil, NewError(CodeUnknown)
	}

	h.state = StateExtracting
	res := h.extract(ctx)
	h.result = res
	if res.failure != nil {
		h.state = StatePartiallyFailed
		h.logger.Printf("extraction of %s partially failed: %v", h.name(), res.failure)
	} else {
		h.state = StateCompleted
	}
	return res, res.err()
}

func (h *DocumentHandle) extract(ctx context.Context) *extractionResult {
	start := time.Now()
	res := &extractionResult{
		stats: ExtractionStats{
			TotalPages:    h.pageCount,
			StreamingUsed: h.mode.Streaming,
		},
	}
	if h.mode.Streaming {
		res.stats.ChunkSizeBytes = h.mode.ChunkSize
	}

	analyzer := layout.NewAnalyzer(layout.DefaultAnalyzerConfig())
	tableCfg := tables.DefaultConfig()
	tableCfg.MinConfidence = h.cfg.TableMinConfidence
	detector := tables.NewDetector(tableCfg)
	advisor := ocr.NewAdvisor(h.cfg.OCRImagePageThreshold)

	src := h.src

	var analyses []ocr.PageAnalysis
	processPage := func(page layout.Page) {
		res.stats.PagesProcessed++
		res.pageTexts = append(res.pageTexts, page.Text())
		if h.cfg.LayoutPreservation {
			blocks := analyzer.Analyze(page)
			res.blocks = append(res.blocks, blocks...)
			res.stats.BlocksFound += len(blocks)
		}
		if h.cfg.TableDetection {
			regions := detector.Detect(page)
			res.tables = append(res.tables, regions...)
			res.stats.TablesFound += len(regions)
		}
		analyses = append(analyses, advisor.Advise([]layout.Page{page})...)
	}
	skipPage := func(index int, err error) {
		res.stats.PagesFailed++
		w := fmt.Sprintf("page %d skipped: %v", index+1, err)
		res.warnings = append(res.warnings, w)
		h.logger.Printf("%s: %s", h.name(), w)
	}

	if h.mode.Streaming {
		h.extractStreaming(ctx, src, res, processPage, skipPage)
	} else {
		h.extractDirect(ctx, src, res, processPage, skipPage)
	}

	if res.failure == nil && res.stats.PagesFailed > 0 {
		res.failure = NewError(CodeCorruptedStream)
	}

	res.advisory = OCRAdvisory{
		Recommended: advisor.Recommended(analyses, h.pageCount),
		Pages:       analyses,
		Estimate:    advisor.Estimate(analyses),
	}
	res.stats.PeakMemoryBytes = h.budget.Peak()
	res.stats.Elapsed = time.Since(start)
	res.stats.Warnings = res.warnings
	if res.failure != nil {
		res.stats.FailureReason = res.failure.Code.String()
	}
	return res
}

// extractDirect loads every page while the whole document stays resident.
func (h *DocumentHandle) extractDirect(ctx context.Context, src streaming.PageSource,
	res *extractionResult, process func(layout.Page), skip func(int, error)) {

	if !h.budget.Acquire(h.size) {
		res.failure = NewError(CodeMemoryLimitExceeded)
		return
	}
	defer h.budget.Release(h.size)

	for i := 0; i < src.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			res.failure = WrapError(CodeUnknown, err)
			return
		}
		page, err := src.Page(i)
		if err != nil {
			skip(i, err)
			continue
		}
		process(page)
	}
}

// extractStreaming walks page batches, charging each batch against the
// memory budget before it is loaded and releasing it afterwards.
func (h *DocumentHandle) extractStreaming(ctx context.Context, src streaming.PageSource,
	res *extractionResult, process func(layout.Page), skip func(int, error)) {

	iter := streaming.NewController(h.size).Stream(ctx, src, h.mode.ChunkSize)
	for {
		batch, err := iter.Next()
		if err != nil && errors.Is(err, io.EOF) {
			return
		}

		if !h.budget.Acquire(batch.EstimatedBytes) {
			h.budget.Release(batch.EstimatedBytes)
			res.failure = NewError(CodeMemoryLimitExceeded)
			return
		}
		for _, page := range batch.Pages {
			process(page)
		}
		h.budget.Release(batch.EstimatedBytes)

		if err != nil {
			if CodeOf(err) == CodeCorruptedStream {
				// The iterator already advanced past the failing page.
				skip(batch.Start+len(batch.Pages), err)
				continue
			}
			res.failure = WrapError(CodeUnknown, err)
			return
		}
	}
}
