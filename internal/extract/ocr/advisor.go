package ocr

import (
	"time"

	"github.com/doxkit/pdfextract/internal/extract/layout"
)

// PageAnalysis is the OCR readiness verdict for one page.
type PageAnalysis struct {
	PageIndex               int           `json:"page_index"`
	IsImageDominant         bool          `json:"is_image_dominant"`
	EstimatedConfidence     float64       `json:"estimated_confidence"`
	EstimatedProcessingCost time.Duration `json:"estimated_processing_cost"`
}

// ProcessingEstimate aggregates the cost of running OCR over a document.
type ProcessingEstimate struct {
	PagesToProcess       int           `json:"pages_to_process"`
	EstimatedTime        time.Duration `json:"estimated_time"`
	EstimatedMemoryBytes int64         `json:"estimated_memory_bytes"`
	RecommendedBatchSize int           `json:"recommended_batch_size"`
}

const (
	// glyphFloor is the character count below which a page counts as
	// having near-zero extractable text.
	glyphFloor = 16

	// perPageCost is the baseline OCR time for one page image.
	perPageCost = 2 * time.Second

	// perPageMemory approximates one rendered page at 300 DPI.
	perPageMemory int64 = 32 << 20
)

// Advisor flags image-dominant pages and estimates OCR benefit and cost.
type Advisor struct {
	threshold float64 // document-level image-dominant fraction
}

// NewAdvisor creates an advisor. A non-positive threshold falls back to
// the 0.2 default.
func NewAdvisor(threshold float64) *Advisor {
	if threshold <= 0 {
		threshold = 0.2
	}
	return &Advisor{threshold: threshold}
}

// Advise analyzes pages that produced little or no text. A page is
// image-dominant when it has near-zero glyphs but non-trivial raster
// content.
func (a *Advisor) Advise(pages []layout.Page) []PageAnalysis {
	analyses := make([]PageAnalysis, 0, len(pages))
	for _, p := range pages {
		pa := PageAnalysis{PageIndex: p.Index}
		if p.GlyphCount() <= glyphFloor && p.RasterCount > 0 {
			coverage := rasterCoverage(p)
			pa.IsImageDominant = true
			pa.EstimatedConfidence = 0.5 + 0.4*coverage
			pa.EstimatedProcessingCost = perPageCost + time.Duration(p.RasterCount-1)*500*time.Millisecond
		}
		analyses = append(analyses, pa)
	}
	return analyses
}

// Recommended reports whether document-level OCR is worthwhile: true when
// the image-dominant fraction of all pages exceeds the threshold.
func (a *Advisor) Recommended(analyses []PageAnalysis, totalPages int) bool {
	if totalPages == 0 {
		return false
	}
	dominant := 0
	for _, pa := range analyses {
		if pa.IsImageDominant {
			dominant++
		}
	}
	return float64(dominant)/float64(totalPages) > a.threshold
}

// Estimate totals the processing cost of the image-dominant pages.
func (a *Advisor) Estimate(analyses []PageAnalysis) ProcessingEstimate {
	est := ProcessingEstimate{RecommendedBatchSize: 1}
	for _, pa := range analyses {
		if !pa.IsImageDominant {
			continue
		}
		est.PagesToProcess++
		est.EstimatedTime += pa.EstimatedProcessingCost
	}
	est.EstimatedMemoryBytes = int64(est.PagesToProcess) * perPageMemory
	if est.PagesToProcess > 4 {
		est.RecommendedBatchSize = 4
	} else if est.PagesToProcess > 0 {
		est.RecommendedBatchSize = est.PagesToProcess
	}
	return est
}

// rasterCoverage is the fraction of the page area covered by raster
// regions, clamped to 1. Without region geometry, half coverage is
// assumed for a page known to carry rasters.
func rasterCoverage(p layout.Page) float64 {
	if p.Width <= 0 || p.Height <= 0 || len(p.RasterRegions) == 0 {
		return 0.5
	}
	var area float64
	for _, r := range p.RasterRegions {
		area += r.Width * r.Height
	}
	coverage := area / (p.Width * p.Height)
	if coverage > 1 {
		return 1
	}
	return coverage
}
