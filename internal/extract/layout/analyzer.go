package layout

import (
	"math"
	"regexp"
	"strings"
)

// BlockKind classifies a text block by its layout role on the page.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindListItem  BlockKind = "list_item"
	KindCaption   BlockKind = "caption"
)

// TextBlock is a classified, contiguous run of same-style text.
// Position and font metadata come straight from the glyph stream.
type TextBlock struct {
	Kind      BlockKind `json:"kind"`
	Text      string    `json:"text"`
	BBox      BBox      `json:"bbox"`
	Font      FontInfo  `json:"font"`
	PageIndex int       `json:"page_index"`
}

// AnalyzerConfig tunes the block classification heuristic.
type AnalyzerConfig struct {
	// HeadingScale is the minimum ratio of a heading's font size to the
	// page's body size.
	HeadingScale float64

	// CaptionMaxTokens is the upper token count for a line to qualify as
	// "short" in the caption rule.
	CaptionMaxTokens int

	// CaptionProximity is the maximum vertical distance in points between
	// a caption and the raster region it annotates.
	CaptionProximity float64
}

// DefaultAnalyzerConfig returns the standard heuristic parameters.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		HeadingScale:     1.3,
		CaptionMaxTokens: 10,
		CaptionProximity: 36.0,
	}
}

// Analyzer groups a page's lines into classified text blocks.
type Analyzer struct {
	cfg AnalyzerConfig
}

// NewAnalyzer creates an analyzer with the given configuration. Zero
// fields fall back to the defaults.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	def := DefaultAnalyzerConfig()
	if cfg.HeadingScale <= 0 {
		cfg.HeadingScale = def.HeadingScale
	}
	if cfg.CaptionMaxTokens <= 0 {
		cfg.CaptionMaxTokens = def.CaptionMaxTokens
	}
	if cfg.CaptionProximity <= 0 {
		cfg.CaptionProximity = def.CaptionProximity
	}
	return &Analyzer{cfg: cfg}
}

// listMarker matches bullet glyphs and "1." / "(2)" / "a)" style prefixes.
var listMarker = regexp.MustCompile(`^(?:[•◦▪‣·∙○●\-–*]|\(?\d{1,3}[.)]|\(?[a-zA-Z][.)])(?:\s|$)`)

// Analyze classifies the page's lines into blocks. Identical pages always
// yield an identical block sequence; ordering follows reading order.
func (a *Analyzer) Analyze(page Page) []TextBlock {
	if len(page.Lines) == 0 {
		return nil
	}

	body := bodyFontSize(page)
	runs := groupRuns(page.Lines)

	blocks := make([]TextBlock, 0, len(runs))
	for _, run := range runs {
		blocks = append(blocks, a.classify(page, run, body))
	}
	return blocks
}

// run is a group of contiguous lines sharing one style.
type run struct {
	lines []Line
	font  FontInfo
}

// groupRuns splits lines into contiguous same-style groups. A run breaks
// on a style change or a vertical gap wider than 1.8 line heights.
func groupRuns(lines []Line) []run {
	var runs []run
	cur := run{lines: lines[:1], font: lines[0].dominantFont()}
	for _, l := range lines[1:] {
		f := l.dominantFont()
		gap := cur.lines[len(cur.lines)-1].Baseline - l.Baseline
		if f.sameStyle(cur.font) && gap <= cur.font.Size*1.8 {
			cur.lines = append(cur.lines, l)
			continue
		}
		runs = append(runs, cur)
		cur = run{lines: []Line{l}, font: f}
	}
	return append(runs, cur)
}

func (a *Analyzer) classify(page Page, r run, body float64) TextBlock {
	block := TextBlock{
		Text:      runText(r),
		BBox:      runBBox(r),
		Font:      r.font,
		PageIndex: page.Index,
	}

	switch {
	case len(r.lines) == 1 && body > 0 && r.font.Size >= body*a.cfg.HeadingScale:
		block.Kind = KindHeading
	case isListRun(r):
		block.Kind = KindListItem
	case a.isCaption(page, r):
		block.Kind = KindCaption
	default:
		block.Kind = KindParagraph
	}
	return block
}

// isListRun reports whether every line of the run starts with a marker.
func isListRun(r run) bool {
	for _, l := range r.lines {
		if len(l.Tokens) == 0 || !listMarker.MatchString(l.Tokens[0].Text) {
			return false
		}
	}
	return true
}

// isCaption applies the short+italic+near-raster rule. When the page
// carries raster content but no region geometry, proximity cannot be
// measured and the presence of rasters alone satisfies adjacency.
func (a *Analyzer) isCaption(page Page, r run) bool {
	if !r.font.Italic || len(r.lines) > 2 {
		return false
	}
	tokens := 0
	for _, l := range r.lines {
		tokens += len(l.Tokens)
	}
	if tokens > a.cfg.CaptionMaxTokens {
		return false
	}
	if len(page.RasterRegions) == 0 {
		return page.RasterCount > 0
	}
	box := runBBox(r)
	for _, reg := range page.RasterRegions {
		if verticalDistance(box, reg) <= a.cfg.CaptionProximity {
			return true
		}
	}
	return false
}

func verticalDistance(a, b BBox) float64 {
	if a.Y > b.Y+b.Height {
		return a.Y - (b.Y + b.Height)
	}
	if b.Y > a.Y+a.Height {
		return b.Y - (a.Y + a.Height)
	}
	return 0
}

func runText(r run) string {
	parts := make([]string, 0, len(r.lines))
	for _, l := range r.lines {
		parts = append(parts, l.Text())
	}
	return strings.Join(parts, " ")
}

func runBBox(r run) BBox {
	box := r.lines[0].BBox()
	for _, l := range r.lines[1:] {
		box = box.Union(l.BBox())
	}
	return box
}

// bodyFontSize estimates the page's body text size as the modal dominant
// line size, rounded to half a point to absorb producer jitter.
func bodyFontSize(page Page) float64 {
	counts := map[float64]int{}
	for _, l := range page.Lines {
		size := math.Round(l.dominantFont().Size*2) / 2
		if size > 0 {
			counts[size]++
		}
	}
	var best float64
	bestN := 0
	for size, n := range counts {
		if n > bestN || (n == bestN && size < best) {
			best = size
			bestN = n
		}
	}
	return best
}
