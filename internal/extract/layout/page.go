// Package layout builds a deterministic, position-aware page model from raw
// glyph fragments and classifies it into typed text blocks.
package layout

import (
	"sort"
	"strings"
)

// BBox is an axis-aligned bounding box in page coordinate space
// (origin bottom-left, units are PDF points).
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Union returns the smallest box containing both boxes.
func (b BBox) Union(o BBox) BBox {
	if b.Width == 0 && b.Height == 0 {
		return o
	}
	if o.Width == 0 && o.Height == 0 {
		return b
	}
	x0 := min(b.X, o.X)
	y0 := min(b.Y, o.Y)
	x1 := max(b.X+b.Width, o.X+o.Width)
	y1 := max(b.Y+b.Height, o.Y+o.Height)
	return BBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Overlaps reports whether the two boxes intersect.
func (b BBox) Overlaps(o BBox) bool {
	return b.X < o.X+o.Width && o.X < b.X+b.Width &&
		b.Y < o.Y+o.Height && o.Y < b.Y+b.Height
}

// FontInfo describes the typeface of a token or block.
type FontInfo struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold"`
	Italic bool    `json:"italic"`
}

// sameStyle reports whether two fonts should be grouped into one run.
// Size comparison is fuzzy because PDF producers emit tiny variations.
func (f FontInfo) sameStyle(o FontInfo) bool {
	return f.Family == o.Family &&
		f.Bold == o.Bold &&
		f.Italic == o.Italic &&
		abs(f.Size-o.Size) < 0.5
}

// Glyph is a single positioned text fragment as read from the content
// stream. Position and font metadata are carried through verbatim.
type Glyph struct {
	Text     string
	X        float64
	Y        float64
	W        float64
	Font     string
	FontSize float64
}

// Token is a horizontal run of touching glyphs on one line.
type Token struct {
	Text string   `json:"text"`
	X    float64  `json:"x"`
	W    float64  `json:"w"`
	Font FontInfo `json:"font"`
}

// End returns the right edge of the token.
func (t Token) End() float64 {
	return t.X + t.W
}

// Line is an ordered sequence of tokens sharing one baseline.
type Line struct {
	Baseline float64 `json:"baseline"`
	Tokens   []Token `json:"tokens"`
}

// Text joins the line's tokens with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Tokens))
	for _, t := range l.Tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

// BBox returns the bounding box of the line.
func (l Line) BBox() BBox {
	if len(l.Tokens) == 0 {
		return BBox{}
	}
	first := l.Tokens[0]
	x0 := first.X
	x1 := first.End()
	size := first.Font.Size
	for _, t := range l.Tokens[1:] {
		if t.X < x0 {
			x0 = t.X
		}
		if t.End() > x1 {
			x1 = t.End()
		}
		if t.Font.Size > size {
			size = t.Font.Size
		}
	}
	return BBox{X: x0, Y: l.Baseline, Width: x1 - x0, Height: size}
}

// dominantFont returns the font of the widest token on the line.
func (l Line) dominantFont() FontInfo {
	var best FontInfo
	var bestW float64
	for _, t := range l.Tokens {
		if t.W >= bestW {
			bestW = t.W
			best = t.Font
		}
	}
	return best
}

// Page is the analyzed model of a single document page. Lines are in
// reading order: top-to-bottom, left-to-right by baseline.
type Page struct {
	Index         int     `json:"index"` // 0-based
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Lines         []Line  `json:"lines"`
	RasterCount   int     `json:"raster_count"`
	RasterRegions []BBox  `json:"raster_regions,omitempty"`
}

// GlyphCount returns the number of text characters on the page.
func (p Page) GlyphCount() int {
	n := 0
	for _, l := range p.Lines {
		for _, t := range l.Tokens {
			n += len(t.Text)
		}
	}
	return n
}

// Text returns the page's plain text, one line per layout line.
func (p Page) Text() string {
	parts := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		parts = append(parts, l.Text())
	}
	return strings.Join(parts, "\n")
}

const (
	// baselineTolerance groups glyphs whose baselines differ by at most
	// this many points onto one line.
	baselineTolerance = 2.0

	// tokenGap is the maximum horizontal gap between glyphs merged into
	// one token. Wider gaps start a new token.
	tokenGap = 1.5
)

// BuildPage assembles glyph fragments into an ordered page model.
// Identical input always yields an identical page: ordering is fully
// determined by position with text as the final tie-break.
func BuildPage(index int, width, height float64, glyphs []Glyph) Page {
	page := Page{Index: index, Width: width, Height: height}
	if len(glyphs) == 0 {
		return page
	}

	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if abs(sorted[i].Y-sorted[j].Y) > baselineTolerance {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Text < sorted[j].Text
	})

	var lines []Line
	current := []Glyph{sorted[0]}
	for _, g := range sorted[1:] {
		if abs(g.Y-current[0].Y) <= baselineTolerance {
			current = append(current, g)
			continue
		}
		lines = append(lines, buildLine(current))
		current = []Glyph{g}
	}
	lines = append(lines, buildLine(current))

	page.Lines = lines
	return page
}

// buildLine merges adjacent glyphs into tokens.
func buildLine(glyphs []Glyph) Line {
	line := Line{Baseline: glyphs[0].Y}
	tok := tokenFromGlyph(glyphs[0])
	for _, g := range glyphs[1:] {
		gap := g.X - (tok.X + tok.W)
		if gap <= tokenGap && parseFont(g.Font, g.FontSize).sameStyle(tok.Font) {
			tok.Text += g.Text
			tok.W = g.X + g.W - tok.X
			continue
		}
		line.Tokens = append(line.Tokens, tok)
		tok = tokenFromGlyph(g)
	}
	line.Tokens = append(line.Tokens, tok)
	return Line{Baseline: line.Baseline, Tokens: line.Tokens}
}

func tokenFromGlyph(g Glyph) Token {
	return Token{Text: g.Text, X: g.X, W: g.W, Font: parseFont(g.Font, g.FontSize)}
}

// parseFont derives style flags from a PDF base font name, e.g.
// "ABCDEF+Helvetica-BoldOblique" is bold and italic.
func parseFont(name string, size float64) FontInfo {
	family := name
	if i := strings.IndexByte(family, '+'); i >= 0 && i+1 < len(family) {
		family = family[i+1:] // strip subset prefix
	}
	lower := strings.ToLower(family)
	return FontInfo{
		Family: family,
		Size:   size,
		Bold:   strings.Contains(lower, "bold") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy"),
		Italic: strings.Contains(lower, "italic") || strings.Contains(lower, "oblique"),
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
