package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/doxkit/pdfextract/internal/extract/layout"
)

// Default MediaBox for pages that carry none, in points (US Letter).
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// readerPageSource adapts a ledongthuc reader to the streaming PageSource
// interface. ledongthuc panics on malformed content streams, so every
// page load is fenced and surfaced as a CorruptedStream error instead.
type readerPageSource struct {
	reader *pdf.Reader
	count  int
}

func newReaderPageSource(r *pdf.Reader) *readerPageSource {
	return &readerPageSource{reader: r, count: r.NumPage()}
}

func (s *readerPageSource) PageCount() int {
	return s.count
}

// Page loads one 0-based page and builds the layout model from its
// positioned text fragments.
func (s *readerPageSource) Page(index int) (page layout.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PageError(CodeCorruptedStream, index, fmt.Errorf("content stream: %v", r))
		}
	}()

	p := s.reader.Page(index + 1)
	if p.V.IsNull() {
		return layout.Page{}, PageError(CodeCorruptedStream, index, fmt.Errorf("page object missing"))
	}

	width, height := pageSize(p)

	content := p.Content()
	glyphs := make([]layout.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, layout.Glyph{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			Font:     t.Font,
			FontSize: t.FontSize,
		})
	}

	page = layout.BuildPage(index, width, height, glyphs)
	page.RasterCount = countRasters(p)
	return page, nil
}

// pageSize resolves the MediaBox, walking Parent links for inherited
// values, falling back to US Letter.
func pageSize(p pdf.Page) (width, height float64) {
	box := p.V.Key("MediaBox")
	for parent := p.V.Key("Parent"); box.IsNull() && !parent.IsNull(); parent = parent.Key("Parent") {
		box = parent.Key("MediaBox")
	}
	if box.IsNull() || box.Len() != 4 {
		return defaultPageWidth, defaultPageHeight
	}
	width = box.Index(2).Float64() - box.Index(0).Float64()
	height = box.Index(3).Float64() - box.Index(1).Float64()
	if width <= 0 || height <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return width, height
}

// countRasters counts image XObjects in the page's resource dictionary.
// Placement geometry lives in the content stream and is not tracked here.
func countRasters(p pdf.Page) int {
	xobjects := p.Resources().Key("XObject")
	if xobjects.IsNull() {
		return 0
	}
	count := 0
	for _, name := range xobjects.Keys() {
		if xobjects.Key(name).Key("Subtype").Name() == "Image" {
			count++
		}
	}
	return count
}
