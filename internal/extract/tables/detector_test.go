package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doxkit/pdfextract/internal/extract/layout"
)

// row builds a line with one token per (x, text) pair.
func row(y float64, cells ...any) layout.Line {
	l := layout.Line{Baseline: y}
	for i := 0; i < len(cells); i += 2 {
		x := cells[i].(float64)
		text := cells[i+1].(string)
		l.Tokens = append(l.Tokens, layout.Token{
			Text: text,
			X:    x,
			W:    float64(len(text)) * 5,
			Font: layout.FontInfo{Family: "Helvetica", Size: 10},
		})
	}
	return l
}

func TestDetectPerfectlyAlignedTable(t *testing.T) {
	page := layout.Page{Index: 1, Lines: []layout.Line{
		row(700, 72.0, "Region", 200.0, "Q1", 330.0, "Q2"),
		row(686, 72.0, "North", 200.0, "120", 330.0, "140"),
		row(672, 72.0, "South", 200.0, "95", 330.0, "110"),
		row(658, 72.0, "West", 200.0, "87", 330.0, "93"),
	}}

	regions := NewDetector(Config{}).Detect(page)

	require.Len(t, regions, 1)
	r := regions[0]
	assert.Equal(t, 1.0, r.Confidence)
	assert.Equal(t, 1, r.PageIndex)
	require.Len(t, r.Rows, 4)
	assert.Equal(t, []string{"Region", "Q1", "Q2"}, r.Rows[0])
	assert.Equal(t, []string{"South", "95", "110"}, r.Rows[2])
}

func TestDetectToleratesSmallDrift(t *testing.T) {
	// Starts within ±2pt of the column boundary still align.
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "a", 200.0, "b"),
		row(686, 73.5, "c", 198.5, "d"),
		row(672, 71.0, "e", 201.0, "f"),
	}}

	regions := NewDetector(Config{}).Detect(page)
	require.Len(t, regions, 1)
	assert.Equal(t, 1.0, regions[0].Confidence)
}

func TestDetectRejectsSingleColumn(t *testing.T) {
	// Second tokens scatter, so only one consistent column exists.
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "item", 150.0, "one"),
		row(686, 72.0, "item", 260.0, "two"),
		row(672, 72.0, "item", 380.0, "three"),
		row(658, 72.0, "item", 490.0, "four"),
	}}

	assert.Empty(t, NewDetector(Config{}).Detect(page))
}

func TestDetectRejectsShortRuns(t *testing.T) {
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "a", 200.0, "b"),
		row(686, 72.0, "c", 200.0, "d"),
	}}

	assert.Empty(t, NewDetector(Config{}).Detect(page))
}

func TestDetectConfidenceCountsFullMatches(t *testing.T) {
	// Three rows align on both columns, one row only on the first.
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "a", 200.0, "b"),
		row(686, 72.0, "c", 200.0, "d"),
		row(672, 72.0, "e", 200.0, "f"),
		row(658, 72.0, "g", 450.0, "h"),
	}}

	regions := NewDetector(Config{}).Detect(page)

	require.Len(t, regions, 1)
	assert.InDelta(t, 0.75, regions[0].Confidence, 1e-9)
	// The misaligned row matches fewer than 2 columns and is excluded.
	assert.Len(t, regions[0].Rows, 3)
}

func TestDetectDiscardsInconsistentRegions(t *testing.T) {
	// No row aligns with every inferred column: confidence 0.
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "a", 200.0, "b"),
		row(686, 72.0, "c", 200.0, "d"),
		row(672, 72.0, "e", 300.0, "f"),
		row(658, 72.0, "g", 300.0, "h"),
		row(644, 72.0, "i", 400.0, "j"),
	}}

	assert.Empty(t, NewDetector(Config{}).Detect(page))
}

func TestDetectPadsMissingCells(t *testing.T) {
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "name", 200.0, "qty", 330.0, "price"),
		row(686, 72.0, "bolt", 200.0, "12", 330.0, "0.40"),
		row(672, 72.0, "nut", 330.0, "0.15"),
		row(658, 72.0, "washer", 200.0, "80", 330.0, "0.05"),
	}}

	regions := NewDetector(Config{}).Detect(page)

	require.Len(t, regions, 1)
	for _, r := range regions[0].Rows {
		assert.Len(t, r, 3)
	}
	assert.Equal(t, []string{"nut", "", "0.15"}, regions[0].Rows[2])
}

func TestDetectSplitsOnNonTabularLines(t *testing.T) {
	// A single-token paragraph line breaks the run into two candidates.
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "a", 200.0, "b"),
		row(686, 72.0, "c", 200.0, "d"),
		row(672, 72.0, "e", 200.0, "f"),
		row(658, 72.0, "interrupting paragraph text"),
		row(644, 300.0, "x", 450.0, "y"),
		row(630, 300.0, "z", 450.0, "w"),
		row(616, 300.0, "u", 450.0, "v"),
	}}

	regions := NewDetector(Config{}).Detect(page)
	require.Len(t, regions, 2)
	assert.Less(t, regions[1].BBox.Y, regions[0].BBox.Y)
}

func TestDetectIdempotent(t *testing.T) {
	page := layout.Page{Lines: []layout.Line{
		row(700, 72.0, "a", 200.0, "b"),
		row(686, 72.0, "c", 200.0, "d"),
		row(672, 72.0, "e", 200.0, "f"),
	}}

	d := NewDetector(Config{})
	assert.Equal(t, d.Detect(page), d.Detect(page))
}

func TestRowsText(t *testing.T) {
	r := TableRegion{Rows: [][]string{{"a", "b"}, {"c", "d"}}}
	assert.Equal(t, "a\tb\nc\td", r.RowsText())
}
