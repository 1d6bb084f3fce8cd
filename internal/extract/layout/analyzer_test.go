package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textLine builds a single-token line for classification tests.
func textLine(y float64, text, font string, size float64) Line {
	return Line{Baseline: y, Tokens: []Token{{
		Text: text,
		X:    72,
		W:    float64(len(text)) * size * 0.5,
		Font: parseFont(font, size),
	}}}
}

func TestAnalyzeClassifiesHeading(t *testing.T) {
	page := Page{Index: 0, Width: 612, Height: 792, Lines: []Line{
		textLine(720, "Quarterly Report", "Helvetica-Bold", 18),
		textLine(690, "Revenue grew steadily across all regions during the", "Helvetica", 11),
		textLine(676, "first quarter despite unfavorable currency effects.", "Helvetica", 11),
	}}

	blocks := NewAnalyzer(AnalyzerConfig{}).Analyze(page)

	require.Len(t, blocks, 2)
	assert.Equal(t, KindHeading, blocks[0].Kind)
	assert.Equal(t, "Quarterly Report", blocks[0].Text)
	assert.Equal(t, KindParagraph, blocks[1].Kind)
	assert.Equal(t, 18.0, blocks[0].Font.Size)
	assert.True(t, blocks[0].Font.Bold)
}

func TestAnalyzeBodySizedLineIsNotHeading(t *testing.T) {
	// Isolated but same size as body text: stays a paragraph.
	page := Page{Index: 0, Lines: []Line{
		textLine(720, "Short intro line.", "Helvetica", 11),
		textLine(680, "Body body body body body body body body.", "Times-Roman", 11),
	}}

	blocks := NewAnalyzer(AnalyzerConfig{}).Analyze(page)
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, KindParagraph, b.Kind)
	}
}

func TestAnalyzeClassifiesListItems(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"bullet", "•"},
		{"dash", "-"},
		{"numbered", "1."},
		{"parenthesized", "(2)"},
		{"lettered", "a)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Page{Lines: []Line{{Baseline: 700, Tokens: []Token{
				{Text: tt.marker, X: 72, W: 6, Font: parseFont("Helvetica", 11)},
				{Text: "first point", X: 84, W: 55, Font: parseFont("Helvetica", 11)},
			}}}}

			blocks := NewAnalyzer(AnalyzerConfig{}).Analyze(page)
			require.Len(t, blocks, 1)
			assert.Equal(t, KindListItem, blocks[0].Kind)
		})
	}
}

func TestAnalyzeClassifiesCaptionNearRaster(t *testing.T) {
	page := Page{
		Index:       1,
		RasterCount: 1,
		RasterRegions: []BBox{
			{X: 100, Y: 420, Width: 300, Height: 200},
		},
		Lines: []Line{
			textLine(700, "The experiment used a split-plot design with four", "Helvetica", 11),
			textLine(686, "replicates per treatment and a shared control group.", "Helvetica", 11),
			textLine(400, "Figure 1: apparatus overview", "Helvetica-Oblique", 9),
		},
	}

	blocks := NewAnalyzer(AnalyzerConfig{}).Analyze(page)

	require.Len(t, blocks, 2)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
	assert.Equal(t, KindCaption, blocks[1].Kind)
	assert.Equal(t, 1, blocks[1].PageIndex)
}

func TestAnalyzeItalicFarFromRasterIsParagraph(t *testing.T) {
	page := Page{
		RasterCount:   1,
		RasterRegions: []BBox{{X: 100, Y: 100, Width: 200, Height: 100}},
		Lines: []Line{
			textLine(700, "emphasis only", "Helvetica-Oblique", 11),
			textLine(686, "plain body text follows the emphasized fragment here", "Helvetica", 11),
		},
	}

	blocks := NewAnalyzer(AnalyzerConfig{}).Analyze(page)
	require.NotEmpty(t, blocks)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
}

func TestAnalyzeGroupsSameStyleRuns(t *testing.T) {
	page := Page{Lines: []Line{
		textLine(700, "first line of the paragraph flows into", "Helvetica", 11),
		textLine(686, "the second line without a style change", "Helvetica", 11),
		textLine(672, "and a third line keeps the run going.", "Helvetica", 11),
	}}

	blocks := NewAnalyzer(AnalyzerConfig{}).Analyze(page)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Text, "first line")
	assert.Contains(t, blocks[0].Text, "run going")
}

func TestAnalyzeBreaksRunOnWideGap(t *testing.T) {
	page := Page{Lines: []Line{
		textLine(700, "paragraph one sits at the top of the page area", "Helvetica", 11),
		textLine(500, "paragraph two sits much further down the page", "Helvetica", 11),
	}}

	blocks := NewAnalyzer(AnalyzerConfig{}).Analyze(page)
	assert.Len(t, blocks, 2)
}

func TestAnalyzeDeterministic(t *testing.T) {
	page := Page{Lines: []Line{
		textLine(720, "Title", "Helvetica-Bold", 16),
		textLine(690, "body text body text body text body text body", "Helvetica", 11),
		textLine(676, "more body text follows on the very next line", "Helvetica", 11),
	}}

	a := NewAnalyzer(AnalyzerConfig{})
	assert.Equal(t, a.Analyze(page), a.Analyze(page))
}

func TestAnalyzeEmptyPage(t *testing.T) {
	assert.Nil(t, NewAnalyzer(AnalyzerConfig{}).Analyze(Page{}))
}
