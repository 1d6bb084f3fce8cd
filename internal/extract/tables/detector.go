// Package tables finds tabular regions by whitespace-gap analysis over the
// layout page model. No drawn grid lines are required: columns are inferred
// from consistently aligned token start positions.
package tables

import (
	"sort"
	"strings"

	"github.com/doxkit/pdfextract/internal/extract/layout"
)

// TableRegion is one detected table. Rows are rectangular: every row is
// padded with empty cells to the table's column count.
type TableRegion struct {
	BBox       layout.BBox `json:"bbox"`
	Rows       [][]string  `json:"rows"`
	Confidence float64     `json:"confidence"`
	PageIndex  int         `json:"page_index"`
}

// Config holds detector parameters.
type Config struct {
	// MinRows is the minimum number of aligned lines for a candidate.
	MinRows int

	// MinColumns is the minimum inferred column count. Single-column
	// layouts are lists, never tables.
	MinColumns int

	// MinConfidence discards regions whose alignment consistency falls
	// below it.
	MinConfidence float64

	// AlignmentTolerance is the allowed drift in points between a token
	// start and its column boundary.
	AlignmentTolerance float64

	// MergeAgreement is the column-boundary agreement fraction at which
	// overlapping candidates merge into one region.
	MergeAgreement float64
}

// DefaultConfig returns the standard detection parameters.
func DefaultConfig() Config {
	return Config{
		MinRows:            3,
		MinColumns:         2,
		MinConfidence:      0.4,
		AlignmentTolerance: 2.0,
		MergeAgreement:     0.5,
	}
}

// Detector scans pages for whitespace-aligned tabular regions.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector. Zero config fields fall back to defaults.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.MinRows <= 0 {
		cfg.MinRows = def.MinRows
	}
	if cfg.MinColumns <= 0 {
		cfg.MinColumns = def.MinColumns
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if cfg.AlignmentTolerance <= 0 {
		cfg.AlignmentTolerance = def.AlignmentTolerance
	}
	if cfg.MergeAgreement <= 0 {
		cfg.MergeAgreement = def.MergeAgreement
	}
	return &Detector{cfg: cfg}
}

// Detect returns the page's table regions in reading order. Results are a
// pure function of the page: calling twice yields identical sequences.
func (d *Detector) Detect(page layout.Page) []TableRegion {
	var regions []TableRegion
	for _, cand := range candidateRuns(page.Lines, d.cfg.MinRows) {
		if region, ok := d.evaluate(page.Index, cand); ok {
			regions = append(regions, region)
		}
	}
	return d.mergeOverlapping(regions)
}

// candidateRuns returns maximal runs of consecutive multi-token lines.
func candidateRuns(lines []layout.Line, minRows int) [][]layout.Line {
	var runs [][]layout.Line
	var cur []layout.Line
	flush := func() {
		if len(cur) >= minRows {
			runs = append(runs, cur)
		}
		cur = nil
	}
	for _, l := range lines {
		if len(l.Tokens) >= 2 {
			cur = append(cur, l)
			continue
		}
		flush()
	}
	flush()
	return runs
}

// evaluate infers columns for a candidate run and scores its consistency.
func (d *Detector) evaluate(pageIndex int, lines []layout.Line) (TableRegion, bool) {
	columns := d.inferColumns(lines)
	if len(columns) < d.cfg.MinColumns {
		return TableRegion{}, false
	}

	var accepted []layout.Line
	fullMatches := 0
	for _, l := range lines {
		matches := d.columnMatches(l, columns)
		if matches >= 2 {
			accepted = append(accepted, l)
		}
		if matches == len(columns) {
			fullMatches++
		}
	}
	if len(accepted) < d.cfg.MinRows {
		return TableRegion{}, false
	}

	confidence := float64(fullMatches) / float64(len(lines))
	if confidence < d.cfg.MinConfidence {
		return TableRegion{}, false
	}

	region := TableRegion{
		Confidence: confidence,
		PageIndex:  pageIndex,
		Rows:       make([][]string, 0, len(accepted)),
	}
	box := accepted[0].BBox()
	for _, l := range accepted {
		region.Rows = append(region.Rows, splitRow(l, columns))
		box = box.Union(l.BBox())
	}
	region.BBox = box
	return region, true
}

// inferColumns clusters token start positions across the run. A cluster
// becomes a column boundary when at least two distinct lines support it.
func (d *Detector) inferColumns(lines []layout.Line) []float64 {
	type start struct {
		x    float64
		line int
	}
	var starts []start
	for i, l := range lines {
		for _, t := range l.Tokens {
			starts = append(starts, start{x: t.X, line: i})
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].x < starts[j].x })

	var columns []float64
	i := 0
	for i < len(starts) {
		j := i
		sum := 0.0
		support := map[int]bool{}
		for j < len(starts) && starts[j].x-starts[i].x <= d.cfg.AlignmentTolerance {
			sum += starts[j].x
			support[starts[j].line] = true
			j++
		}
		if len(support) >= 2 {
			columns = append(columns, sum/float64(j-i))
		}
		i = j
	}
	return columns
}

// columnMatches counts columns that have a token starting within tolerance.
func (d *Detector) columnMatches(l layout.Line, columns []float64) int {
	n := 0
	for _, col := range columns {
		for _, t := range l.Tokens {
			if abs(t.X-col) <= d.cfg.AlignmentTolerance {
				n++
				break
			}
		}
	}
	return n
}

// splitRow assigns each token to the nearest column at or left of its
// start, producing one padded cell slice.
func splitRow(l layout.Line, columns []float64) []string {
	cells := make([]string, len(columns))
	for _, t := range l.Tokens {
		idx := 0
		for i, col := range columns {
			if t.X >= col-2.0 {
				idx = i
			}
		}
		if cells[idx] == "" {
			cells[idx] = t.Text
		} else {
			cells[idx] += " " + t.Text
		}
	}
	return cells
}

// mergeOverlapping unions regions whose bounding boxes intersect and whose
// column boundaries agree on at least the configured fraction.
func (d *Detector) mergeOverlapping(regions []TableRegion) []TableRegion {
	if len(regions) < 2 {
		return regions
	}
	merged := []TableRegion{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if last.BBox.Overlaps(r.BBox) && d.columnAgreement(*last, r) >= d.cfg.MergeAgreement {
			*last = mergeRegions(*last, r)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// columnAgreement compares inferred column starts via each region's first
// full-width row. Agreement is measured over the narrower region.
func (d *Detector) columnAgreement(a, b TableRegion) float64 {
	ca, cb := columnStarts(a), columnStarts(b)
	if len(ca) > len(cb) {
		ca, cb = cb, ca
	}
	if len(ca) == 0 {
		return 0
	}
	matched := 0
	for _, x := range ca {
		for _, y := range cb {
			if abs(x-y) <= d.cfg.AlignmentTolerance {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(ca))
}

// columnStarts approximates a region's column boundaries from its bbox and
// column count, assuming even spacing. Used only for merge agreement.
func columnStarts(r TableRegion) []float64 {
	if len(r.Rows) == 0 {
		return nil
	}
	n := len(r.Rows[0])
	if n == 0 {
		return nil
	}
	starts := make([]float64, n)
	step := r.BBox.Width / float64(n)
	for i := range starts {
		starts[i] = r.BBox.X + float64(i)*step
	}
	return starts
}

func mergeRegions(a, b TableRegion) TableRegion {
	cols := len(a.Rows[0])
	if len(b.Rows[0]) > cols {
		cols = len(b.Rows[0])
	}
	rows := make([][]string, 0, len(a.Rows)+len(b.Rows))
	for _, r := range append(append([][]string{}, a.Rows...), b.Rows...) {
		for len(r) < cols {
			r = append(r, "")
		}
		rows = append(rows, r)
	}
	na, nb := float64(len(a.Rows)), float64(len(b.Rows))
	return TableRegion{
		BBox:       a.BBox.Union(b.BBox),
		Rows:       rows,
		Confidence: (a.Confidence*na + b.Confidence*nb) / (na + nb),
		PageIndex:  a.PageIndex,
	}
}

// RowsText flattens a region into tab-separated lines, for the plain text
// output path.
func (r TableRegion) RowsText() string {
	lines := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
