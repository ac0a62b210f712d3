package sheetatlas

import (
	"fmt"
	"strings"
)

// MergedRange is a rectangular block of cells merged in the source format,
// in inclusive 0-based coordinates.
type MergedRange struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Ref renders the range as a spreadsheet reference like "A1:C3".
func (r MergedRange) Ref() string {
	return CellName(r.StartRow, r.StartCol) + ":" + CellName(r.EndRow, r.EndCol)
}

// String returns the range reference.
func (r MergedRange) String() string { return r.Ref() }

// Rows returns the number of rows the range spans.
func (r MergedRange) Rows() int { return r.EndRow - r.StartRow + 1 }

// Cols returns the number of columns the range spans.
func (r MergedRange) Cols() int { return r.EndCol - r.StartCol + 1 }

// CellCount returns the number of cells the range covers.
func (r MergedRange) CellCount() int { return r.Rows() * r.Cols() }

// IsVertical reports whether the range spans more than one row.
func (r MergedRange) IsVertical() bool { return r.Rows() > 1 }

// Contains reports whether (row, col) falls inside the range.
func (r MergedRange) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

// Overlaps reports whether two ranges share any cell.
func (r MergedRange) Overlaps(other MergedRange) bool {
	return r.StartRow <= other.EndRow && other.StartRow <= r.EndRow &&
		r.StartCol <= other.EndCol && other.StartCol <= r.EndCol
}

// clamp restricts the range to the sheet's current dimensions. A range that
// falls entirely outside reports ok=false.
func (r MergedRange) clamp(rows, cols int) (MergedRange, bool) {
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	if r.StartRow >= rows || r.StartCol >= cols || r.EndRow < 0 || r.EndCol < 0 {
		return r, false
	}
	if r.StartRow < 0 {
		r.StartRow = 0
	}
	if r.StartCol < 0 {
		r.StartCol = 0
	}
	if r.EndRow >= rows {
		r.EndRow = rows - 1
	}
	if r.EndCol >= cols {
		r.EndCol = cols - 1
	}
	return r, true
}

// MergeComplexity classifies the structural risk of a sheet's merged ranges.
type MergeComplexity int

const (
	// MergeSimple means every merge is horizontal, e.g. header banners.
	MergeSimple MergeComplexity = iota
	// MergeComplex means at least one vertical or nested merge is present,
	// so blind expansion can corrupt data alignment.
	MergeComplex
	// MergeChaos means the merged-cell share exceeds the warn threshold,
	// regardless of pattern.
	MergeChaos
)

// String returns a human-readable name for the complexity level.
func (c MergeComplexity) String() string {
	switch c {
	case MergeSimple:
		return "Simple"
	case MergeComplex:
		return "Complex"
	case MergeChaos:
		return "Chaos"
	default:
		return "Unknown"
	}
}

// MergeAnalysis summarizes a sheet's merged-range set.
type MergeAnalysis struct {
	Complexity      MergeComplexity
	RangeCount      int
	MergedCellCount int
	MergedPercent   float64 // merged cells / total cells, 0..1
	VerticalCount   int
	NestedCount     int
}

// AnalyzeMerges classifies the sheet's merged ranges. chaosThreshold is the
// merged-cell share (0..1) above which the sheet counts as Chaos; values
// outside (0,1] fall back to the default 0.20. Overlapping ranges count each
// covered cell once.
func AnalyzeMerges(s *Sheet, chaosThreshold float64) MergeAnalysis {
	if chaosThreshold <= 0 || chaosThreshold > 1 {
		chaosThreshold = 0.20
	}
	ranges := s.MergedRanges()
	a := MergeAnalysis{RangeCount: len(ranges)}
	if len(ranges) == 0 {
		return a
	}

	for _, r := range ranges {
		c, ok := r.clamp(s.RowCount(), s.ColumnCount())
		if !ok {
			continue
		}
		a.MergedCellCount += c.CellCount()
		if c.IsVertical() {
			a.VerticalCount++
		}
	}
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if ranges[i].Overlaps(ranges[j]) {
				a.NestedCount++
			}
		}
	}
	if a.NestedCount > 0 {
		// Source formats forbid overlapping merges, so only hand-built
		// sheets reach the exact recount.
		a.MergedCellCount = uniqueMergedCells(ranges, s.RowCount(), s.ColumnCount())
	}

	total := s.RowCount() * s.ColumnCount()
	if total > 0 {
		a.MergedPercent = float64(a.MergedCellCount) / float64(total)
	}

	switch {
	case a.MergedPercent > chaosThreshold:
		a.Complexity = MergeChaos
	case a.VerticalCount > 0 || a.NestedCount > 0:
		a.Complexity = MergeComplex
	default:
		a.Complexity = MergeSimple
	}
	return a
}

// uniqueMergedCells counts the cells covered by at least one range, clamped
// to the sheet's dimensions.
func uniqueMergedCells(ranges []MergedRange, rows, cols int) int {
	seen := make(map[int]struct{})
	for _, raw := range ranges {
		r, ok := raw.clamp(rows, cols)
		if !ok {
			continue
		}
		for row := r.StartRow; row <= r.EndRow; row++ {
			base := row * cols
			for col := r.StartCol; col <= r.EndCol; col++ {
				seen[base+col] = struct{}{}
			}
		}
	}
	return len(seen)
}

// MergeStrategy selects how merged ranges are reconciled into the flat grid.
type MergeStrategy int

const (
	// ExpandValue copies the top-left value into every cell of the range.
	ExpandValue MergeStrategy = iota
	// KeepTopLeft keeps only the top-left cell populated.
	KeepTopLeft
	// FlattenToString joins all non-empty values into the top-left cell.
	FlattenToString
	// TreatAsHeader expands ranges overlapping header rows and keeps the
	// top-left elsewhere.
	TreatAsHeader
)

// String returns the canonical configuration name of the strategy.
func (m MergeStrategy) String() string {
	switch m {
	case ExpandValue:
		return "expand"
	case KeepTopLeft:
		return "keep-top-left"
	case FlattenToString:
		return "flatten"
	case TreatAsHeader:
		return "header"
	default:
		return "unknown"
	}
}

// ParseMergeStrategy maps a configuration name to a strategy.
func ParseMergeStrategy(name string) (MergeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "expand", "expand-value", "expandvalue":
		return ExpandValue, nil
	case "keep-top-left", "keep", "keeptopleft":
		return KeepTopLeft, nil
	case "flatten", "flatten-to-string", "flattentostring":
		return FlattenToString, nil
	case "header", "treat-as-header", "treatasheader":
		return TreatAsHeader, nil
	}
	return ExpandValue, fmt.Errorf("unknown merge strategy: %q", name)
}

// RecommendStrategy picks the resolution strategy suggested by an analysis.
// Recommendation is separate from resolution so the heuristics can change
// without touching the resolver.
func RecommendStrategy(a MergeAnalysis) MergeStrategy {
	switch a.Complexity {
	case MergeChaos:
		return KeepTopLeft
	case MergeComplex:
		return TreatAsHeader
	default:
		return ExpandValue
	}
}

// MergeWarning flags one structurally risky merged range.
type MergeWarning struct {
	Range      MergedRange
	Complexity MergeComplexity
	Message    string
}

// ResolveMerges rewrites every registered merged range into the flat grid
// under the given strategy. Ranges are visited in sorted order; each
// vertical range, and each range spanning more than warnCellCount cells
// (values < 1 fall back to the default 6), is reported through onWarning
// before resolution, whatever the strategy does with it. A sheet with no
// merges is left untouched. Ranges reaching outside the sheet are clamped
// and never abort the rest of the pass.
func ResolveMerges(s *Sheet, strategy MergeStrategy, warnCellCount int, onWarning func(MergeWarning)) {
	if s == nil {
		panic("sheetatlas: ResolveMerges requires a sheet")
	}
	if !s.HasMerges() {
		return
	}
	if warnCellCount < 1 {
		warnCellCount = 6
	}

	for _, raw := range s.MergedRanges() {
		r, ok := raw.clamp(s.RowCount(), s.ColumnCount())
		if !ok {
			continue
		}
		if onWarning != nil {
			if w, risky := warningFor(r, warnCellCount); risky {
				onWarning(w)
			}
		}
		if r.CellCount() <= 1 {
			continue
		}
		switch strategy {
		case ExpandValue:
			expandRange(s, r)
		case KeepTopLeft:
			keepTopLeft(s, r)
		case FlattenToString:
			flattenRange(s, r)
		case TreatAsHeader:
			if r.StartRow < s.HeaderRowCount() {
				expandRange(s, r)
			} else {
				keepTopLeft(s, r)
			}
		}
	}
}

// warningFor builds the warning for a non-trivial range: vertical, or wider
// than warnCellCount cells.
func warningFor(r MergedRange, warnCellCount int) (MergeWarning, bool) {
	switch {
	case r.IsVertical():
		return MergeWarning{
			Range:      r,
			Complexity: MergeComplex,
			Message:    fmt.Sprintf("vertical merged range %s spans %d rows; values may not align with data rows", r.Ref(), r.Rows()),
		}, true
	case r.CellCount() > warnCellCount:
		return MergeWarning{
			Range:      r,
			Complexity: MergeSimple,
			Message:    fmt.Sprintf("merged range %s spans %d cells", r.Ref(), r.CellCount()),
		}, true
	}
	return MergeWarning{}, false
}

func expandRange(s *Sheet, r MergedRange) {
	v := s.CellValue(r.StartRow, r.StartCol)
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			if row == r.StartRow && col == r.StartCol {
				continue
			}
			s.SetCell(row, col, NewCell(v))
		}
	}
}

func keepTopLeft(s *Sheet, r MergedRange) {
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			if row == r.StartRow && col == r.StartCol {
				continue
			}
			s.SetCell(row, col, Cell{})
		}
	}
}

func flattenRange(s *Sheet, r MergedRange) {
	var parts []string
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			if v := s.Cell(row, col).EffectiveValue(); !v.IsEmpty() {
				parts = append(parts, v.String())
			}
		}
	}
	keepTopLeft(s, r)
	s.SetCell(r.StartRow, r.StartCol, NewCell(FromText(strings.Join(parts, " "))))
}
