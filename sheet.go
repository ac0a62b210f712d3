package sheetatlas

import (
	"fmt"
	"iter"
	"sort"
)

// initialRowCapacity is the row capacity allocated by the first AddRow.
const initialRowCapacity = 8

// ColumnMetadata is the per-column enrichment result persisted on a sheet,
// together with layout flags passed through from the source format.
type ColumnMetadata struct {
	Width               float64
	Hidden              bool
	DetectedType        Kind
	TypeConfidence      float64
	Currency            *CurrencyInfo
	QualityWarningCount int
}

// Sheet is an in-memory table backed by one contiguous cell array addressed
// by row*columnCount+col. Column names are fixed at construction, the header
// row count is set once after loading, and capacity grows by doubling as rows
// are appended. The merged-range and column-metadata maps stay nil until
// their first write, so sheets without merges or analysis carry no map cost.
//
// Reads are generous: out-of-range lookups return empty sentinels. Mutating
// method misuse (wrong row width, repeated header count) panics before any
// state changes. A Sheet is not safe for concurrent mutation; a sheet that
// is no longer being written may be read concurrently.
type Sheet struct {
	name       string
	columns    []string
	cells      []Cell
	rows       int
	capRows    int
	headerRows int
	headerSet  bool
	merges     map[string]MergedRange
	colMeta    map[int]*ColumnMetadata
	closed     bool
}

// NewSheet creates an empty sheet with a fixed column layout.
// It panics when columns is empty.
func NewSheet(name string, columns []string) *Sheet {
	if len(columns) == 0 {
		panic("sheetatlas: NewSheet requires at least one column")
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Sheet{name: name, columns: cols}
}

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// SetName renames the sheet.
func (s *Sheet) SetName(name string) { s.name = name }

// Columns returns the column names. The returned slice is the sheet's own
// and must not be modified.
func (s *Sheet) Columns() []string { return s.columns }

// ColumnCount returns the fixed number of columns.
func (s *Sheet) ColumnCount() int { return len(s.columns) }

// Column returns the name of a column, or "" out of range.
func (s *Sheet) Column(col int) string {
	if col < 0 || col >= len(s.columns) {
		return ""
	}
	return s.columns[col]
}

// RowCount returns the number of appended rows.
func (s *Sheet) RowCount() int { return s.rows }

// HeaderRowCount returns how many leading rows are headers.
func (s *Sheet) HeaderRowCount() int { return s.headerRows }

// DataRowCount returns the number of rows after the headers.
func (s *Sheet) DataRowCount() int { return s.rows - s.headerRows }

// SetHeaderRowCount fixes the header/data boundary. It may be called once,
// with 0 <= n <= RowCount, and panics otherwise.
func (s *Sheet) SetHeaderRowCount(n int) {
	if s.closed {
		panic("sheetatlas: sheet is closed")
	}
	if s.headerSet {
		panic("sheetatlas: header row count already set")
	}
	if n < 0 || n > s.rows {
		panic(fmt.Sprintf("sheetatlas: header row count %d out of range [0,%d]", n, s.rows))
	}
	s.headerRows = n
	s.headerSet = true
}

// AddRow appends one row of cells. The row must match the column count
// exactly; a mismatch panics before anything is copied. Append cost is
// amortized O(1): when the backing array is full its row capacity doubles.
func (s *Sheet) AddRow(cells []Cell) {
	if s.closed {
		panic("sheetatlas: sheet is closed")
	}
	if len(cells) != len(s.columns) {
		panic(fmt.Sprintf("sheetatlas: AddRow got %d cells, sheet has %d columns", len(cells), len(s.columns)))
	}
	if s.rows == s.capRows {
		s.grow()
	}
	copy(s.cells[s.rows*len(s.columns):], cells)
	s.rows++
}

func (s *Sheet) grow() {
	newCap := s.capRows * 2
	if newCap == 0 {
		newCap = initialRowCapacity
	}
	next := make([]Cell, newCap*len(s.columns))
	copy(next, s.cells)
	s.cells = next
	s.capRows = newCap
}

// TrimExcess reallocates the backing array to exactly fit the appended rows.
func (s *Sheet) TrimExcess() {
	if s.closed || s.capRows == s.rows {
		return
	}
	next := make([]Cell, s.rows*len(s.columns))
	copy(next, s.cells[:len(next)])
	s.cells = next
	s.capRows = s.rows
}

func (s *Sheet) inRange(row, col int) bool {
	return row >= 0 && row < s.rows && col >= 0 && col < len(s.columns)
}

// Cell returns the cell at (row, col), or the zero Cell out of range.
func (s *Sheet) Cell(row, col int) Cell {
	if !s.inRange(row, col) {
		return Cell{}
	}
	return s.cells[row*len(s.columns)+col]
}

// CellValue returns the raw value at (row, col), or Empty out of range.
func (s *Sheet) CellValue(row, col int) Value {
	return s.Cell(row, col).Value
}

// CellMetadata returns the metadata at (row, col), or nil when the cell has
// none or the coordinates are out of range.
func (s *Sheet) CellMetadata(row, col int) *CellMetadata {
	return s.Cell(row, col).Meta()
}

// SetCell overwrites the slot at (row, col) wholesale. It reports false
// instead of panicking when the coordinates are out of range.
func (s *Sheet) SetCell(row, col int, c Cell) bool {
	if !s.inRange(row, col) {
		return false
	}
	s.cells[row*len(s.columns)+col] = c
	return true
}

// Row is a lightweight view of one sheet row.
type Row struct {
	sheet *Sheet
	index int
}

// Index returns the absolute 0-based row index.
func (r Row) Index() int { return r.index }

// Len returns the number of columns in the row.
func (r Row) Len() int { return r.sheet.ColumnCount() }

// Cell returns the cell in the given column, or the zero Cell out of range.
func (r Row) Cell(col int) Cell { return r.sheet.Cell(r.index, col) }

// Value returns the raw value in the given column, or Empty out of range.
func (r Row) Value(col int) Value { return r.sheet.CellValue(r.index, col) }

// Rows returns a lazy, restartable sequence over all rows. Each Row view is
// two words; iterating allocates nothing.
func (s *Sheet) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := 0; i < s.rows; i++ {
			if !yield(Row{sheet: s, index: i}) {
				return
			}
		}
	}
}

// DataRows returns a lazy sequence over the rows after the headers.
func (s *Sheet) DataRows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := s.headerRows; i < s.rows; i++ {
			if !yield(Row{sheet: s, index: i}) {
				return
			}
		}
	}
}

// AddMergedRange registers a merged range discovered in the source format,
// allocating the range map on first use.
func (s *Sheet) AddMergedRange(r MergedRange) {
	if s.closed {
		panic("sheetatlas: sheet is closed")
	}
	if s.merges == nil {
		s.merges = make(map[string]MergedRange)
	}
	s.merges[r.Ref()] = r
}

// HasMerges reports whether any merged ranges are registered.
func (s *Sheet) HasMerges() bool { return len(s.merges) > 0 }

// MergedRanges returns the registered ranges sorted by start row, then start
// column, so iteration order is deterministic.
func (s *Sheet) MergedRanges() []MergedRange {
	if len(s.merges) == 0 {
		return nil
	}
	ranges := make([]MergedRange, 0, len(s.merges))
	for _, r := range s.merges {
		ranges = append(ranges, r)
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].StartRow != ranges[j].StartRow {
			return ranges[i].StartRow < ranges[j].StartRow
		}
		return ranges[i].StartCol < ranges[j].StartCol
	})
	return ranges
}

// SetColumnMetadata persists analysis results for a column, allocating the
// metadata map on first use. It reports false for an out-of-range column.
func (s *Sheet) SetColumnMetadata(col int, m *ColumnMetadata) bool {
	if col < 0 || col >= len(s.columns) || s.closed {
		return false
	}
	if s.colMeta == nil {
		s.colMeta = make(map[int]*ColumnMetadata)
	}
	s.colMeta[col] = m
	return true
}

// ColumnMetadata returns the metadata for a column, or nil when the column
// was never analyzed or is out of range.
func (s *Sheet) ColumnMetadata(col int) *ColumnMetadata {
	return s.colMeta[col]
}

// Close releases the backing array and both auxiliary maps so a large sheet
// can be reclaimed promptly. It is idempotent and always returns nil.
func (s *Sheet) Close() error {
	if s.closed {
		return nil
	}
	s.cells = nil
	s.merges = nil
	s.colMeta = nil
	s.rows = 0
	s.capRows = 0
	s.headerRows = 0
	s.closed = true
	return nil
}
