package sheetatlas

// CellStyle is a flyweight carrying pass-through style identity from the
// source format. One instance is shared by every cell that referenced the
// same style there.
type CellStyle struct {
	ID             int // style index in the source workbook
	NumberFormatID int // numeric format id within that style
}

// CellMetadata holds the optional enrichment state of a cell: cleaning
// results, validation and formula descriptors, style and currency context,
// the cached detected type, and an open extension map. Historically only a
// few percent of cells ever need one, so records start without it.
type CellMetadata struct {
	Original     Value  // value before cleaning
	Cleaned      Value  // value after cleaning, meaningful only with HasCleaned
	HasCleaned   bool   // distinguishes "cleaned to empty" from "never cleaned"
	Issue        QualityIssue
	Validation   string // validation rule descriptor
	Formula      string // source formula without the leading =
	Style        *CellStyle
	Currency     *CurrencyInfo
	DetectedType Kind
	TypeDetected bool
	NumberFormat string // number format code from the source
	extra        map[string]any
}

// SetCleaned records a cleaned value, including a cleaned-to-empty result.
func (m *CellMetadata) SetCleaned(v Value) {
	m.Cleaned = v
	m.HasCleaned = true
}

// SetDetectedType caches the detected type.
func (m *CellMetadata) SetDetectedType(k Kind) {
	m.DetectedType = k
	m.TypeDetected = true
}

// SetExtra stores an open extension entry, allocating the map on first use.
func (m *CellMetadata) SetExtra(key string, val any) {
	if m.extra == nil {
		m.extra = make(map[string]any)
	}
	m.extra[key] = val
}

// Extra looks up an extension entry.
func (m *CellMetadata) Extra(key string) (any, bool) {
	v, ok := m.extra[key]
	return v, ok
}

// Cell is the storage unit of a sheet: a value plus optional metadata.
// A cell without metadata costs exactly one Value. Cells move by value;
// stores overwrite slots wholesale.
type Cell struct {
	Value Value
	meta  *CellMetadata
}

// NewCell wraps a value in a metadata-free cell.
func NewCell(v Value) Cell {
	return Cell{Value: v}
}

// Meta returns the cell's metadata, or nil when none was ever attached.
func (c Cell) Meta() *CellMetadata {
	return c.meta
}

// EnsureMeta returns the cell's metadata, creating it on first need.
func (c *Cell) EnsureMeta() *CellMetadata {
	if c.meta == nil {
		c.meta = &CellMetadata{}
	}
	return c.meta
}

// EffectiveValue returns the cleaned value when one was recorded, else the
// raw value.
func (c Cell) EffectiveValue() Value {
	if c.meta != nil && c.meta.HasCleaned {
		return c.meta.Cleaned
	}
	return c.Value
}
