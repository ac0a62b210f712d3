package sheetatlas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich_PanicsOnNilArguments(t *testing.T) {
	e := NewEnricher()
	s := newTestSheet(t, []string{"A"}, [][]string{{"x"}})

	assert.PanicsWithValue(t, "sheetatlas: Enrich requires a sheet", func() {
		e.Enrich(nil, NewDiagnostics())
	})
	assert.PanicsWithValue(t, "sheetatlas: Enrich requires a diagnostics collector", func() {
		e.Enrich(s, nil)
	})
}

func TestEnrich_DetectsTypeMismatch(t *testing.T) {
	s := newTestSheet(t, []string{"Amount"}, [][]string{
		{"Amount"}, {"10"}, {"20"}, {"N/A"}, {"40"}, {"50"},
	})
	s.SetHeaderRowCount(1)
	diags := NewDiagnostics()

	got := NewEnricher().Enrich(s, diags)
	assert.Same(t, s, got)

	meta := s.ColumnMetadata(0)
	require.NotNil(t, meta)
	assert.Equal(t, KindNumber, meta.DetectedType)
	assert.InDelta(t, 0.8, meta.TypeConfidence, 1e-9)
	assert.Equal(t, 1, meta.QualityWarningCount)

	require.Equal(t, 1, diags.Len())
	d := diags.All()[0]
	assert.Equal(t, SeverityError, d.Severity)
	assert.Contains(t, d.Message, `column "Amount"`)
	assert.Contains(t, d.Message, "expected Number, got Text")
	assert.Equal(t, "Cell:Sheet1", d.Context)
	require.NotNil(t, d.Location)
	assert.Equal(t, 3, d.Location.Row)
	assert.Equal(t, "A4", d.Location.Address)
}

func TestEnrich_LowConfidenceWarning(t *testing.T) {
	s := newTestSheet(t, []string{"Mixed"}, [][]string{
		{"Mixed"}, {"1"}, {"a"}, {"2"}, {"b"},
	})
	s.SetHeaderRowCount(1)
	diags := NewDiagnostics()

	NewEnricher().Enrich(s, diags)

	meta := s.ColumnMetadata(0)
	require.NotNil(t, meta)
	assert.InDelta(t, 0.5, meta.TypeConfidence, 1e-9)

	var warned bool
	for _, d := range diags.All() {
		if d.Context == "Column:Sheet1" {
			warned = true
			assert.Equal(t, SeverityWarning, d.Severity)
			assert.Contains(t, d.Message, "type confidence 0.50 below threshold 0.70")
			assert.Nil(t, d.Location)
		}
	}
	assert.True(t, warned)
}

func TestEnrich_ConfidenceThresholdOption(t *testing.T) {
	s := newTestSheet(t, []string{"Mixed"}, [][]string{
		{"Mixed"}, {"1"}, {"a"}, {"2"}, {"b"},
	})
	s.SetHeaderRowCount(1)
	diags := NewDiagnostics()

	NewEnricher(WithConfidenceThreshold(0.4)).Enrich(s, diags)
	for _, d := range diags.All() {
		assert.NotEqual(t, "Column:Sheet1", d.Context)
	}
}

func TestEnrich_SkipsEmptyColumns(t *testing.T) {
	s := newTestSheet(t, []string{"Name", "Unused"}, [][]string{
		{"Name", ""}, {"alpha", ""}, {"beta", ""},
	})
	s.SetHeaderRowCount(1)
	diags := NewDiagnostics()

	NewEnricher().Enrich(s, diags)

	assert.NotNil(t, s.ColumnMetadata(0))
	assert.Nil(t, s.ColumnMetadata(1))
	assert.Zero(t, diags.Len())
}

func TestEnrich_CleansWhitespaceIntoStore(t *testing.T) {
	s := newTestSheet(t, []string{"Vendor"}, [][]string{
		{"Vendor"}, {"  Acme  "},
	})
	s.SetHeaderRowCount(1)
	diags := NewDiagnostics()

	NewEnricher().Enrich(s, diags)

	cell := s.Cell(1, 0)
	assert.Equal(t, "Acme", cell.EffectiveValue().AsText())
	m := cell.Meta()
	require.NotNil(t, m)
	assert.Equal(t, "  Acme  ", m.Original.AsText())
	assert.True(t, m.HasCleaned)
	assert.Equal(t, IssueExtraWhitespace, m.Issue)

	// The cleanup surfaces as an informational finding, not a warning.
	require.Equal(t, 1, diags.Len())
	assert.Equal(t, SeverityInfo, diags.All()[0].Severity)
	assert.Equal(t, 0, s.ColumnMetadata(0).QualityWarningCount)
}

func TestEnrich_UnchangedValuesStayMetadataFree(t *testing.T) {
	s := newTestSheet(t, []string{"Name"}, [][]string{
		{"Name"}, {"alpha"}, {"beta"},
	})
	s.SetHeaderRowCount(1)

	NewEnricher().Enrich(s, NewDiagnostics())

	assert.Nil(t, s.Cell(1, 0).Meta())
	assert.Nil(t, s.Cell(2, 0).Meta())
}

func TestEnrich_CurrencyTextBecomesNumber(t *testing.T) {
	s := newTestSheet(t, []string{"Price"}, [][]string{
		{"Price"}, {"$1,234.50"},
	})
	s.SetHeaderRowCount(1)

	NewEnricher().Enrich(s, NewDiagnostics())

	cell := s.Cell(1, 0)
	require.Equal(t, KindNumber, cell.EffectiveValue().Kind())
	assert.InDelta(t, 1234.50, cell.EffectiveValue().AsNumber(), 1e-9)
	assert.Equal(t, "$1,234.50", cell.Meta().Original.AsText())
	assert.Equal(t, KindNumber, s.ColumnMetadata(0).DetectedType)
}

func TestEnrich_SerialDatesUseCellNumberFormat(t *testing.T) {
	s := NewSheet("Sheet1", []string{"Date"})
	s.AddRow([]Cell{NewCell(FromText("Date"))})
	c := NewCell(FromInteger(45292))
	c.EnsureMeta().NumberFormat = "m/d/yy"
	s.AddRow([]Cell{c})
	s.SetHeaderRowCount(1)

	NewEnricher().Enrich(s, NewDiagnostics())

	got := s.Cell(1, 0)
	require.Equal(t, KindDateTime, got.EffectiveValue().Kind())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got.EffectiveValue().AsDateTime())
	assert.Equal(t, int64(45292), got.Meta().Original.AsInteger())
	assert.Equal(t, KindDateTime, s.ColumnMetadata(0).DetectedType)
}

func TestEnrich_RuleFindings(t *testing.T) {
	rs, err := ParseRules([]byte(`
columns:
  - column: Order ID
    required: true
    unique: true
`))
	require.NoError(t, err)

	s := newTestSheet(t, []string{"Order ID"}, [][]string{
		{"Order ID"}, {"ORD-1"}, {""}, {"ORD-1"},
	})
	s.SetHeaderRowCount(1)
	diags := NewDiagnostics()

	NewEnricher(WithRules(rs)).Enrich(s, diags)

	require.Equal(t, 2, diags.Len())
	missing, dup := diags.All()[0], diags.All()[1]

	assert.Equal(t, SeverityWarning, missing.Severity)
	assert.Contains(t, missing.Message, "required value is missing")
	assert.Equal(t, "A3", missing.Location.Address)

	assert.Equal(t, SeverityCritical, dup.Severity)
	assert.Contains(t, dup.Message, `duplicate value "ORD-1" (first at row 1)`)
	assert.Equal(t, "A4", dup.Location.Address)

	assert.Equal(t, SeverityCritical, diags.Max())
	assert.Equal(t, 2, s.ColumnMetadata(0).QualityWarningCount)
}

func TestEnrich_SimpleMergeExpandsQuietly(t *testing.T) {
	s := newTestSheet(t, []string{"A", "B", "C"}, [][]string{
		{"Title", "", ""},
		{"a", "b", "c"},
		{"d", "e", "f"},
		{"g", "h", "i"},
	})
	s.SetHeaderRowCount(1)
	s.AddMergedRange(MergedRange{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 1})
	diags := NewDiagnostics()

	NewEnricher().Enrich(s, diags)

	assert.Equal(t, "Title", s.CellValue(0, 1).AsText())
	assert.Zero(t, diags.Len())
}

func TestEnrich_ChaosMergeDiagnostics(t *testing.T) {
	s := newTestSheet(t, []string{"A", "B"}, [][]string{
		{"X", ""}, {"", ""},
	})
	s.AddMergedRange(MergedRange{StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1})
	diags := NewDiagnostics()

	NewEnricher().Enrich(s, diags)

	require.GreaterOrEqual(t, diags.Len(), 2)
	chaos := diags.All()[0]
	assert.Equal(t, SeverityWarning, chaos.Severity)
	assert.Equal(t, "Sheet:Sheet1", chaos.Context)
	assert.Contains(t, chaos.Message, "merged cells cover 100% of the sheet")
	assert.Contains(t, chaos.Message, "keep-top-left")

	rangeWarn := diags.All()[1]
	assert.Equal(t, "Merge:Sheet1", rangeWarn.Context)
	require.NotNil(t, rangeWarn.Location)
	assert.Equal(t, "A1", rangeWarn.Location.Address)
}

func TestEnrich_FixedMergeStrategy(t *testing.T) {
	s := newTestSheet(t, []string{"A", "B", "C"}, [][]string{
		{"Q3", "Orders", ""},
		{"a", "b", "c"},
		{"d", "e", "f"},
		{"g", "h", "i"},
	})
	s.SetHeaderRowCount(1)
	s.AddMergedRange(MergedRange{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 1})

	NewEnricher(WithMergeStrategy(FlattenToString)).Enrich(s, NewDiagnostics())

	assert.Equal(t, "Q3 Orders", s.CellValue(0, 0).AsText())
	assert.True(t, s.CellValue(0, 1).IsEmpty())
}

func TestEnrich_SampleSizeCapsAnalysis(t *testing.T) {
	s := newTestSheet(t, []string{"Amount"}, [][]string{
		{"Amount"}, {"1"}, {"2"}, {"oops"},
	})
	s.SetHeaderRowCount(1)
	diags := NewDiagnostics()

	NewEnricher(WithSampleSize(2)).Enrich(s, diags)

	meta := s.ColumnMetadata(0)
	require.NotNil(t, meta)
	assert.Equal(t, KindNumber, meta.DetectedType)
	assert.InDelta(t, 1.0, meta.TypeConfidence, 1e-9)
	assert.Zero(t, diags.Len())
}
