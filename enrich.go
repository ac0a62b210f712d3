package sheetatlas

import "fmt"

// Enricher runs the enrichment pass: merge reconciliation, then per-column
// sampling, normalization and analysis, writing column metadata back onto
// the sheet and reporting findings through a diagnostics collector.
type Enricher struct {
	opts *Options
	norm *Normalizer
}

// NewEnricher creates an Enricher from functional options.
func NewEnricher(opts ...Option) *Enricher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	normOpts := o.normOpts
	if o.pool != nil {
		normOpts = append(normOpts, WithNormalizerPool(o.pool))
	}
	return &Enricher{opts: o, norm: NewNormalizer(normOpts...)}
}

// Enrich runs the fixed two-stage pass over one sheet and returns it:
// merged ranges are reconciled first, then every column is sampled,
// normalized and analyzed. All data problems flow into diags; only nil
// arguments panic, before anything is touched. The pass is not resumable;
// rerunning it needs a freshly loaded sheet.
func (e *Enricher) Enrich(sheet *Sheet, diags *Diagnostics) *Sheet {
	if sheet == nil {
		panic("sheetatlas: Enrich requires a sheet")
	}
	if diags == nil {
		panic("sheetatlas: Enrich requires a diagnostics collector")
	}

	e.resolveMerges(sheet, diags)

	for col := 0; col < sheet.ColumnCount(); col++ {
		if columnEmpty(sheet, col) {
			continue
		}
		name := sheet.Column(col)
		sample := e.sampleColumn(sheet, col)
		ca := AnalyzeColumn(col, name, sample, e.opts.rules)

		meta := &ColumnMetadata{
			DetectedType:        ca.DetectedType,
			TypeConfidence:      ca.Confidence,
			Currency:            ca.Currency,
			QualityWarningCount: ca.QualityWarningCount(),
		}
		if prev := sheet.ColumnMetadata(col); prev != nil {
			meta.Width = prev.Width
			meta.Hidden = prev.Hidden
		}
		sheet.SetColumnMetadata(col, meta)

		for _, a := range ca.Anomalies {
			diags.Add(Diagnostic{
				Severity: a.Severity(),
				Message:  fmt.Sprintf("column %q: %s", name, a.Message),
				Context:  "Cell:" + sheet.Name(),
				Location: NewCellLocation(a.Row, a.Column),
			})
		}
		if ca.NonEmpty > 0 && ca.Confidence < e.opts.confidenceThreshold {
			diags.Add(Diagnostic{
				Severity: SeverityWarning,
				Message: fmt.Sprintf("column %q: type confidence %.2f below threshold %.2f",
					name, ca.Confidence, e.opts.confidenceThreshold),
				Context: "Column:" + sheet.Name(),
			})
		}
	}
	return sheet
}

// resolveMerges runs merge analysis and resolution when the sheet has any
// merged ranges, forwarding range warnings and flagging chaos-level density.
func (e *Enricher) resolveMerges(sheet *Sheet, diags *Diagnostics) {
	if !sheet.HasMerges() {
		return
	}
	analysis := AnalyzeMerges(sheet, e.opts.chaosThreshold)
	strategy := e.opts.mergeStrategy
	if e.opts.autoStrategy {
		strategy = RecommendStrategy(analysis)
	}
	if analysis.Complexity == MergeChaos {
		diags.Add(Diagnostic{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("merged cells cover %.0f%% of the sheet; resolving %d ranges with %s",
				analysis.MergedPercent*100, analysis.RangeCount, strategy),
			Context: "Sheet:" + sheet.Name(),
		})
	}
	ResolveMerges(sheet, strategy, e.opts.mergeWarnCells, func(w MergeWarning) {
		diags.Add(Diagnostic{
			Severity: SeverityWarning,
			Message:  w.Message,
			Context:  "Merge:" + sheet.Name(),
			Location: NewCellLocation(w.Range.StartRow, w.Range.StartCol),
		})
	})
}

// sampleColumn walks a column's data rows up to the sample cap, normalizes
// each non-empty cell, persists cleaning results back into the store, and
// returns the sample with its absolute-row and number-format tracking.
func (e *Enricher) sampleColumn(sheet *Sheet, col int) ColumnSample {
	var sample ColumnSample
	for row := sheet.HeaderRowCount(); row < sheet.RowCount() && len(sample.Cells) < e.opts.sampleSize; row++ {
		cell := sheet.Cell(row, col)
		format := ""
		if m := cell.Meta(); m != nil {
			format = m.NumberFormat
		}
		if !cell.Value.IsEmpty() {
			cell = e.normalizeCell(sheet, row, col, cell, format)
		}
		sample.Cells = append(sample.Cells, cell)
		sample.Rows = append(sample.Rows, row)
		sample.Formats = append(sample.Formats, format)
	}
	return sample
}

// normalizeCell applies the normalizer to one cell and writes the outcome
// back wholesale. Metadata is only created when there is something to
// record: a cleaned value, a flagged issue, or a failed parse.
func (e *Enricher) normalizeCell(sheet *Sheet, row, col int, cell Cell, format string) Cell {
	res := e.norm.Normalize(cell.Value, format)
	switch res.Status {
	case NormalizeOK:
		if res.Value.Equal(cell.Value) {
			if m := cell.Meta(); m != nil {
				m.SetDetectedType(res.Kind)
			}
			return cell
		}
		m := cell.EnsureMeta()
		m.Original = cell.Value
		m.SetCleaned(res.Value)
		m.SetDetectedType(res.Kind)
	case NormalizeWarning:
		m := cell.EnsureMeta()
		m.Original = cell.Value
		m.Issue = res.Issue
		m.SetCleaned(res.Value)
		m.SetDetectedType(res.Kind)
	case NormalizeFailed:
		m := cell.EnsureMeta()
		m.Original = cell.Value
		m.Issue = res.Issue
	}
	sheet.SetCell(row, col, cell)
	return cell
}

// columnEmpty reports whether a column has no value anywhere in the sheet,
// headers included. Such columns are skipped outright: no metadata, no
// anomalies.
func columnEmpty(sheet *Sheet, col int) bool {
	for row := 0; row < sheet.RowCount(); row++ {
		if !sheet.CellValue(row, col).IsEmpty() {
			return false
		}
	}
	return true
}
