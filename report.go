package sheetatlas

import (
	"fmt"
	"strings"
)

// Summarize returns a human-readable tree describing an enriched sheet:
// dimensions, per-column analysis results, and collected diagnostics.
// Useful for CLI output and for eyeballing results during development.
func Summarize(s *Sheet, diags *Diagnostics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sheet: %s (%d rows, %d columns, %d header rows)\n",
		s.Name(), s.RowCount(), s.ColumnCount(), s.HeaderRowCount())

	b.WriteString("  Columns:\n")
	nameWidth := 0
	for col := 0; col < s.ColumnCount(); col++ {
		if n := len(s.Column(col)); n > nameWidth {
			nameWidth = n
		}
	}
	for col := 0; col < s.ColumnCount(); col++ {
		fmt.Fprintf(&b, "    %-3s %-*s", ColumnName(col), nameWidth, s.Column(col))
		meta := s.ColumnMetadata(col)
		if meta == nil {
			b.WriteString("  no data\n")
			continue
		}
		fmt.Fprintf(&b, "  %-8s confidence %.2f", meta.DetectedType, meta.TypeConfidence)
		if meta.Currency != nil {
			fmt.Fprintf(&b, "  currency %s (%s)", currencyLabel(meta.Currency), meta.Currency.Confidence)
		}
		if meta.QualityWarningCount > 0 {
			fmt.Fprintf(&b, "  warnings %d", meta.QualityWarningCount)
		}
		if meta.Hidden {
			b.WriteString("  hidden")
		}
		b.WriteByte('\n')
	}

	if s.HasMerges() {
		ranges := s.MergedRanges()
		fmt.Fprintf(&b, "  Merged ranges: %d\n", len(ranges))
		for _, r := range ranges {
			fmt.Fprintf(&b, "    %s\n", r.Ref())
		}
	}

	if diags != nil && diags.Len() > 0 {
		fmt.Fprintf(&b, "  Diagnostics: %d%s\n", diags.Len(), severityBreakdown(diags))
		for _, d := range diags.All() {
			fmt.Fprintf(&b, "    %s\n", d)
		}
	}
	return b.String()
}

// currencyLabel prefers the ISO code and falls back to the raw symbol.
func currencyLabel(c *CurrencyInfo) string {
	if c.Code != "" {
		return c.Code
	}
	return c.Symbol
}

// severityBreakdown renders the per-severity counts that are non-zero,
// highest severity first, e.g. " (1 ERROR, 2 WARN)".
func severityBreakdown(diags *Diagnostics) string {
	var parts []string
	for _, sev := range []Severity{SeverityCritical, SeverityError, SeverityWarning, SeverityInfo} {
		if n := diags.Count(sev); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
