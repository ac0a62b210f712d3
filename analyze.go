package sheetatlas

import "fmt"

// defaultSampleSize caps how many data rows a column analysis inspects.
const defaultSampleSize = 100

// ColumnSample is the material AnalyzeColumn works on: parallel slices of
// sampled cells, the absolute sheet row each came from, and the number
// format code seen on each cell.
type ColumnSample struct {
	Cells   []Cell
	Rows    []int
	Formats []string
}

// row maps a sample index to its absolute sheet row. Samples built without
// row tracking fall back to the index itself.
func (cs ColumnSample) row(i int) int {
	if i < len(cs.Rows) {
		return cs.Rows[i]
	}
	return i
}

func (cs ColumnSample) format(i int) string {
	if i < len(cs.Formats) {
		return cs.Formats[i]
	}
	return ""
}

// Anomaly is one cell disagreeing with, or failing, its column's type or
// quality expectation. SampleIndex is relative to the sample the analysis
// ran on; Row is the absolute sheet row it maps back to.
type Anomaly struct {
	SampleIndex int
	Row         int
	Column      int
	Value       Value
	Issue       QualityIssue
	Expected    Kind
	Actual      Kind
	Message     string
}

// Severity returns the anomaly's fixed severity.
func (a Anomaly) Severity() Severity { return SeverityForIssue(a.Issue) }

// ColumnAnalysis is the result of analyzing one column's sample.
type ColumnAnalysis struct {
	Column       int
	Name         string
	DetectedType Kind
	Confidence   float64
	Histogram    map[Kind]int
	NonEmpty     int
	Currency     *CurrencyInfo
	Anomalies    []Anomaly
}

// QualityWarningCount counts the anomalies at warning severity or above.
func (ca ColumnAnalysis) QualityWarningCount() int {
	n := 0
	for _, a := range ca.Anomalies {
		if a.Severity() >= SeverityWarning {
			n++
		}
	}
	return n
}

// AnalyzeColumn computes a column's type histogram, dominant type,
// confidence, currency context and anomaly list from a sample of its data
// rows. Integers count toward the Number family, so an all-integer column
// reports KindNumber. TypeConfidence is the share of non-empty samples
// matching the dominant type. rules may be nil.
func AnalyzeColumn(col int, name string, sample ColumnSample, rules *RuleSet) ColumnAnalysis {
	ca := ColumnAnalysis{
		Column:    col,
		Name:      name,
		Histogram: make(map[Kind]int),
	}

	for _, cell := range sample.Cells {
		k := cell.EffectiveValue().Kind()
		ca.Histogram[k]++
		if k != KindEmpty {
			ca.NonEmpty++
		}
	}

	if ca.NonEmpty > 0 {
		ca.DetectedType = dominantKind(ca.Histogram)
		ca.Confidence = float64(matchingCount(ca.Histogram, ca.DetectedType)) / float64(ca.NonEmpty)
		if ca.DetectedType == KindNumber {
			ca.Currency = InferCurrency(sample.Formats)
		}
	}

	rule := rules.Rule(name)
	firstSeen := make(map[string]int)
	for i, cell := range sample.Cells {
		v := cell.EffectiveValue()
		k := v.Kind()
		row := sample.row(i)

		if k == KindEmpty {
			if rule != nil && rule.Required {
				ca.add(Anomaly{
					SampleIndex: i,
					Row:         row,
					Column:      col,
					Issue:       IssueMissingRequired,
					Expected:    ca.DetectedType,
					Actual:      KindEmpty,
					Message:     "required value is missing",
				})
			}
			continue
		}

		if a, ok := metadataAnomaly(cell, i, row, col, ca.DetectedType); ok {
			ca.add(a)
			if SeverityForIssue(a.Issue) >= SeverityError {
				continue
			}
		} else if k == KindText && IsFormulaError(v.AsText()) {
			ca.add(Anomaly{
				SampleIndex: i,
				Row:         row,
				Column:      col,
				Value:       v,
				Issue:       IssueInvalidCharacters,
				Expected:    ca.DetectedType,
				Actual:      k,
				Message:     fmt.Sprintf("formula error marker %q", v.AsText()),
			})
			continue
		}

		if ca.NonEmpty > 0 && !matchesKind(k, ca.DetectedType) {
			ca.add(Anomaly{
				SampleIndex: i,
				Row:         row,
				Column:      col,
				Value:       v,
				Issue:       IssueTypeMismatch,
				Expected:    ca.DetectedType,
				Actual:      k,
				Message:     fmt.Sprintf("expected %s, got %s (%q)", ca.DetectedType, k, v.String()),
			})
		}

		if rule == nil {
			continue
		}
		text := v.String()
		if rule.Unique {
			if firstRow, dup := firstSeen[text]; dup {
				ca.add(Anomaly{
					SampleIndex: i,
					Row:         row,
					Column:      col,
					Value:       v,
					Issue:       IssueDuplicateValue,
					Expected:    ca.DetectedType,
					Actual:      k,
					Message:     fmt.Sprintf("duplicate value %q (first at row %d)", text, firstRow),
				})
			} else {
				firstSeen[text] = row
			}
		}
		if rule.Constraint != "" {
			ok, err := rules.EvalConstraint(rule, v, row)
			if err != nil {
				ca.add(Anomaly{
					SampleIndex: i,
					Row:         row,
					Column:      col,
					Value:       v,
					Issue:       IssueOutOfRange,
					Expected:    ca.DetectedType,
					Actual:      k,
					Message:     fmt.Sprintf("constraint %q failed for %q: %v", rule.Constraint, text, err),
				})
			} else if !ok {
				ca.add(Anomaly{
					SampleIndex: i,
					Row:         row,
					Column:      col,
					Value:       v,
					Issue:       IssueOutOfRange,
					Expected:    ca.DetectedType,
					Actual:      k,
					Message:     fmt.Sprintf("value %q violates constraint %q", text, rule.Constraint),
				})
			}
		}
		if rule.Pattern != "" {
			if ok, err := rules.MatchPattern(rule, text); err == nil && !ok {
				ca.add(Anomaly{
					SampleIndex: i,
					Row:         row,
					Column:      col,
					Value:       v,
					Issue:       IssueInconsistentFormat,
					Expected:    ca.DetectedType,
					Actual:      k,
					Message:     fmt.Sprintf("value %q does not match pattern %q", text, rule.Pattern),
				})
			}
		}
	}

	return ca
}

func (ca *ColumnAnalysis) add(a Anomaly) {
	ca.Anomalies = append(ca.Anomalies, a)
}

// metadataAnomaly surfaces a normalization finding recorded on the cell: a
// failed parse becomes an anomaly with its issue, a whitespace cleanup
// becomes an Info note.
func metadataAnomaly(cell Cell, i, row, col int, expected Kind) (Anomaly, bool) {
	meta := cell.Meta()
	if meta == nil || meta.Issue == IssueNone {
		return Anomaly{}, false
	}
	v := cell.EffectiveValue()
	if meta.Issue == IssueExtraWhitespace {
		return Anomaly{
			SampleIndex: i,
			Row:         row,
			Column:      col,
			Value:       v,
			Issue:       IssueExtraWhitespace,
			Expected:    expected,
			Actual:      v.Kind(),
			Message:     "value required whitespace cleanup",
		}, true
	}
	if meta.HasCleaned {
		return Anomaly{}, false
	}
	msg := fmt.Sprintf("value %q failed normalization", meta.Original.String())
	return Anomaly{
		SampleIndex: i,
		Row:         row,
		Column:      col,
		Value:       v,
		Issue:       meta.Issue,
		Expected:    expected,
		Actual:      v.Kind(),
		Message:     msg,
	}, true
}

// dominantKind picks the column's dominant type from a histogram, folding
// Integer into the Number family. Ties break toward Number, then DateTime,
// Boolean and Text.
func dominantKind(hist map[Kind]int) Kind {
	numeric := hist[KindInteger] + hist[KindNumber]
	best := KindNumber
	bestCount := numeric
	for _, k := range []Kind{KindDateTime, KindBoolean, KindText} {
		if hist[k] > bestCount {
			best = k
			bestCount = hist[k]
		}
	}
	return best
}

// matchingCount counts histogram entries matching the dominant type.
func matchingCount(hist map[Kind]int, dominant Kind) int {
	if dominant == KindNumber {
		return hist[KindInteger] + hist[KindNumber]
	}
	return hist[dominant]
}

// matchesKind reports whether a cell kind agrees with the dominant type,
// with Integer belonging to the Number family.
func matchesKind(k, dominant Kind) bool {
	if dominant == KindNumber {
		return k == KindInteger || k == KindNumber
	}
	return k == dominant
}
