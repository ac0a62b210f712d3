package sheetatlas

import (
	"fmt"
	"strings"
)

// Severity ranks diagnostics from informational to critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the conventional upper-case tag for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// QualityIssue classifies a data-quality problem found in a cell. Issues are
// values, never panics: malformed business data flows out as diagnostics.
type QualityIssue int

const (
	IssueNone QualityIssue = iota
	IssueExtraWhitespace
	IssueInconsistentFormat
	IssueMissingRequired
	IssueInvalidCharacters
	IssueTypeMismatch
	IssueOutOfRange
	IssueDuplicateValue
)

// String returns a human-readable name for the issue.
func (q QualityIssue) String() string {
	switch q {
	case IssueNone:
		return "None"
	case IssueExtraWhitespace:
		return "ExtraWhitespace"
	case IssueInconsistentFormat:
		return "InconsistentFormat"
	case IssueMissingRequired:
		return "MissingRequired"
	case IssueInvalidCharacters:
		return "InvalidCharacters"
	case IssueTypeMismatch:
		return "TypeMismatch"
	case IssueOutOfRange:
		return "OutOfRange"
	case IssueDuplicateValue:
		return "DuplicateValue"
	default:
		return "Unknown"
	}
}

// SeverityForIssue maps a quality issue to its fixed severity.
func SeverityForIssue(q QualityIssue) Severity {
	switch q {
	case IssueNone, IssueExtraWhitespace:
		return SeverityInfo
	case IssueInconsistentFormat, IssueMissingRequired:
		return SeverityWarning
	case IssueInvalidCharacters, IssueTypeMismatch, IssueOutOfRange:
		return SeverityError
	case IssueDuplicateValue:
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// CellLocation points a diagnostic at a cell in two representations: the
// 0-based row/column pair and the spreadsheet-style address.
type CellLocation struct {
	Row     int
	Col     int
	Address string
}

// NewCellLocation builds a location from 0-based coordinates.
func NewCellLocation(row, col int) *CellLocation {
	return &CellLocation{Row: row, Col: col, Address: CellName(row, col)}
}

// Diagnostic is one enrichment finding: a severity, a message, a context
// string such as "Cell:Sheet1", an optional cell location, and an optional
// underlying error.
type Diagnostic struct {
	Severity Severity
	Message  string
	Context  string
	Location *CellLocation
	Err      error
}

// String formats the diagnostic as "[WARN] Cell:Sheet1 B4: message".
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Severity, d.Context)
	if d.Location != nil {
		b.WriteByte(' ')
		b.WriteString(d.Location.Address)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Err != nil {
		fmt.Fprintf(&b, " (%v)", d.Err)
	}
	return b.String()
}

// Diagnostics is the caller-supplied, append-only collector the enrichment
// pass writes into. It is not synchronized; use one collector per sheet when
// enriching sheets in parallel.
type Diagnostics struct {
	entries []Diagnostic
}

// NewDiagnostics creates an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(diag Diagnostic) {
	d.entries = append(d.entries, diag)
}

// All returns the collected diagnostics in insertion order.
func (d *Diagnostics) All() []Diagnostic {
	return d.entries
}

// Len reports how many diagnostics were collected.
func (d *Diagnostics) Len() int {
	return len(d.entries)
}

// Count reports how many diagnostics carry exactly the given severity.
func (d *Diagnostics) Count(sev Severity) int {
	n := 0
	for _, e := range d.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// Max returns the highest severity collected, or SeverityInfo when empty.
func (d *Diagnostics) Max() Severity {
	max := SeverityInfo
	for _, e := range d.entries {
		if e.Severity > max {
			max = e.Severity
		}
	}
	return max
}
