package sheetatlas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "INFO", SeverityInfo.String())
	assert.Equal(t, "WARN", SeverityWarning.String())
	assert.Equal(t, "ERROR", SeverityError.String())
	assert.Equal(t, "CRITICAL", SeverityCritical.String())
	assert.Equal(t, "UNKNOWN", Severity(99).String())
}

func TestSeverityForIssue_FixedMapping(t *testing.T) {
	tests := []struct {
		issue QualityIssue
		want  Severity
	}{
		{IssueNone, SeverityInfo},
		{IssueExtraWhitespace, SeverityInfo},
		{IssueInconsistentFormat, SeverityWarning},
		{IssueMissingRequired, SeverityWarning},
		{IssueInvalidCharacters, SeverityError},
		{IssueTypeMismatch, SeverityError},
		{IssueOutOfRange, SeverityError},
		{IssueDuplicateValue, SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityForIssue(tt.issue), "issue %s", tt.issue)
	}
}

func TestQualityIssue_String(t *testing.T) {
	assert.Equal(t, "None", IssueNone.String())
	assert.Equal(t, "TypeMismatch", IssueTypeMismatch.String())
	assert.Equal(t, "DuplicateValue", IssueDuplicateValue.String())
	assert.Equal(t, "Unknown", QualityIssue(99).String())
}

func TestNewCellLocation_Address(t *testing.T) {
	loc := NewCellLocation(3, 1)
	assert.Equal(t, 3, loc.Row)
	assert.Equal(t, 1, loc.Col)
	assert.Equal(t, "B4", loc.Address)
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Message:  "type confidence below threshold",
		Context:  "Cell:Sheet1",
		Location: NewCellLocation(3, 1),
	}
	assert.Equal(t, "[WARN] Cell:Sheet1 B4: type confidence below threshold", d.String())

	d = Diagnostic{Severity: SeverityError, Message: "bad sheet", Context: "Sheet:Data"}
	assert.Equal(t, "[ERROR] Sheet:Data: bad sheet", d.String())

	d.Err = errors.New("boom")
	assert.Equal(t, "[ERROR] Sheet:Data: bad sheet (boom)", d.String())
}

func TestDiagnostics_CollectorAccounting(t *testing.T) {
	d := NewDiagnostics()
	assert.Zero(t, d.Len())
	assert.Equal(t, SeverityInfo, d.Max())

	d.Add(Diagnostic{Severity: SeverityInfo, Message: "first"})
	d.Add(Diagnostic{Severity: SeverityError, Message: "second"})
	d.Add(Diagnostic{Severity: SeverityWarning, Message: "third"})

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, SeverityError, d.Max())
	assert.Equal(t, 1, d.Count(SeverityInfo))
	assert.Equal(t, 1, d.Count(SeverityWarning))
	assert.Equal(t, 1, d.Count(SeverityError))
	assert.Equal(t, 0, d.Count(SeverityCritical))

	all := d.All()
	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, "second", all[1].Message)
	assert.Equal(t, "third", all[2].Message)
}
