package sheetatlas

import (
	"fmt"
	"strings"
)

// CellName renders 0-based coordinates as a spreadsheet-style address:
// (0,0)→"A1", (2,1)→"B3".
func CellName(row, col int) string {
	return ColumnName(col) + fmt.Sprintf("%d", row+1)
}

// ColumnName converts a 0-based column index to a column letter name.
// 0→"A", 25→"Z", 26→"AA".
func ColumnName(col int) string {
	result := ""
	col++ // 1-based for the algorithm
	for col > 0 {
		col-- // adjust for 0-indexed letter
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// ColumnIndex converts a column letter name to a 0-based index.
// "A"→0, "Z"→25, "AA"→26.
func ColumnIndex(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// ParseCellName parses an address like "A1", "$B$3" or "Sheet1!C5" into
// 0-based coordinates. A sheet prefix is accepted and discarded.
func ParseCellName(s string) (row, col int, err error) {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.ReplaceAll(s, "$", "")
	if s == "" {
		return 0, 0, fmt.Errorf("empty cell name")
	}

	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i == 0 || i == len(s) {
		return 0, 0, fmt.Errorf("invalid cell name: %q", s)
	}

	col, err = ColumnIndex(s[:i])
	if err != nil {
		return 0, 0, err
	}

	rowNum := 0
	for _, ch := range s[i:] {
		if ch < '0' || ch > '9' {
			return 0, 0, fmt.Errorf("invalid row in cell name: %q", s)
		}
		rowNum = rowNum*10 + int(ch-'0')
	}
	if rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row number in cell name: %q", s)
	}
	return rowNum - 1, col, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
