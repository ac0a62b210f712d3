// Package xlsxreader loads xlsx workbooks into sheetatlas sheets using
// excelize. It reads raw cell values, formulas, number formats, merged
// ranges and column layout, and leaves all cleaning and analysis to the
// enrichment pass.
package xlsxreader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetatlas/sheetatlas"
)

// ErrNoSheets is returned when a workbook has no sheets at all.
var ErrNoSheets = errors.New("workbook contains no sheets")

// Excel's default column width for columns without an explicit width.
const defaultColumnWidth = 9.140625

// Workbook holds the sheets read from one xlsx file, in workbook order.
type Workbook struct {
	Sheets     []*sheetatlas.Sheet
	DateSystem sheetatlas.DateSystem
}

// Sheet returns the sheet with the given name, or nil.
func (w *Workbook) Sheet(name string) *sheetatlas.Sheet {
	for _, s := range w.Sheets {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// Close releases every sheet in the workbook.
func (w *Workbook) Close() error {
	var err error
	for _, s := range w.Sheets {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Load opens an xlsx file and reads all its sheets.
func Load(path string, opts ...Option) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()
	return read(f, opts)
}

// LoadReader reads an xlsx workbook from a stream.
func LoadReader(rd io.Reader, opts ...Option) (*Workbook, error) {
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return read(f, opts)
}

func read(f *excelize.File, opts []Option) (*Workbook, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}

	wb := &Workbook{DateSystem: sheetatlas.Date1900}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil && *props.Date1904 {
		wb.DateSystem = sheetatlas.Date1904
	}

	r := &reader{file: f, opts: o, formats: make(map[int]cellFormat)}
	for _, name := range names {
		sheet, err := r.readSheet(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

type reader struct {
	file    *excelize.File
	opts    *Options
	formats map[int]cellFormat // styleID → resolved number format
}

type cellFormat struct {
	id   int
	code string
}

func (r *reader) readSheet(name string) (*sheetatlas.Sheet, error) {
	rows, err := r.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if n := len(r.opts.columnNames); n > colCount {
		colCount = n
	}
	if colCount == 0 {
		colCount = 1
	}

	headerRows := r.opts.headerRows
	if headerRows < 0 {
		headerRows = detectHeaderRows(rows, r.opts.maxHeaderScan)
	}
	if headerRows > len(rows) {
		headerRows = len(rows)
	}

	sheet := sheetatlas.NewSheet(name, columnNames(rows, headerRows, colCount, r.opts.columnNames))

	for rowIdx, row := range rows {
		cells := make([]sheetatlas.Cell, colCount)
		for colIdx := 0; colIdx < colCount; colIdx++ {
			raw := ""
			if colIdx < len(row) {
				raw = row[colIdx]
			}
			cells[colIdx] = r.readCell(name, rowIdx, colIdx, raw)
		}
		sheet.AddRow(cells)
	}
	sheet.SetHeaderRowCount(headerRows)
	sheet.TrimExcess()

	if err := r.readMerges(name, sheet); err != nil {
		return nil, err
	}
	r.readColumnLayout(name, sheet, colCount)
	return sheet, nil
}

// readCell converts one raw cell into a store cell, attaching formula and
// number-format metadata when present. Cells with no raw value stay empty
// and carry no metadata.
func (r *reader) readCell(sheetName string, row, col int, raw string) sheetatlas.Cell {
	if raw == "" {
		return sheetatlas.NewCell(sheetatlas.Empty())
	}
	axis := sheetatlas.CellName(row, col)

	ctype, _ := r.file.GetCellType(sheetName, axis)
	cell := sheetatlas.NewCell(r.convertValue(ctype, raw))

	if formula, err := r.file.GetCellFormula(sheetName, axis); err == nil && formula != "" {
		cell.EnsureMeta().Formula = formula
	}
	if styleID, err := r.file.GetCellStyle(sheetName, axis); err == nil && styleID > 0 {
		if cf, ok := r.cellFormat(styleID); ok {
			m := cell.EnsureMeta()
			m.Style = &sheetatlas.CellStyle{ID: styleID, NumberFormatID: cf.id}
			m.NumberFormat = cf.code
		}
	}
	return cell
}

// convertValue maps an excelize cell type onto a tagged value. Error cells
// keep their marker text so analysis can flag them; formula results and
// untyped cells are sniffed from their raw text.
func (r *reader) convertValue(ctype excelize.CellType, raw string) sheetatlas.Value {
	switch ctype {
	case excelize.CellTypeBool:
		return sheetatlas.FromBoolean(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeNumber:
		if v, ok := numberValue(raw); ok {
			return v
		}
		return r.text(raw)
	case excelize.CellTypeError, excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return r.text(raw)
	default:
		// CellTypeDate, CellTypeFormula, CellTypeUnset
		return sheetatlas.FromString(raw, r.opts.pool)
	}
}

func (r *reader) text(raw string) sheetatlas.Value {
	if r.opts.pool != nil {
		return sheetatlas.FromText(r.opts.pool.Intern(raw))
	}
	return sheetatlas.FromText(raw)
}

func numberValue(raw string) (sheetatlas.Value, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return sheetatlas.FromInteger(n), true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return sheetatlas.FromNumber(f), true
	}
	return sheetatlas.Empty(), false
}

// cellFormat resolves a style to its number format, preferring a custom
// format code over the builtin table. Results are cached per style id.
func (r *reader) cellFormat(styleID int) (cellFormat, bool) {
	cf, ok := r.formats[styleID]
	if !ok {
		if style, err := r.file.GetStyle(styleID); err == nil && style != nil {
			cf.id = style.NumFmt
			if style.CustomNumFmt != nil {
				cf.code = *style.CustomNumFmt
			} else {
				cf.code = builtinFormats[style.NumFmt]
			}
		}
		r.formats[styleID] = cf
	}
	return cf, cf.id != 0 || cf.code != ""
}

func (r *reader) readMerges(name string, sheet *sheetatlas.Sheet) error {
	merges, err := r.file.GetMergeCells(name)
	if err != nil {
		return fmt.Errorf("read merged cells: %w", err)
	}
	for _, mc := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}
		sheet.AddMergedRange(sheetatlas.MergedRange{
			StartRow: startRow - 1,
			StartCol: startCol - 1,
			EndRow:   endRow - 1,
			EndCol:   endCol - 1,
		})
	}
	return nil
}

// readColumnLayout records width and visibility for columns that differ
// from the defaults. Unremarkable columns get no metadata.
func (r *reader) readColumnLayout(name string, sheet *sheetatlas.Sheet, colCount int) {
	for col := 0; col < colCount; col++ {
		letter := sheetatlas.ColumnName(col)
		width, werr := r.file.GetColWidth(name, letter)
		visible, verr := r.file.GetColVisible(name, letter)

		hidden := verr == nil && !visible
		custom := werr == nil && math.Abs(width-defaultColumnWidth) > 1e-6
		if !hidden && !custom {
			continue
		}
		meta := &sheetatlas.ColumnMetadata{Hidden: hidden}
		if custom {
			meta.Width = width
		}
		sheet.SetColumnMetadata(col, meta)
	}
}

// detectHeaderRows counts the leading rows before the first row containing
// numeric content, bounded by the scan limit. A window with no numeric row
// at all is treated as a single header row when data rows follow.
func detectHeaderRows(rows [][]string, maxScan int) int {
	limit := len(rows)
	if limit > maxScan {
		limit = maxScan
	}
	for i := 0; i < limit; i++ {
		if rowLooksNumeric(rows[i]) {
			return i
		}
	}
	if len(rows) > 1 {
		return 1
	}
	return 0
}

func rowLooksNumeric(row []string) bool {
	for _, cell := range row {
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			return true
		}
	}
	return false
}

// columnNames builds the final column names: explicit overrides first, then
// the last header row's text, then column letters.
func columnNames(rows [][]string, headerRows, colCount int, explicit []string) []string {
	var header []string
	if headerRows > 0 && headerRows <= len(rows) {
		header = rows[headerRows-1]
	}
	names := make([]string, colCount)
	for i := range names {
		switch {
		case i < len(explicit) && explicit[i] != "":
			names[i] = explicit[i]
		case i < len(header) && strings.TrimSpace(header[i]) != "":
			names[i] = strings.TrimSpace(header[i])
		default:
			names[i] = sheetatlas.ColumnName(i)
		}
	}
	return names
}

// builtinFormats maps the builtin number format ids from the spreadsheet
// format to their format codes. Custom formats live in the style table and
// override these.
var builtinFormats = map[int]string{
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[red](#,##0.00)",
	41: `_(* #,##0_);_(* \(#,##0\);_(* "-"_);_(@_)`,
	42: `_("$"* #,##0_);_("$"* \(#,##0\);_("$"* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* \(#,##0.00\);_(* "-"??_);_(@_)`,
	44: `_("$"* #,##0.00_);_("$"* \(#,##0.00\);_("$"* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}
