package sheetatlas

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizeStatus reports how a normalization attempt ended.
type NormalizeStatus int

const (
	// NormalizeOK means the value passed through or was parsed cleanly.
	NormalizeOK NormalizeStatus = iota
	// NormalizeWarning means the value is usable but was flagged, e.g.
	// whitespace had to be cleaned before it parsed.
	NormalizeWarning
	// NormalizeFailed means the value claims a structure it breaks; no
	// cleaned value is produced.
	NormalizeFailed
)

// NormalizeResult carries the outcome of normalizing one raw value. On
// NormalizeFailed, Value is Empty, Kind is KindEmpty, and Issue/Message
// describe the problem. Failures are data quality reports, never panics.
type NormalizeResult struct {
	Value   Value
	Kind    Kind
	Status  NormalizeStatus
	Issue   QualityIssue
	Message string
}

// Normalizer cleans and parses raw cell values into typed ones. Build it
// with NewNormalizer; the zero value is not usable.
type Normalizer struct {
	dates      bool
	currency   bool
	booleans   bool
	textClean  bool
	dateSystem DateSystem
	pool       *InternPool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithDateParsing toggles serial and literal date recognition (default on).
func WithDateParsing(on bool) NormalizerOption {
	return func(n *Normalizer) { n.dates = on }
}

// WithCurrencyCleaning toggles currency symbol stripping before numeric
// parsing (default on).
func WithCurrencyCleaning(on bool) NormalizerOption {
	return func(n *Normalizer) { n.currency = on }
}

// WithBooleanParsing toggles recognition of boolean encodings (default on).
func WithBooleanParsing(on bool) NormalizerOption {
	return func(n *Normalizer) { n.booleans = on }
}

// WithTextCleaning toggles whitespace and invisible-character cleanup
// (default on).
func WithTextCleaning(on bool) NormalizerOption {
	return func(n *Normalizer) { n.textClean = on }
}

// WithDateSystem sets the workbook's serial-date epoch (default 1900).
func WithDateSystem(d DateSystem) NormalizerOption {
	return func(n *Normalizer) { n.dateSystem = d }
}

// WithNormalizerPool shares an interning pool for cleaned text.
func WithNormalizerPool(p *InternPool) NormalizerOption {
	return func(n *Normalizer) { n.pool = p }
}

// NewNormalizer creates a Normalizer with all features enabled and the 1900
// date system unless options say otherwise.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{dates: true, currency: true, booleans: true, textClean: true}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DateSystem returns the epoch convention the normalizer applies.
func (n *Normalizer) DateSystem() DateSystem { return n.dateSystem }

// Normalize cleans and parses one raw value, guided by the cell's number
// format code. Typed values pass through except numerics under a date
// format, which convert to DateTime. Text is cleaned, then probed as
// number, boolean, and date literal, in that order. Malformed business data
// comes back as a result, never as a panic.
func (n *Normalizer) Normalize(raw Value, numberFormat string) NormalizeResult {
	switch raw.Kind() {
	case KindEmpty:
		return NormalizeResult{Status: NormalizeOK}
	case KindInteger, KindNumber:
		return n.normalizeNumeric(raw, numberFormat)
	case KindText:
		return n.normalizeText(raw.AsText(), numberFormat)
	default:
		return NormalizeResult{Value: raw, Kind: raw.Kind(), Status: NormalizeOK}
	}
}

// normalizeNumeric converts serial dates when the format hint says the
// number renders as a date.
func (n *Normalizer) normalizeNumeric(raw Value, numberFormat string) NormalizeResult {
	if !n.dates || !IsDateFormat(numberFormat) {
		return NormalizeResult{Value: raw, Kind: raw.Kind(), Status: NormalizeOK}
	}
	serial := raw.AsNumber()
	if raw.Kind() == KindInteger {
		serial = float64(raw.AsInteger())
	}
	t, err := SerialToTime(serial, n.dateSystem)
	if err != nil {
		return NormalizeResult{
			Status:  NormalizeFailed,
			Issue:   IssueOutOfRange,
			Message: fmt.Sprintf("value %s has date format %q but is not a valid serial date: %v", raw, numberFormat, err),
		}
	}
	return NormalizeResult{Value: FromDateTime(t), Kind: KindDateTime, Status: NormalizeOK}
}

func (n *Normalizer) normalizeText(raw string, numberFormat string) NormalizeResult {
	cleaned := raw
	if n.textClean {
		cleaned = CleanText(raw)
	}
	changed := cleaned != raw

	if cleaned == "" {
		return NormalizeResult{
			Status:  NormalizeWarning,
			Issue:   IssueExtraWhitespace,
			Message: "value contains only whitespace",
		}
	}
	if strings.ContainsRune(cleaned, '�') {
		return NormalizeResult{
			Status:  NormalizeFailed,
			Issue:   IssueInvalidCharacters,
			Message: fmt.Sprintf("value %q contains replacement characters", raw),
		}
	}
	if IsFormulaError(cleaned) {
		return NormalizeResult{
			Status:  NormalizeFailed,
			Issue:   IssueInvalidCharacters,
			Message: fmt.Sprintf("formula error marker %q", cleaned),
		}
	}

	numeric := cleaned
	if n.currency {
		if stripped, ok := StripCurrency(cleaned); ok {
			numeric = stripped
		}
	}
	if v, ok := parseLocaleNumber(numeric, formatDecimalPlaces(numberFormat)); ok {
		return n.finish(v, changed)
	}
	if n.booleans {
		if b, ok := parseBooleanToken(cleaned); ok {
			return n.finish(FromBoolean(b), changed)
		}
	}
	if n.dates {
		if t, ok := parseDateLiteral(cleaned); ok {
			return n.finish(FromDateTime(t), changed)
		}
	}

	if n.pool != nil {
		cleaned = n.pool.Intern(cleaned)
	}
	return n.finish(Value{kind: KindText, text: cleaned}, changed)
}

func (n *Normalizer) finish(v Value, cleanedWhitespace bool) NormalizeResult {
	r := NormalizeResult{Value: v, Kind: v.Kind(), Status: NormalizeOK}
	if cleanedWhitespace {
		r.Status = NormalizeWarning
		r.Issue = IssueExtraWhitespace
		r.Message = "value required whitespace cleanup"
	}
	return r
}

// CleanText trims a string and removes the invisible characters that leak
// out of spreadsheets: zero-width marks, BOMs, non-breaking spaces, control
// characters, and full-width forms (folded to their narrow equivalents).
func CleanText(s string) string {
	if s == "" {
		return s
	}
	folded := width.Fold.String(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			continue
		case '\u00a0', '\u202f', '\t', '\r', '\n':
			b.WriteByte(' ')
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// formulaErrors are the literal error markers spreadsheet engines leave in
// cells when a formula fails.
var formulaErrors = map[string]bool{
	"#DIV/0!": true,
	"#N/A":    true,
	"#NAME?":  true,
	"#NULL!":  true,
	"#NUM!":   true,
	"#REF!":   true,
	"#VALUE!": true,
	"#SPILL!": true,
}

// IsFormulaError reports whether s is a formula error marker like "#REF!".
func IsFormulaError(s string) bool {
	return formulaErrors[strings.ToUpper(strings.TrimSpace(s))]
}

// parseBooleanToken recognizes the common boolean encodings: true/false,
// yes/no, y/n, and the checkbox "x". Bare "1"/"0" are handled by the numeric
// parse that runs first.
func parseBooleanToken(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "x":
		return true, true
	case "false", "no", "n":
		return false, true
	}
	return false, false
}

// parseLocaleNumber parses a number whose decimal and thousands separators
// may follow either convention. When both "." and "," appear, the one
// further right is the decimal separator. A lone "," is a thousands
// separator when it forms groups of three, unless the format hint expects
// exactly that many decimal digits. A value without any decimal separator
// parses as Integer.
func parseLocaleNumber(s string, hintDecimals int) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	var normalized string
	hadDecimal := false
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			normalized = strings.ReplaceAll(s, ",", "")
		} else {
			normalized = strings.ReplaceAll(s, ".", "")
			normalized = strings.Replace(normalized, ",", ".", 1)
		}
		hadDecimal = true
	case lastComma >= 0:
		frac := s[lastComma+1:]
		if hintDecimals > 0 && len(frac) == hintDecimals && digitsOnly(frac) && strings.Count(s, ",") == 1 {
			normalized = strings.Replace(s, ",", ".", 1)
			hadDecimal = true
		} else if validThousandsGroups(s) {
			normalized = strings.ReplaceAll(s, ",", "")
		} else if strings.Count(s, ",") == 1 && digitsOnly(frac) && len(frac) > 0 && len(frac) != 3 {
			normalized = strings.Replace(s, ",", ".", 1)
			hadDecimal = true
		} else {
			return Value{}, false
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			dotted := strings.ReplaceAll(s, ".", ",")
			if !validThousandsGroups(dotted) {
				return Value{}, false
			}
			normalized = strings.ReplaceAll(s, ".", "")
		} else {
			normalized = s
			hadDecimal = true
		}
	default:
		normalized = s
	}

	if !hadDecimal {
		if i, err := strconv.ParseInt(normalized, 10, 64); err == nil {
			return FromInteger(i), true
		}
	}
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return Value{}, false
	}
	return FromNumber(f), true
}

func digitsOnly(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return len(s) > 0
}

// IsDateFormat reports whether a number format code renders its value as a
// date or time: it looks for date tokens (y, m, d, h, s) outside quoted
// literals, colors, conditions and locale sections. Elapsed-time brackets
// like [hh] count; color brackets like [Magenta] do not.
func IsDateFormat(code string) bool {
	if code == "" || strings.EqualFold(code, "General") {
		return false
	}
	inQuote := false
	inBracket := false
	var bracket strings.Builder
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
				if isElapsedTimeToken(bracket.String()) {
					return true
				}
				break
			}
			bracket.WriteByte(ch)
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
			bracket.Reset()
		case ch == '\\':
			i++
		case ch == 'y' || ch == 'Y' || ch == 'm' || ch == 'M' || ch == 'd' || ch == 'D' ||
			ch == 'h' || ch == 'H' || ch == 's' || ch == 'S':
			return true
		}
	}
	return false
}

// isElapsedTimeToken reports whether a bracket body is an elapsed-time token
// such as "h", "hh", "mm" or "ss".
func isElapsedTimeToken(body string) bool {
	if body == "" {
		return false
	}
	for _, ch := range strings.ToLower(body) {
		if ch != 'h' && ch != 'm' && ch != 's' {
			return false
		}
	}
	return true
}

// formatDecimalPlaces counts the decimal digits the primary section of a
// number format expects, e.g. 2 for "#,##0.00".
func formatDecimalPlaces(code string) int {
	if code == "" {
		return 0
	}
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	dot := strings.IndexByte(code, '.')
	if dot < 0 {
		return 0
	}
	n := 0
	for _, ch := range code[dot+1:] {
		if ch == '0' || ch == '#' {
			n++
			continue
		}
		break
	}
	return n
}
