package sheetatlas

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindInteger
	KindNumber
	KindBoolean
	KindDateTime
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindInteger:
		return "Integer"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindDateTime:
		return "DateTime"
	default:
		return "Unknown"
	}
}

// numberEpsilon is the tolerance used when comparing Number values.
const numberEpsilon = 1e-9

// Value is a tagged cell value holding exactly one of six variants:
// Empty, Text, Integer, Number, Boolean, DateTime. Integer, Number,
// Boolean and DateTime all live in the bits field, so building them never
// allocates; only Text carries a heap reference. The zero Value is Empty.
//
// Accessors are total: reading a variant that is not active returns that
// variant's zero default instead of panicking.
type Value struct {
	kind Kind
	bits uint64
	text string
}

// Empty returns the empty Value.
func Empty() Value { return Value{} }

// FromText creates a Text value. The empty string maps to Empty.
func FromText(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// FromInteger creates an Integer value.
func FromInteger(n int64) Value {
	return Value{kind: KindInteger, bits: uint64(n)}
}

// FromNumber creates a Number value.
func FromNumber(f float64) Value {
	return Value{kind: KindNumber, bits: math.Float64bits(f)}
}

// FromBoolean creates a Boolean value.
func FromBoolean(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.bits = 1
	}
	return v
}

// FromDateTime creates a DateTime value. The time is stored with microsecond
// precision in UTC; sub-microsecond digits and the original location are not
// retained.
func FromDateTime(t time.Time) Value {
	return Value{kind: KindDateTime, bits: uint64(t.UnixMicro())}
}

// FromString parses raw text into the most specific variant it matches,
// trying 64-bit integer, then float (invariant "." decimal with optional ","
// thousands groups), then boolean literals, then common date layouts, and
// falling back to Text. A non-nil pool deduplicates the Text fallback.
func FromString(raw string, pool *InternPool) Value {
	if raw == "" {
		return Value{}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return FromInteger(n)
	}
	if f, ok := parseFloatInvariant(raw); ok {
		return FromNumber(f)
	}
	if b, ok := parseBoolLiteral(raw); ok {
		return FromBoolean(b)
	}
	if t, ok := parseDateLiteral(raw); ok {
		return FromDateTime(t)
	}
	if pool != nil {
		raw = pool.Intern(raw)
	}
	return Value{kind: KindText, text: raw}
}

// Kind returns the active variant's discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the value is the Empty variant.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// AsText returns the text content, or "" for non-Text variants.
func (v Value) AsText() string {
	if v.kind != KindText {
		return ""
	}
	return v.text
}

// AsInteger returns the integer content, or 0 for non-Integer variants.
func (v Value) AsInteger() int64 {
	if v.kind != KindInteger {
		return 0
	}
	return int64(v.bits)
}

// AsNumber returns the float content, or 0 for non-Number variants.
func (v Value) AsNumber() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return math.Float64frombits(v.bits)
}

// AsBoolean returns the boolean content, or false for non-Boolean variants.
func (v Value) AsBoolean() bool {
	if v.kind != KindBoolean {
		return false
	}
	return v.bits != 0
}

// AsDateTime returns the time content in UTC, or the zero time for
// non-DateTime variants.
func (v Value) AsDateTime() time.Time {
	if v.kind != KindDateTime {
		return time.Time{}
	}
	return time.UnixMicro(int64(v.bits)).UTC()
}

// Equal compares two values. The discriminants must match; Number uses an
// epsilon tolerance, Text compares ordinally, everything else exactly.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindNumber:
		return math.Abs(v.AsNumber()-other.AsNumber()) < numberEpsilon
	default:
		return v.bits == other.bits
	}
}

// String renders the value for messages and reports. Empty renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return strconv.FormatInt(int64(v.bits), 10)
	case KindNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case KindBoolean:
		if v.bits != 0 {
			return "true"
		}
		return "false"
	case KindDateTime:
		t := v.AsDateTime()
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// parseFloatInvariant parses a float using invariant separators: "." is the
// decimal point and "," may appear as a thousands separator, but only in
// well-formed groups of three ("1,234.5" parses, "1,23" does not).
func parseFloatInvariant(s string) (float64, bool) {
	if strings.ContainsRune(s, ',') {
		if !validThousandsGroups(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// validThousandsGroups checks that every "," in the integer part sits between
// digit groups of exactly three.
func validThousandsGroups(s string) bool {
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		if strings.ContainsRune(s[i+1:], ',') {
			return false
		}
	}
	intPart = strings.TrimLeft(intPart, "+-")
	groups := strings.Split(intPart, ",")
	if len(groups) < 2 {
		return false
	}
	for i, g := range groups {
		if i == 0 {
			if len(g) < 1 || len(g) > 3 {
				return false
			}
		} else if len(g) != 3 {
			return false
		}
		for _, ch := range g {
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	return true
}

// parseBoolLiteral recognizes true/false, case-insensitively. Wider
// encodings (yes/no, x/blank) are the normalization layer's business.
func parseBoolLiteral(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// dateLayouts are the invariant layouts FromString probes, most specific
// first. All are date-bearing; time-only strings stay Text.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

func parseDateLiteral(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
