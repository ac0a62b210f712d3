package sheetatlas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ZeroIsEmpty(t *testing.T) {
	var v Value
	assert.Equal(t, KindEmpty, v.Kind())
	assert.True(t, v.IsEmpty())
	assert.Equal(t, "", v.String())
}

func TestValue_RoundTrips(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, "hello", FromText("hello").AsText())
	assert.Equal(t, int64(-42), FromInteger(-42).AsInteger())
	assert.Equal(t, 3.25, FromNumber(3.25).AsNumber())
	assert.Equal(t, true, FromBoolean(true).AsBoolean())
	assert.Equal(t, ts, FromDateTime(ts).AsDateTime())
}

func TestValue_MismatchedAccessorsReturnDefaults(t *testing.T) {
	v := FromText("not a number")
	assert.Equal(t, int64(0), v.AsInteger())
	assert.Equal(t, 0.0, v.AsNumber())
	assert.False(t, v.AsBoolean())
	assert.True(t, v.AsDateTime().IsZero())

	n := FromInteger(7)
	assert.Equal(t, "", n.AsText())
	assert.Equal(t, 0.0, n.AsNumber(), "integer content must not leak through the number accessor")
}

func TestValue_EmptyTextCollapsesToEmpty(t *testing.T) {
	v := FromText("")
	assert.True(t, v.IsEmpty())
	assert.Equal(t, KindEmpty, v.Kind())
}

func TestValue_DateTimeTruncatesToMicroseconds(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 1234, time.UTC) // 1234ns
	got := FromDateTime(ts).AsDateTime()
	assert.Equal(t, time.Date(2024, 3, 15, 9, 30, 0, 1000, time.UTC), got)
}

func TestValue_DateTimeKeepsPreEpochTimes(t *testing.T) {
	ts := time.Date(1931, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, FromDateTime(ts).AsDateTime())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, FromNumber(0.1+0.2).Equal(FromNumber(0.3)), "near-equal numbers compare equal")
	assert.False(t, FromNumber(0.3).Equal(FromNumber(0.3001)))
	assert.True(t, FromText("a").Equal(FromText("a")))
	assert.False(t, FromText("a").Equal(FromText("A")))
	assert.False(t, FromInteger(1).Equal(FromNumber(1)), "kinds must match")
	assert.True(t, Empty().Equal(Empty()))
	assert.True(t, FromBoolean(false).Equal(FromBoolean(false)))
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"empty", Empty(), ""},
		{"text", FromText("abc"), "abc"},
		{"integer", FromInteger(-12), "-12"},
		{"number", FromNumber(2.5), "2.5"},
		{"bool true", FromBoolean(true), "true"},
		{"bool false", FromBoolean(false), "false"},
		{"date only", FromDateTime(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), "2024-01-15"},
		{"date and time", FromDateTime(time.Date(2024, 1, 15, 13, 45, 9, 0, time.UTC)), "2024-01-15 13:45:09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestFromString_ParsesMostSpecificKind(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
	}{
		{"", KindEmpty},
		{"42", KindInteger},
		{"-7", KindInteger},
		{"3.14", KindNumber},
		{"1,234.5", KindNumber},
		{"1e3", KindNumber},
		{"true", KindBoolean},
		{"FALSE", KindBoolean},
		{"2024-01-15", KindDateTime},
		{"01/15/2024", KindDateTime},
		{"2024-01-15T08:00:00", KindDateTime},
		{"hello", KindText},
		{"1,23", KindText},
		{"12:30", KindText},
		{"yes", KindText},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.kind, FromString(tt.raw, nil).Kind(), "raw %q", tt.raw)
		})
	}
}

func TestFromString_InternsTextFallback(t *testing.T) {
	pool := NewInternPool()
	a := FromString("widget", pool)
	b := FromString("widget", pool)
	require.Equal(t, KindText, a.Kind())
	assert.Equal(t, a.AsText(), b.AsText())
	assert.Equal(t, 1, pool.Len())
}

func TestParseFloatInvariant_ThousandsGroups(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234", 1234, true},
		{"12,345,678.9", 12345678.9, true},
		{"1,23", 0, false},
		{"12,3456", 0, false},
		{",123", 0, false},
		{"1,234.5,6", 0, false},
		{"-1,234.5", -1234.5, true},
	}
	for _, tt := range tests {
		got, ok := parseFloatInvariant(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "input %q", tt.in)
		}
	}
}
