package sheetatlas

import (
	"fmt"
	"math"
	"time"
)

// DateSystem selects the workbook's serial-date epoch convention.
type DateSystem int

const (
	// Date1900 is the default system: day 1 is 1900-01-01, and the format
	// inherits the phantom 1900-02-29 (serial 60) from Lotus 1-2-3.
	Date1900 DateSystem = iota
	// Date1904 starts at 1904-01-01 and has no leap quirk.
	Date1904
)

// String returns the conventional name of the date system.
func (d DateSystem) String() string {
	if d == Date1904 {
		return "1904"
	}
	return "1900"
}

// SerialDateError reports a serial that cannot represent a date.
type SerialDateError struct {
	Serial float64
	Reason string
}

func (e *SerialDateError) Error() string {
	return fmt.Sprintf("serial date %v: %s", e.Serial, e.Reason)
}

var (
	epoch1900       = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Minus1 = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	epoch1904       = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Serial values at or above these correspond to the year 10000.
const (
	serialTooLarge1900 = 2958466
	serialTooLarge1904 = 2957004
)

// SerialToTime converts a spreadsheet serial date to a UTC time under the
// given date system. In the 1900 system, serials below 60 predate the
// phantom leap day and use an epoch one day later, so 59 maps to 1900-02-28
// and 61 to 1900-03-01; serial 60 itself lands on 1900-02-28 as the closest
// real day.
func SerialToTime(serial float64, system DateSystem) (time.Time, error) {
	if serial < 0 {
		return time.Time{}, &SerialDateError{Serial: serial, Reason: "negative"}
	}
	var epoch time.Time
	switch {
	case system == Date1904:
		if serial >= serialTooLarge1904 {
			return time.Time{}, &SerialDateError{Serial: serial, Reason: "beyond year 9999"}
		}
		epoch = epoch1904
	case serial < 60:
		epoch = epoch1900
	default:
		if serial >= serialTooLarge1900 {
			return time.Time{}, &SerialDateError{Serial: serial, Reason: "beyond year 9999"}
		}
		epoch = epoch1900Minus1
	}

	days := math.Floor(serial)
	frac := serial - days
	t := epoch.AddDate(0, 0, int(days))
	if frac > 0 {
		t = t.Add(time.Duration(math.Round(frac * float64(24*time.Hour))))
	}
	return t, nil
}

// TimeToSerial converts a time to its spreadsheet serial under the given
// date system. It is the inverse of SerialToTime for every representable
// serial except the phantom 60.
func TimeToSerial(t time.Time, system DateSystem) float64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	frac := float64(t.Sub(midnight)) / float64(24*time.Hour)

	if system == Date1904 {
		days := daysBetween(epoch1904, midnight)
		return float64(days) + frac
	}
	days := daysBetween(epoch1900Minus1, midnight)
	if days < 61 {
		days = daysBetween(epoch1900, midnight)
	}
	return float64(days) + frac
}

func daysBetween(from, to time.Time) int {
	// Unix seconds rather than Sub: a Duration overflows past ~292 years.
	return int((to.Unix() - from.Unix()) / 86400)
}
