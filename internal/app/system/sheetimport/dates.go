package sheetimport

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reDMY     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reYMDDot  = regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})$`)
	reYMDDash = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	reYear    = regexp.MustCompile(`^(\d{4})$`)
	reSerial  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Layouts tried by the fallback step, in order.
var fallbackLayouts = []string{
	time.RFC3339,
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"02/01/06",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Excel counts days from 1899-12-30 (the 1900 leap-year bug included).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate reads a spreadsheet date. Formats are tried in a fixed order and
// the first that matches wins: DD/MM/YYYY, YYYY.MM.DD, YYYY-MM-DD, a bare
// year (January 1st), then the fallback layouts and Excel serial numbers.
// The result is midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := reDMY.FindStringSubmatch(s); m != nil {
		return ymd(m[3], m[2], m[1])
	}
	if m := reYMDDot.FindStringSubmatch(s); m != nil {
		return ymd(m[1], m[2], m[3])
	}
	if m := reYMDDash.FindStringSubmatch(s); m != nil {
		return ymd(m[1], m[2], m[3])
	}
	if m := reYear.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		if y < 1900 || y > 2100 {
			return time.Time{}, false
		}
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return fallback(s)
}

func fallback(s string) (time.Time, bool) {
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	if reSerial.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		// 1..73050 covers 1900-01-01 through 2099-12-31.
		if err == nil && f >= 1 && f < 73051 {
			return excelEpoch.AddDate(0, 0, int(f)), true
		}
	}
	return time.Time{}, false
}

// ymd builds a date and rejects out-of-range parts (31/02 does not roll over).
func ymd(ys, ms, ds string) (time.Time, bool) {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
