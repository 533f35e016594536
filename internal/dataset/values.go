package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

// IsMissingToken reports whether a raw cell denotes a missing value.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// numberFormat carries the separators used when parsing numeric cells.
type numberFormat struct {
	decimal   rune
	thousands rune
}

func (o Options) numberFormat() numberFormat {
	f := numberFormat{decimal: o.DecimalSeparator, thousands: o.ThousandsSeparator}
	if f.decimal == 0 {
		f.decimal = '.'
	}
	return f
}

func (f numberFormat) normalize(s string) string {
	raw := strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
	if f.thousands != 0 && f.thousands != f.decimal {
		raw = strings.ReplaceAll(raw, string(f.thousands), "")
	}
	if f.decimal != '.' {
		raw = strings.ReplaceAll(raw, string(f.decimal), ".")
	}
	return raw
}

func (f numberFormat) parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(f.normalize(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (f numberFormat) parseFloat(s string) (float64, bool) {
	x, err := strconv.ParseFloat(f.normalize(s), 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

// Parsed times outside the nanosecond timestamp range are treated as unparseable.
// dateparse reports year 0 for free text such as "Paris, France".
var (
	minTime = time.Date(1677, time.September, 21, 0, 12, 44, 0, time.UTC)
	maxTime = time.Date(2262, time.April, 11, 23, 47, 16, 0, time.UTC)
)

// ParseTime tries the common fixed layouts first and then a best-effort format
// guess. Unparseable input reports false; it never fails hard. Input without
// any digit is never a date.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if IsMissingToken(s) || !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, inTimeRange(t)
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil || !inTimeRange(t) {
		return time.Time{}, false
	}
	return t, true
}

func inTimeRange(t time.Time) bool {
	return !t.Before(minTime) && !t.After(maxTime)
}
