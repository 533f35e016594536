package strategy

import (
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/dataset"
)

// DetectDatetimeColumns returns the names of columns that look like dates or
// times, in declared column order.
//
// Native datetime columns always qualify. Text columns qualify on their date
// parse ratio over all rows, with a lower bar when the name hints at a date.
// Numeric columns qualify when most values sit in a plausible epoch window.
func DetectDatetimeColumns(ds *dataset.Dataset) []string {
	out := []string{}
	if ds == nil {
		return out
	}
	seen := make(map[string]struct{})
	for _, c := range ds.Columns() {
		if _, dup := seen[c.Name]; dup {
			continue
		}
		if isDatetimeColumn(c) {
			seen[c.Name] = struct{}{}
			out = append(out, c.Name)
		}
	}
	return out
}

func isDatetimeColumn(c *dataset.Column) bool {
	named := hasDateName(c.Name)
	switch {
	case c.Kind == dataset.KindDatetime:
		return true
	case c.Kind == dataset.KindText:
		ratio := dateParseRatio(c)
		return (named && ratio > DateParseRatioNamed) || ratio > DateParseRatio
	case c.Kind.IsNumeric():
		return epochRatio(c) > EpochRatio
	}
	return false
}

func hasDateName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range dateNameKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// dateParseRatio is the share of all rows that parse as a date; missing and
// unparseable cells both count as failures.
func dateParseRatio(c *dataset.Column) float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	ok := 0
	for i := 0; i < n; i++ {
		if c.IsMissing(i) {
			continue
		}
		if _, parsed := dataset.ParseTime(c.Text(i)); parsed {
			ok++
		}
	}
	return float64(ok) / float64(n)
}

// epochRatio is the share of all rows whose value lies in [EpochMin, EpochMax].
func epochRatio(c *dataset.Column) float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	in := 0
	for i := 0; i < n; i++ {
		if v, ok := c.Float(i); ok && v >= EpochMin && v <= EpochMax {
			in++
		}
	}
	return float64(in) / float64(n)
}
