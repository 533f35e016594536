package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared scalar kind of a column.
type Kind int

const (
	// KindText is generic text (an "object" column).
	KindText Kind = iota
	KindInteger
	KindFloat
	// KindCategorical is a text column explicitly declared as a categorical label.
	KindCategorical
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindCategorical:
		return "categorical"
	case KindDatetime:
		return "datetime"
	default:
		return "text"
	}
}

// IsNumeric reports whether the kind holds integer or floating point values.
func (k Kind) IsNumeric() bool { return k == KindInteger || k == KindFloat }

// IsLabel reports whether the kind holds text or categorical labels.
func (k Kind) IsLabel() bool { return k == KindText || k == KindCategorical }

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrEmptyColumnName = errors.New("empty column name")
	ErrLengthMismatch  = errors.New("column length mismatch")
)

// Column is a named, typed column. Exactly one of the value slices is populated,
// chosen by Kind. Integer columns also keep their exact values in ints.
type Column struct {
	Name string
	Kind Kind

	text  []string
	nums  []float64
	ints  []int64
	times []time.Time
}

// NewText builds a text column; empty strings are missing values.
func NewText(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindText, text: append([]string(nil), values...)}
}

// NewCategorical builds a categorical column; empty strings are missing values.
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindCategorical, text: append([]string(nil), values...)}
}

// NewFloat builds a floating point column; NaN marks a missing value.
func NewFloat(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindFloat, nums: append([]float64(nil), values...)}
}

// NewInteger builds an integer column. Integer columns have no missing values.
func NewInteger(name string, values []int64) *Column {
	nums := make([]float64, len(values))
	for i, v := range values {
		nums[i] = float64(v)
	}
	return &Column{Name: name, Kind: KindInteger, nums: nums, ints: append([]int64(nil), values...)}
}

// NewDatetime builds a datetime column; the zero time marks a missing value.
func NewDatetime(name string, values []time.Time) *Column {
	return &Column{Name: name, Kind: KindDatetime, times: append([]time.Time(nil), values...)}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch {
	case c.Kind.IsNumeric():
		return len(c.nums)
	case c.Kind == KindDatetime:
		return len(c.times)
	default:
		return len(c.text)
	}
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	switch {
	case c.Kind.IsNumeric():
		return math.IsNaN(c.nums[i])
	case c.Kind == KindDatetime:
		return c.times[i].IsZero()
	default:
		return c.text[i] == ""
	}
}

// Text returns the label value at row i. Only meaningful for text and categorical columns.
func (c *Column) Text(i int) string {
	if !c.Kind.IsLabel() {
		return ""
	}
	return c.text[i]
}

// Float returns the numeric value at row i and whether it is present.
func (c *Column) Float(i int) (float64, bool) {
	if !c.Kind.IsNumeric() || math.IsNaN(c.nums[i]) {
		return 0, false
	}
	return c.nums[i], true
}

// Time returns the datetime value at row i and whether it is present.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Kind != KindDatetime || c.times[i].IsZero() {
		return time.Time{}, false
	}
	return c.times[i], true
}

const missingKey = "\x00"

// Key returns a canonical string for the value at row i, used for distinct and
// duplicate counting. All missing values share one key.
func (c *Column) Key(i int) string {
	if c.IsMissing(i) {
		return missingKey
	}
	switch {
	case c.Kind == KindInteger:
		return strconv.FormatInt(c.ints[i], 10)
	case c.Kind == KindFloat:
		v := c.nums[i]
		if v == 0 {
			v = 0 // -0 and 0 are one value
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case c.Kind == KindDatetime:
		return c.times[i].UTC().Format(time.RFC3339Nano)
	default:
		return c.text[i]
	}
}

// Format renders the value at row i for display; missing values render empty.
func (c *Column) Format(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch {
	case c.Kind == KindInteger:
		return strconv.FormatInt(c.ints[i], 10)
	case c.Kind == KindFloat:
		return strconv.FormatFloat(c.nums[i], 'g', -1, 64)
	case c.Kind == KindDatetime:
		return c.times[i].Format(time.RFC3339)
	default:
		return c.text[i]
	}
}

// Missing counts rows without a value.
func (c *Column) Missing() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// MissingRatio is the fraction of rows without a value, 0 for an empty column.
func (c *Column) MissingRatio() float64 {
	if c.Len() == 0 {
		return 0
	}
	return float64(c.Missing()) / float64(c.Len())
}

// Distinct counts distinct non-missing values.
func (c *Column) Distinct() int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		seen[c.Key(i)] = struct{}{}
	}
	return len(seen)
}

// Counts returns occurrences per distinct non-missing value key.
func (c *Column) Counts() map[string]int {
	out := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		out[c.Key(i)]++
	}
	return out
}

// Numbers returns the non-missing values of a numeric column in row order.
func (c *Column) Numbers() []float64 {
	if !c.Kind.IsNumeric() {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for _, v := range c.nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an immutable table of equally long, uniquely named columns.
type Dataset struct {
	// Name is the source name (usually a file base name); may be empty.
	Name string
	// SourceRows is the row count of the source before MaxRows truncation.
	SourceRows int

	cols  []*Column
	index map[string]int
	rows  int
}

// New validates and assembles columns into a Dataset.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyColumnName)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.Name, c.Len(), d.rows)
		}
		d.index[c.Name] = i
		d.cols = append(d.cols, c)
	}
	d.SourceRows = d.rows
	return d, nil
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Cols returns the column count.
func (d *Dataset) Cols() int { return len(d.cols) }

// Columns returns the columns in declared order.
func (d *Dataset) Columns() []*Column { return append([]*Column(nil), d.cols...) }

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// Names returns column names in declared order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Truncated reports whether rows were dropped by a MaxRows limit while loading.
func (d *Dataset) Truncated() bool { return d.SourceRows > d.rows }

// DuplicateRatio is the fraction of rows identical to an earlier row.
func (d *Dataset) DuplicateRatio() float64 {
	if d.rows == 0 || len(d.cols) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, d.rows)
	dups := 0
	var b strings.Builder
	for i := 0; i < d.rows; i++ {
		b.Reset()
		for j, c := range d.cols {
			if j > 0 {
				b.WriteByte('\x1f')
			}
			b.WriteString(c.Key(i))
		}
		k := b.String()
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return float64(dups) / float64(d.rows)
}
