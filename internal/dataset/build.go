package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownColumn is returned when a caller names a column the dataset lacks.
var ErrUnknownColumn = errors.New("unknown column")

// table is the raw, untyped form produced by a loader before kind inference.
type table struct {
	header     []string
	rows       [][]string
	sourceRows int
}

// add appends a record unless MaxRows is reached; the source row count keeps growing.
func (t *table) add(rec []string, maxRows int) {
	t.sourceRows++
	if maxRows > 0 && len(t.rows) >= maxRows {
		return
	}
	row := make([]string, len(t.header))
	copy(row, rec)
	t.rows = append(t.rows, row)
}

// headerNames trims names, fills blanks, and suffixes repeats with ".N".
func headerNames(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	counts := make(map[string]int)
	for i, h := range raw {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if used[name] {
			base := name
			for {
				counts[base]++
				name = fmt.Sprintf("%s.%d", base, counts[base])
				if !used[name] {
					break
				}
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func (t *table) build(opt Options) (*Dataset, error) {
	names := headerNames(t.header)
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	dates := make(map[int]bool)
	for _, n := range opt.ParseDates {
		i, ok := index[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("parse dates: %w: %q", ErrUnknownColumn, n)
		}
		dates[i] = true
	}
	cats := make(map[int]bool)
	for _, n := range opt.Categorical {
		i, ok := index[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("categorical: %w: %q", ErrUnknownColumn, n)
		}
		cats[i] = true
	}

	nf := opt.numberFormat()
	cols := make([]*Column, len(names))
	cells := make([]string, len(t.rows))
	for j, name := range names {
		for i, row := range t.rows {
			cells[i] = strings.TrimSpace(row[j])
			if IsMissingToken(cells[i]) {
				cells[i] = ""
			}
		}
		switch {
		case dates[j]:
			cols[j] = datetimeColumn(name, cells)
		case cats[j]:
			cols[j] = NewCategorical(name, cells)
		default:
			cols[j] = inferColumn(name, cells, nf)
		}
	}
	ds, err := New(cols...)
	if err != nil {
		return nil, err
	}
	ds.SourceRows = t.sourceRows
	return ds, nil
}

func datetimeColumn(name string, cells []string) *Column {
	ts := make([]time.Time, len(cells))
	for i, c := range cells {
		if t, ok := ParseTime(c); ok {
			ts[i] = t
		}
	}
	return NewDatetime(name, ts)
}

// inferColumn picks Integer, Float, or Text from the non-missing cells. A column
// whose cells are all missing loads as Float; a column with no rows loads as Text.
func inferColumn(name string, cells []string, nf numberFormat) *Column {
	if len(cells) == 0 {
		return NewText(name, nil)
	}
	missing := 0
	allInt := true
	for _, c := range cells {
		if c == "" {
			missing++
			continue
		}
		if allInt {
			if _, ok := nf.parseInt(c); ok {
				continue
			}
			allInt = false
		}
		if _, ok := nf.parseFloat(c); !ok {
			return NewText(name, cells)
		}
	}
	if allInt && missing == 0 {
		ints := make([]int64, len(cells))
		for i, c := range cells {
			ints[i], _ = nf.parseInt(c)
		}
		return NewInteger(name, ints)
	}
	nums := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			nums[i] = math.NaN()
			continue
		}
		nums[i], _ = nf.parseFloat(c)
	}
	return NewFloat(name, nums)
}
