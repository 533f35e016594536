package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datasage-cli/internal/dataset"
)

// ErrEmptyDataset is returned when a dataset has no rows or no columns.
var ErrEmptyDataset = errors.New("dataset has no data or columns")

// Options controls which optional sections Summarize computes.
type Options struct {
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the label frequencies reported per text column.
	TopValues int
	// TopPairs caps the correlation pairs listed in the summary.
	TopPairs int
}

// DefaultOptions returns reasonable defaults for dataset summaries.
func DefaultOptions() Options {
	return Options{
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
		TopPairs:         10,
	}
}

// Summary is a data-understanding overview of one dataset.
type Summary struct {
	Name         string          `json:"name,omitempty"`
	Rows         int             `json:"rows"`
	SourceRows   int             `json:"source_rows"`
	Columns      []ColumnSummary `json:"columns"`
	Correlations *CorrMatrix     `json:"correlations,omitempty"`
	TopPairs     []PairCorr      `json:"top_correlations,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// ColumnSummary captures declared kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`

	Numeric   *NumericStats   `json:"numeric,omitempty"`
	TopValues []CategoryCount `json:"top_values,omitempty"`
	First     *time.Time      `json:"first,omitempty"`
	Last      *time.Time      `json:"last,omitempty"`
}

// NumericStats mirrors a describe() row plus robust outlier counts.
type NumericStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	Max  float64 `json:"max"`

	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// Summarize profiles ds. The dataset is only read.
func Summarize(name string, ds *dataset.Dataset, opt Options) (*Summary, error) {
	if ds == nil || ds.Rows() == 0 || ds.Cols() == 0 {
		return nil, ErrEmptyDataset
	}
	if opt.OutlierThreshold <= 0 {
		opt.OutlierThreshold = 3.5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	if opt.TopPairs <= 0 {
		opt.TopPairs = 10
	}
	if name == "" {
		name = ds.Name
	}

	s := &Summary{Name: name, Rows: ds.Rows(), SourceRows: ds.SourceRows}
	var numeric []*dataset.Column
	for _, c := range ds.Columns() {
		cs := ColumnSummary{
			Name:    c.Name,
			Kind:    c.Kind.String(),
			NonNull: c.Len() - c.Missing(),
			Missing: c.Missing(),
			Unique:  c.Distinct(),
		}
		switch {
		case c.Kind.IsNumeric():
			numeric = append(numeric, c)
			cs.Numeric = describe(c.Numbers(), opt)
		case c.Kind.IsLabel():
			cs.TopValues = topValues(c, opt.TopValues)
		case c.Kind == dataset.KindDatetime:
			cs.First, cs.Last = timeRange(c)
		}
		if cs.NonNull == 0 {
			s.Warnings = append(s.Warnings, fmt.Sprintf("column %q has no values", c.Name))
		}
		s.Columns = append(s.Columns, cs)
	}
	if ds.Truncated() {
		s.Warnings = append(s.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", ds.Rows(), ds.SourceRows))
	}
	if opt.Correlations && len(numeric) >= 2 {
		s.Correlations, s.TopPairs = correlations(numeric, opt.TopPairs)
	}
	return s, nil
}

func describe(vals []float64, opt Options) *NumericStats {
	if len(vals) == 0 {
		return nil
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	ns := &NumericStats{
		Min: sorted[0],
		P25: quantile(sorted, 0.25),
		P50: quantile(sorted, 0.5),
		P75: quantile(sorted, 0.75),
		Max: sorted[len(sorted)-1],
	}
	if len(vals) > 1 {
		ns.Mean, ns.Std = stat.MeanStdDev(vals, nil)
	} else {
		ns.Mean = vals[0]
	}
	if opt.Outliers && len(vals) >= 8 {
		ns.OutliersCount, ns.OutliersMaxAbsZ = robustOutliers(vals, opt.OutlierThreshold)
		ns.OutlierThreshold = opt.OutlierThreshold
	}
	return ns
}

func topValues(c *dataset.Column, limit int) []CategoryCount {
	counts := c.Counts()
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func timeRange(c *dataset.Column) (first, last *time.Time) {
	for i := 0; i < c.Len(); i++ {
		t, ok := c.Time(i)
		if !ok {
			continue
		}
		if first == nil || t.Before(*first) {
			v := t
			first = &v
		}
		if last == nil || t.After(*last) {
			v := t
			last = &v
		}
	}
	return first, last
}

func correlations(cols []*dataset.Column, topN int) (*CorrMatrix, []PairCorr) {
	n := len(cols)
	raw := make([][]float64, n)
	names := make([]string, n)
	for a, c := range cols {
		names[a] = c.Name
		raw[a] = make([]float64, c.Len())
		for i := range raw[a] {
			v, ok := c.Float(i)
			if !ok {
				v = math.NaN()
			}
			raw[a][i] = v
		}
	}
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	var pairs []PairCorr
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r, ok := pearson(raw[a], raw[b])
			mat[a][b], mat[b][a] = r, r
			if ok {
				pairs = append(pairs, PairCorr{A: names[a], B: names[b], R: r})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	if len(pairs) > topN {
		pairs = pairs[:topN]
	}
	return &CorrMatrix{Columns: names, Values: mat}, pairs
}
