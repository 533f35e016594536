package analysis

import (
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datasage-cli/internal/dataset"
)

var csvRows = []string{
	"Group;Concentration;Temp;Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

var (
	processedScore  = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	processedLocale = []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000}
	processedTemp   = []float64{70, 71, 69, 75, 74, 73, 68, 76, 95}
)

func loadMeasurements(t *testing.T) *dataset.Dataset {
	t.Helper()
	opt := dataset.DefaultOptions()
	opt.Delimiter = ';'
	opt.MaxRows = 9
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	ds, err := dataset.Read("analysis_dataset.csv", strings.NewReader(strings.Join(csvRows, "\n")), opt)
	require.NoError(t, err)
	return ds
}

func TestSummarizeAndMarkdown(t *testing.T) {
	ds := loadMeasurements(t)
	s, err := Summarize("", ds, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "analysis_dataset.csv", s.Name)
	assert.Equal(t, 9, s.Rows)
	assert.Equal(t, 10, s.SourceRows)
	assert.Equal(t, []string{"processed only 9/10 rows due to MaxRows"}, s.Warnings)

	score := columnByName(t, s, "Score")
	assert.Equal(t, "float", score.Kind)
	checkStats(t, score, processedScore)
	require.NotNil(t, score.Numeric)
	assert.InDelta(t, 9.7, score.Numeric.P25, 1e-9)
	assert.InDelta(t, 10.0, score.Numeric.P50, 1e-9)
	assert.InDelta(t, 10.5, score.Numeric.P75, 1e-9)

	count, maxZ := robustOutlierStats(processedScore, 3.5)
	assert.Equal(t, count, score.Numeric.OutliersCount)
	assert.InDelta(t, maxZ, score.Numeric.OutliersMaxAbsZ, 1e-6)
	assert.InDelta(t, 3.5, score.Numeric.OutlierThreshold, 1e-9)

	temp := columnByName(t, s, "Temp")
	assert.Equal(t, "integer", temp.Kind)
	checkStats(t, temp, processedTemp)
	checkStats(t, columnByName(t, s, "LocaleNumber"), processedLocale)

	cat := columnByName(t, s, "Category")
	assert.Equal(t, "text", cat.Kind)
	require.NotEmpty(t, cat.TopValues)
	assert.Equal(t, CategoryCount{Value: "alpha", Count: 5}, cat.TopValues[0])
	assert.Equal(t, 3, cat.Unique)

	require.NotNil(t, s.Correlations)
	assert.Equal(t, []string{"Concentration", "Temp", "Score", "LocaleNumber"}, s.Correlations.Columns)
	assert.InDelta(t, correlation(processedScore, processedLocale), s.Correlations.Values[2][3], 1e-6)
	assert.Equal(t, s.Correlations.Values[2][3], s.Correlations.Values[3][2])
	require.NotEmpty(t, s.TopPairs)
	for i := 1; i < len(s.TopPairs); i++ {
		assert.GreaterOrEqual(t, math.Abs(s.TopPairs[i-1].R), math.Abs(s.TopPairs[i].R))
	}

	md := s.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: analysis_dataset.csv",
		"Rows: ~10 (processed 9)",
		"[SCHEMA]",
		"- Score: float (non-null 9, missing 0.0%, unique 9)",
		"outliers: 1 above |z|>3.5",
		"top: alpha(5)",
		"[CORRELATIONS]",
		"[NOTES]",
	} {
		assert.Contains(t, md, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	empty, err := dataset.New()
	require.NoError(t, err)
	_, err = Summarize("x", empty, DefaultOptions())
	require.ErrorIs(t, err, ErrEmptyDataset)

	noRows, err := dataset.New(dataset.NewText("a", nil))
	require.NoError(t, err)
	_, err = Summarize("x", noRows, DefaultOptions())
	require.ErrorIs(t, err, ErrEmptyDataset)
}

func TestSummarizeDatetimeAndMissing(t *testing.T) {
	d1 := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	ds, err := dataset.New(
		dataset.NewDatetime("when", []time.Time{d2, {}, d1}),
		dataset.NewFloat("x", []float64{1, math.NaN(), 3}),
		dataset.NewFloat("y", []float64{2, 5, 6}),
		dataset.NewFloat("void", []float64{math.NaN(), math.NaN(), math.NaN()}),
	)
	require.NoError(t, err)

	s, err := Summarize("", ds, DefaultOptions())
	require.NoError(t, err)

	when := columnByName(t, s, "when")
	require.NotNil(t, when.First)
	assert.Equal(t, d1, *when.First)
	assert.Equal(t, d2, *when.Last)
	assert.Equal(t, 1, when.Missing)

	x := columnByName(t, s, "x")
	assert.Equal(t, 0.0, x.Numeric.OutlierThreshold)
	assert.Nil(t, columnByName(t, s, "void").Numeric)
	assert.Contains(t, s.Warnings, `column "void" has no values`)

	// x and y overlap on rows 0 and 2 only
	assert.InDelta(t, 1.0, s.Correlations.Values[0][1], 1e-9)
	assert.Equal(t, 0.0, s.Correlations.Values[0][2])
}

func columnByName(t *testing.T, s *Summary, name string) ColumnSummary {
	t.Helper()
	for _, c := range s.Columns {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

func checkStats(t *testing.T, col ColumnSummary, vals []float64) {
	t.Helper()
	require.NotNil(t, col.Numeric, col.Name)
	assert.Equal(t, len(vals), col.NonNull)
	assert.InDelta(t, minFloat(vals), col.Numeric.Min, 1e-9)
	assert.InDelta(t, maxFloat(vals), col.Numeric.Max, 1e-9)
	assert.InDelta(t, mean(vals), col.Numeric.Mean, 1e-9)
	assert.InDelta(t, sampleStd(vals), col.Numeric.Std, 1e-9)
}

func robustOutlierStats(vals []float64, threshold float64) (count int, maxAbs float64) {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	med := quantile(cp, 0.5)
	devs := make([]float64, len(cp))
	for i, v := range cp {
		devs[i] = math.Abs(v - med)
	}
	sort.Float64s(devs)
	mad := quantile(devs, 0.5)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range cp {
		az := math.Abs(0.6745 * (v - med) / mad)
		if az > threshold {
			count++
			if az > maxAbs {
				maxAbs = az
			}
		}
	}
	return
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}

func minFloat(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxFloat(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Max(m, v)
	}
	return m
}

func correlation(a, b []float64) float64 {
	ma, mb := mean(a), mean(b)
	var num, da2, db2 float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		num += da * db
		da2 += da * da
		db2 += db * db
	}
	if da2 == 0 || db2 == 0 {
		return 0
	}
	return num / math.Sqrt(da2*db2)
}
