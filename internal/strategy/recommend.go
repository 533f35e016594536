package strategy

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datasage-cli/internal/dataset"
)

// ErrUnknownColumn is returned when a confirmed target is not a dataset column.
var ErrUnknownColumn = dataset.ErrUnknownColumn

// ProblemType is the inferred machine-learning framing.
type ProblemType string

const (
	// ProblemUnknown is reported only for a dataset with no rows (or a nil one);
	// every non-empty dataset gets one of the four framings below.
	ProblemUnknown        ProblemType = "Unknown"
	ProblemClassification ProblemType = "Classification"
	ProblemRegression     ProblemType = "Regression"
	ProblemTimeSeries     ProblemType = "Time Series"
	ProblemUnsupervised   ProblemType = "Clustering / Unsupervised Learning"
)

// Shape is the dataset size.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Report is the strategy recommendation for one dataset. For a zero-row dataset
// only the shape and column lists are filled and ProblemType is ProblemUnknown.
type Report struct {
	Shape              Shape       `json:"dataset_shape"`
	NumericColumns     []string    `json:"numeric_columns"`
	CategoricalColumns []string    `json:"categorical_columns"`
	DatetimeColumns    []string    `json:"datetime_columns"`
	TargetGuess        *string     `json:"target_variable_guess"`
	ProblemType        ProblemType `json:"ml_problem_type"`
	RecommendedModels  []string    `json:"recommended_models"`
	EDARecommendations []string    `json:"eda_recommendations"`
	// ConfirmedTarget is the caller's explicit target choice; never derived.
	ConfirmedTarget string `json:"target_variable_confirmed,omitempty"`
}

// Target returns the guessed target, or "" when none was guessed.
func (r *Report) Target() string {
	if r.TargetGuess == nil {
		return ""
	}
	return *r.TargetGuess
}

// WithConfirmedTarget returns a copy of the report annotated with the caller's
// target choice. The receiver is not modified.
func (r *Report) WithConfirmedTarget(name string) *Report {
	cp := *r
	cp.NumericColumns = append([]string{}, r.NumericColumns...)
	cp.CategoricalColumns = append([]string{}, r.CategoricalColumns...)
	cp.DatetimeColumns = append([]string{}, r.DatetimeColumns...)
	cp.RecommendedModels = append([]string{}, r.RecommendedModels...)
	cp.EDARecommendations = append([]string{}, r.EDARecommendations...)
	if r.TargetGuess != nil {
		t := *r.TargetGuess
		cp.TargetGuess = &t
	}
	cp.ConfirmedTarget = name
	return &cp
}

// ConfirmTarget validates name against the dataset and annotates the report.
func ConfirmTarget(ds *dataset.Dataset, r *Report, name string) (*Report, error) {
	if _, ok := ds.Column(name); !ok {
		return nil, fmt.Errorf("confirm target: %w: %q", ErrUnknownColumn, name)
	}
	return r.WithConfirmedTarget(name), nil
}

var modelShortlist = map[ProblemType][]string{
	ProblemTimeSeries:   {"ARIMA", "Prophet", "LSTM"},
	ProblemUnsupervised: {"K-Means", "DBSCAN", "Hierarchical Clustering"},
}

var (
	binaryModels     = []string{"Logistic Regression", "Random Forest", "XGBoost", "LightGBM"}
	multiclassModels = []string{"Random Forest (Multiclass)", "XGBoost (Multiclass)", "CatBoost"}
	wideRegression   = []string{"Random Forest Regressor", "XGBoost Regressor", "LightGBM Regressor"}
	narrowRegression = []string{"Linear Regression", "Ridge / Lasso", "Random Forest Regressor"}
)

// Recommend derives the strategy report for ds. It is pure: the dataset is not
// modified and repeated calls return equal reports.
func Recommend(ds *dataset.Dataset) *Report {
	r := &Report{
		NumericColumns:     []string{},
		CategoricalColumns: []string{},
		DatetimeColumns:    []string{},
		RecommendedModels:  []string{},
		EDARecommendations: []string{},
		ProblemType:        ProblemUnknown,
	}
	if ds == nil {
		return r
	}
	r.Shape = Shape{Rows: ds.Rows(), Columns: ds.Cols()}
	for _, c := range ds.Columns() {
		switch {
		case c.Kind.IsNumeric():
			r.NumericColumns = append(r.NumericColumns, c.Name)
		case c.Kind.IsLabel():
			r.CategoricalColumns = append(r.CategoricalColumns, c.Name)
		}
	}
	r.DatetimeColumns = DetectDatetimeColumns(ds)
	if ds.Rows() == 0 {
		return r
	}

	target := guessTarget(ds, r.NumericColumns)
	var tcol *dataset.Column
	if target != "" {
		r.TargetGuess = &target
		tcol, _ = ds.Column(target)
	}
	r.ProblemType = classify(tcol, ds.Rows(), len(r.DatetimeColumns))
	r.RecommendedModels = shortlist(r.ProblemType, tcol, len(r.NumericColumns))
	r.EDARecommendations = edaSteps(ds, r, tcol)
	return r
}

func guessTarget(ds *dataset.Dataset, numeric []string) string {
	for _, name := range ds.Names() {
		if _, ok := targetNames[strings.ToLower(name)]; ok {
			return name
		}
	}
	if len(numeric) > 0 {
		return numeric[len(numeric)-1]
	}
	return ""
}

func classify(target *dataset.Column, rows, datetimeCols int) ProblemType {
	if target == nil {
		if datetimeCols > 0 {
			return ProblemTimeSeries
		}
		return ProblemUnsupervised
	}
	distinct := target.Distinct()
	uniqueRatio := float64(distinct) / float64(rows)
	switch {
	case distinct <= MaxClassCount:
		return ProblemClassification
	case uniqueRatio < LowUniqueRatio:
		// Low-cardinality numeric targets are kept separate so they can get their
		// own framing; for now they are treated as regression.
		return ProblemRegression
	default:
		return ProblemRegression
	}
}

func shortlist(p ProblemType, target *dataset.Column, numericCols int) []string {
	var models []string
	switch p {
	case ProblemClassification:
		models = multiclassModels
		if target.Distinct() == 2 {
			models = binaryModels
		}
	case ProblemRegression:
		models = narrowRegression
		if numericCols > WideNumericColumns {
			models = wideRegression
		}
	default:
		models = modelShortlist[p]
	}
	return append([]string{}, models...)
}

func edaSteps(ds *dataset.Dataset, r *Report, target *dataset.Column) []string {
	steps := []string{}

	var sparse []string
	for _, c := range ds.Columns() {
		if c.MissingRatio() > HighMissingRatio {
			sparse = append(sparse, c.Name)
		}
	}
	if len(sparse) > 0 {
		steps = append(steps, fmt.Sprintf("Columns %s have >30%% missing values; consider dropping or advanced imputation", quoteList(sparse)))
	}

	if dup := ds.DuplicateRatio(); dup > HighDuplicateRatio {
		steps = append(steps, fmt.Sprintf("%.1f%% duplicate rows detected; investigate data collection process", dup*100))
	}

	for _, name := range r.NumericColumns {
		c, _ := ds.Column(name)
		if skew, ok := skewness(c.Numbers()); ok && math.Abs(skew) > HighSkew {
			steps = append(steps, fmt.Sprintf("'%s' is highly skewed (skew=%.2f); apply log / Box-Cox transformation", name, skew))
		}
		if c.Distinct() <= NearZeroDistinct {
			steps = append(steps, fmt.Sprintf("'%s' has near-zero variance; remove from modeling", name))
		}
	}

	for _, name := range r.CategoricalColumns {
		c, _ := ds.Column(name)
		if n := c.Distinct(); n > HighCardinality {
			steps = append(steps, fmt.Sprintf("'%s' has high cardinality (%d); consider target / frequency encoding", name, n))
		}
	}

	if target != nil && r.ProblemType == ProblemClassification {
		if share, ok := minorityShare(target); ok && share < MinorityClassRatio {
			steps = append(steps, fmt.Sprintf("Target '%s' is imbalanced; use stratified split, class weights, or SMOTE", target.Name))
		}
	}
	if target != nil {
		steps = append(steps, fmt.Sprintf("Analyze feature importance and correlation with target '%s'", target.Name))
	}
	return steps
}

// skewness is the adjusted Fisher-Pearson sample skewness. It needs at least
// three values and a non-zero spread.
func skewness(xs []float64) (float64, bool) {
	if len(xs) < 3 {
		return 0, false
	}
	if _, std := stat.MeanStdDev(xs, nil); std == 0 || math.IsNaN(std) {
		return 0, false
	}
	s := stat.Skew(xs, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	return s, true
}

// minorityShare is the smallest class proportion among non-missing values.
func minorityShare(c *dataset.Column) (float64, bool) {
	counts := c.Counts()
	if len(counts) == 0 {
		return 0, false
	}
	total, least := 0, math.MaxInt
	for _, n := range counts {
		total += n
		if n < least {
			least = n
		}
	}
	return float64(least) / float64(total), true
}

func quoteList(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = "'" + n + "'"
	}
	return "[" + strings.Join(q, ", ") + "]"
}
