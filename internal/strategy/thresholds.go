package strategy

// Detector thresholds.
const (
	// DateParseRatioNamed is the parse-success ratio a text column needs when its
	// name suggests a date.
	DateParseRatioNamed = 0.3
	// DateParseRatio is the parse-success ratio a text column needs otherwise.
	DateParseRatio = 0.6
	// EpochRatio is the share of numeric values that must fall in the epoch window.
	EpochRatio = 0.8
	EpochMin   = 1e9
	EpochMax   = 2e10
)

// Recommender thresholds.
const (
	// MaxClassCount is the largest distinct target count framed as classification.
	MaxClassCount = 10
	// LowUniqueRatio separates low-cardinality numeric targets from continuous ones.
	LowUniqueRatio = 0.2
	// WideNumericColumns is the numeric column count above which tree ensembles
	// lead the regression shortlist.
	WideNumericColumns = 10

	HighMissingRatio   = 0.3
	HighDuplicateRatio = 0.05
	HighSkew           = 1.0
	// NearZeroDistinct is the distinct count at or below which a numeric column
	// carries no signal.
	NearZeroDistinct   = 1
	HighCardinality    = 20
	MinorityClassRatio = 0.1
)

var dateNameKeywords = []string{
	"date", "time", "timestamp", "created", "updated", "order", "purchase", "signup", "dob", "event",
}

var targetNames = map[string]struct{}{
	"target": {}, "label": {}, "outcome": {}, "class": {}, "churn": {}, "price": {}, "sales": {},
}
