package model

// SummaryStatus marks whether a series was analyzed.
type SummaryStatus string

const (
	SummaryOK    SummaryStatus = "ok"
	SummaryError SummaryStatus = "error"
)

// SeriesSummary is the one-line digest of a series' analysis. Failed
// series carry only their id, status and error.
type SeriesSummary struct {
	SeriesID      string        `json:"series_id" yaml:"series_id"`
	Status        SummaryStatus `json:"status" yaml:"status"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	Observations  int           `json:"n_observations" yaml:"n_observations"`
	Sections      int           `json:"n_sections" yaml:"n_sections"`
	Breaks        int           `json:"n_breaks" yaml:"n_breaks"`
	MeanDuration  float64       `json:"mean_duration" yaml:"mean_duration"`
	StdDuration   float64       `json:"std_duration" yaml:"std_duration"`
	CVDuration    *float64      `json:"cv_duration" yaml:"cv_duration"`
	NormKurtosis  *float64      `json:"norm_kurtosis" yaml:"norm_kurtosis"`
	ShapiroPValue *float64      `json:"shapiro_pvalue" yaml:"shapiro_pvalue"`

	// BoundaryIndex is the labelled period boundary in return
	// coordinates; BreakDistance is how far the closest detected break
	// starts from it.
	BoundaryIndex *int `json:"boundary_index,omitempty" yaml:"boundary_index,omitempty"`
	BreakDistance *int `json:"boundary_break_distance,omitempty" yaml:"boundary_break_distance,omitempty"`
}

// FailedSummary records a series that could not be analyzed.
func FailedSummary(id string, err error) SeriesSummary {
	return SeriesSummary{SeriesID: id, Status: SummaryError, Error: err.Error()}
}

// MonthlyBreaks counts breaks across series and tau values in one
// calendar month.
type MonthlyBreaks struct {
	Month           string  `json:"month" yaml:"month"`
	Count           int     `json:"n_breaks" yaml:"n_breaks"`
	MeanChangeRatio float64 `json:"mean_change_ratio" yaml:"mean_change_ratio"`
}
