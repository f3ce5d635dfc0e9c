package model

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Series is one ordered sequence of observations handed to the analyzer.
// Dates and Periods are optional; when present they are aligned with
// Values.
type Series struct {
	ID      string      `json:"id" yaml:"id"`
	Values  []float64   `json:"values" yaml:"values"`
	Dates   []time.Time `json:"dates,omitempty" yaml:"dates,omitempty"`
	Periods []int       `json:"periods,omitempty" yaml:"periods,omitempty"`
}

// Validate checks that the series holds no missing values and that the
// optional columns line up with the values.
func (s *Series) Validate() error {
	if len(s.Values) == 0 {
		return errors.Errorf("series '%s' has no values", s.ID)
	}

	for idx, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("series '%s' has a non-finite value at position %d", s.ID, idx)
		}
	}

	if len(s.Dates) > 0 && len(s.Dates) != len(s.Values) {
		return errors.Errorf("series '%s' has %d dates for %d values", s.ID, len(s.Dates), len(s.Values))
	}

	if len(s.Periods) > 0 && len(s.Periods) != len(s.Values) {
		return errors.Errorf("series '%s' has %d periods for %d values", s.ID, len(s.Periods), len(s.Values))
	}

	return nil
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Values) }

// Returns produces the return series used by the analyzer. When diff is
// set the values are treated as levels and first differences are
// returned; otherwise the values are returned as they are.
func (s *Series) Returns(diff bool) []float64 {
	if !diff {
		out := make([]float64, len(s.Values))
		copy(out, s.Values)
		return out
	}

	if len(s.Values) < 2 {
		return []float64{}
	}

	out := make([]float64, len(s.Values)-1)
	for i := 1; i < len(s.Values); i++ {
		out[i-1] = s.Values[i] - s.Values[i-1]
	}
	return out
}

// ReturnDates returns the dates aligned with Returns(diff). Differencing
// drops the first observation, so the first date goes with it.
func (s *Series) ReturnDates(diff bool) []time.Time {
	if len(s.Dates) == 0 {
		return nil
	}
	if !diff {
		return s.Dates
	}
	if len(s.Dates) < 2 {
		return nil
	}
	return s.Dates[1:]
}

// BoundaryIndex reports the first position at which the period marker
// changes, or -1 when the series carries no periods or a single period.
func (s *Series) BoundaryIndex() int {
	for i := 1; i < len(s.Periods); i++ {
		if s.Periods[i] != s.Periods[i-1] {
			return i
		}
	}
	return -1
}

// ReturnBoundaryIndex maps BoundaryIndex onto a return series of length
// n derived from s. Transforms drop leading observations, so the boundary
// shifts left by the same amount. It returns -1 when the boundary is
// unknown or falls outside the returns.
func (s *Series) ReturnBoundaryIndex(n int) int {
	b := s.BoundaryIndex()
	if b < 0 {
		return -1
	}

	b -= len(s.Values) - n
	if b < 0 || b >= n {
		return -1
	}
	return b
}

// ReturnTransform names how raw observations become returns.
type ReturnTransform string

const (
	// TransformNone treats the values as returns already.
	TransformNone ReturnTransform = "none"
	// TransformDiff takes first differences of levels.
	TransformDiff ReturnTransform = "diff"
	// TransformLog takes log returns of strictly positive prices.
	TransformLog ReturnTransform = "log"
)

func (t ReturnTransform) Validate() error {
	switch t {
	case TransformNone, TransformDiff, TransformLog:
		return nil
	default:
		return errors.Errorf("invalid return transform '%s'", t)
	}
}

// LogReturns returns log(v[i]/v[i-1]). Every value must be positive.
func (s *Series) LogReturns() ([]float64, error) {
	if len(s.Values) < 2 {
		return []float64{}, nil
	}

	out := make([]float64, len(s.Values)-1)
	for i := 1; i < len(s.Values); i++ {
		if s.Values[i] <= 0 || s.Values[i-1] <= 0 {
			return nil, errors.Errorf("series '%s' has a non-positive price near position %d", s.ID, i)
		}
		out[i-1] = math.Log(s.Values[i] / s.Values[i-1])
	}
	return out, nil
}

// Transform applies t and returns the resulting returns along with their
// dates, which are nil when the series carries none.
func (s *Series) Transform(t ReturnTransform) ([]float64, []time.Time, error) {
	switch t {
	case TransformNone, "":
		return s.Returns(false), s.ReturnDates(false), nil
	case TransformDiff:
		return s.Returns(true), s.ReturnDates(true), nil
	case TransformLog:
		returns, err := s.LogReturns()
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		return returns, s.ReturnDates(true), nil
	default:
		return nil, nil, errors.Errorf("invalid return transform '%s'", t)
	}
}
