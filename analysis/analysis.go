/*
Package analysis implements Lévy sections: returns are resampled on a
variance clock, so that each section holds roughly tau of accumulated
local variance, and the resulting section durations and sums are used
to detect volatility regime changes and to build features for machine
learning.

The package is stateless. Analyzers, detectors and feature factories
return fresh values from every call and may be shared between
goroutines.
*/
package analysis

import (
	"time"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
)

// Options configures a complete single-series analysis.
type Options struct {
	Tau         float64
	Q           int
	MinSections int
	Factories   []FeatureFactory
	Detector    BreakDetector
}

func (o *Options) setDefaults() {
	if o.Tau == 0 {
		o.Tau = DefaultTau
	}
	if o.Q == 0 {
		o.Q = DefaultQ
	}
	if o.MinSections <= 0 {
		o.MinSections = DefaultMinSections
	}
	if len(o.Factories) == 0 {
		o.Factories = DefaultFeatureFactories()
	}
	if o.Detector == nil {
		o.Detector = NewWelchDetector(o.MinSections)
	}
}

// Analysis bundles the sections, features and breaks of one series at one
// tau.
type Analysis struct {
	Sections *model.SectionResult `json:"sections" yaml:"sections"`
	Features model.FeatureSet     `json:"features" yaml:"features"`
	Breaks   *model.BreakReport   `json:"breaks" yaml:"breaks"`
}

// Analyze runs section construction, feature extraction and break
// detection over returns.
func Analyze(returns []float64, opts Options) (*Analysis, error) {
	opts.setDefaults()

	analyzer, err := NewAnalyzer(opts.Tau, opts.Q)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sections, err := analyzer.ComputeSections(returns)
	if err != nil {
		return nil, errors.Wrap(err, "computing sections")
	}

	features, err := ExtractFeaturesWith(sections, opts.Factories...)
	if err != nil {
		return nil, errors.Wrap(err, "extracting features")
	}

	breaks, err := opts.Detector.DetectBreaks(sections)
	if err != nil {
		return nil, errors.Wrap(err, "detecting breaks")
	}

	return &Analysis{
		Sections: sections,
		Features: features,
		Breaks:   breaks,
	}, nil
}

// Summary digests the analysis of series id with n observations.
func (a *Analysis) Summary(id string, n int) model.SeriesSummary {
	out := model.SeriesSummary{
		SeriesID:     id,
		Status:       model.SummaryOK,
		Observations: n,
		Sections:     a.Sections.NumSections(),
		Breaks:       len(a.Breaks.Breaks),
		MeanDuration: a.Breaks.MeanDuration,
		StdDuration:  a.Breaks.StdDuration,
	}

	if v, ok := a.Features.Get(featDurationCV); ok {
		out.CVDuration = v.Ptr()
	}
	if v, ok := a.Features.Get(featNormKurtosis); ok {
		out.NormKurtosis = v.Ptr()
	}
	if v, ok := a.Features.Get(featShapiroPValue); ok {
		out.ShapiroPValue = v.Ptr()
	}

	return out
}

// LabelBoundary records a known period boundary, given in return
// coordinates, on summary along with the distance from it to the start of
// the closest break. A negative boundary leaves summary untouched.
func (a *Analysis) LabelBoundary(summary *model.SeriesSummary, boundary int) {
	if boundary < 0 {
		return
	}

	b := boundary
	summary.BoundaryIndex = &b

	best := -1
	for _, brk := range a.Breaks.Breaks {
		if brk.Index < 0 || brk.Index >= len(a.Sections.StartIndices) {
			continue
		}
		d := a.Sections.StartIndices[brk.Index] - boundary
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	if best >= 0 {
		summary.BreakDistance = &best
	}
}

// BreakRows maps this analysis' breaks onto dates.
func (a *Analysis) BreakRows(dates []time.Time) []model.BreakRow {
	return BreakRows(a.Sections, a.Breaks, dates)
}
