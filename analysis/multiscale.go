package analysis

import (
	"fmt"

	"github.com/aclements/go-moremath/stats"
	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	multiScaleVersion = 1

	// a scale needs two sections to say anything about durations
	multiScaleMinSections = 2
	// trend compares the first and last three sections
	multiScaleTrendWidth       = 3
	multiScaleTrendMinSections = 6

	featMultiScaleConsistency = "levy_multiscale_consistency"
)

// Scale is a named tau used for multi-scale features.
type Scale struct {
	Name string  `json:"name" yaml:"name"`
	Tau  float64 `json:"tau" yaml:"tau"`
}

// DefaultScales returns the micro, media and macro scales: fast breaks,
// intraday breaks and regime breaks.
func DefaultScales() []Scale {
	return []Scale{
		{Name: "micro", Tau: 0.0002},
		{Name: "media", Tau: 0.001},
		{Name: "macro", Tau: 0.005},
	}
}

// MultiScaleFeatures builds sections at every scale and summarizes each
// one, then measures how much the mean duration disagrees across the
// valid scales. Breaks that are real tend to show at several scales.
func MultiScaleFeatures(returns []float64, scales []Scale, q int) (model.FeatureSet, error) {
	if len(scales) == 0 {
		return nil, errors.New("no scales given")
	}

	out := model.FeatureSet{}
	validMeans := []float64{}
	for _, sc := range scales {
		if sc.Name == "" {
			return nil, errors.Errorf("scale with tau=%v has no name", sc.Tau)
		}

		analyzer, err := NewAnalyzer(sc.Tau, q)
		if err != nil {
			return nil, errors.Wrapf(err, "scale '%s'", sc.Name)
		}
		result, err := analyzer.ComputeSections(returns)
		if err != nil {
			return nil, errors.Wrapf(err, "computing sections for scale '%s'", sc.Name)
		}

		features, mean, valid := scaleFeatures(sc, result)
		out = append(out, features...)
		if valid {
			validMeans = append(validMeans, mean)
		}
	}

	if len(validMeans) < 2 {
		return append(out, notComputed(featMultiScaleConsistency, model.FeatureKindRatio, multiScaleVersion, model.ReasonInsufficientSamples)), nil
	}

	mean := stats.Mean(validMeans)
	if mean == 0 {
		return append(out, notComputed(featMultiScaleConsistency, model.FeatureKindRatio, multiScaleVersion, model.ReasonDegenerate)), nil
	}
	_, std := stat.PopMeanStdDev(validMeans, nil)
	return append(out, computed(featMultiScaleConsistency, model.FeatureKindRatio, multiScaleVersion, std/mean)), nil
}

func scaleFeatures(sc Scale, r *model.SectionResult) (model.FeatureSet, float64, bool) {
	name := func(suffix string) string { return fmt.Sprintf("levy_%s_%s", sc.Name, suffix) }

	m := r.NumSections()
	valid := m >= multiScaleMinSections

	out := model.FeatureSet{
		computed(name("valid"), model.FeatureKindFlag, multiScaleVersion, boolToFloat(valid)),
		computed(name("n_sections"), model.FeatureKindCount, multiScaleVersion, float64(m)),
	}

	if !valid {
		return append(out,
			notComputed(name("mean"), model.FeatureKindMean, multiScaleVersion, model.ReasonInsufficientSamples),
			notComputed(name("cv"), model.FeatureKindRatio, multiScaleVersion, model.ReasonInsufficientSamples),
			notComputed(name("trend"), model.FeatureKindRatio, multiScaleVersion, model.ReasonInsufficientSamples),
		), 0, false
	}

	durations := r.DurationValues()
	mean, std := stat.PopMeanStdDev(durations, nil)
	out = append(out,
		computed(name("mean"), model.FeatureKindMean, multiScaleVersion, mean),
		computed(name("cv"), model.FeatureKindRatio, multiScaleVersion, std/mean),
	)

	if m < multiScaleTrendMinSections {
		return append(out, notComputed(name("trend"), model.FeatureKindRatio, multiScaleVersion, model.ReasonInsufficientSamples)), mean, true
	}

	early := stats.Mean(durations[:multiScaleTrendWidth])
	late := stats.Mean(durations[m-multiScaleTrendWidth:])
	return append(out, computed(name("trend"), model.FeatureKindRatio, multiScaleVersion, (late-early)/early)), mean, true
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
