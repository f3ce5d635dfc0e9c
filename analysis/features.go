package analysis

import (
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	shapiroFeatureMinSections  = 3
	autocorrFeatureMinSections = 11
)

var featureFactoriesMap = map[string]FeatureFactory{
	durationMomentsName:  &durationMoments{},
	durationOrderName:    &durationOrder{},
	sumMomentsName:       &sumMoments{},
	gaussianityName:      &gaussianity{},
	stabilityName:        &stability{},
	normalityName:        &normality{},
	durationAutocorrName: &durationAutocorr{},
}

func FeatureFactoriesMap() map[string]FeatureFactory { return featureFactoriesMap }

func FeatureFactoryFromType(t string) FeatureFactory { return featureFactoriesMap[t] }

var defaultFeatureFactories = []FeatureFactory{
	&durationMoments{},
	&durationOrder{},
	&sumMoments{},
	&gaussianity{},
	&stability{},
	&normality{},
	&durationAutocorr{},
}

func DefaultFeatureFactories() []FeatureFactory { return defaultFeatureFactories }

// ExtractFeatures reduces a section result to the default feature set.
func ExtractFeatures(result *model.SectionResult) (model.FeatureSet, error) {
	return ExtractFeaturesWith(result, DefaultFeatureFactories()...)
}

// ExtractFeaturesWith computes the features of the given factories in
// order.
func ExtractFeaturesWith(result *model.SectionResult, factories ...FeatureFactory) (model.FeatureSet, error) {
	if result == nil {
		return nil, errors.WithStack(ErrSectionsNotComputed)
	}

	for idx, f := range factories {
		if f == nil {
			return nil, errors.Errorf("feature factory %d is not defined", idx)
		}
	}

	out := model.FeatureSet{}
	for _, f := range factories {
		out = append(out, f.Calc(result)...)
	}

	thin, degenerate := featureGaps(out)
	grip.WarningWhen(len(thin) > 0, message.Fields{
		"message":  "too few sections to compute some features",
		"tau":      result.Tau,
		"sections": result.NumSections(),
		"features": thin,
	})
	grip.DebugWhen(len(degenerate) > 0, message.Fields{
		"message":  "some features are degenerate for this series",
		"tau":      result.Tau,
		"sections": result.NumSections(),
		"features": degenerate,
	})

	return out, nil
}

// featureGaps splits the uncomputed features into those missing for lack
// of sections and those with a degenerate value.
func featureGaps(fs model.FeatureSet) (thin []string, degenerate []string) {
	thin, degenerate = []string{}, []string{}
	for _, v := range fs {
		switch {
		case v.Valid():
		case v.Reason == model.ReasonInsufficientSamples:
			thin = append(thin, v.Name)
		default:
			degenerate = append(degenerate, v.Name)
		}
	}
	return thin, degenerate
}

func computed(name string, kind model.FeatureKind, version int, value float64) model.FeatureValue {
	return model.FeatureValue{Name: name, Value: value, Kind: kind, Version: version}
}

func notComputed(name string, kind model.FeatureKind, version int, reason model.Reason) model.FeatureValue {
	return model.FeatureValue{Name: name, Value: math.NaN(), Kind: kind, Version: version, Reason: reason}
}

// fromCheck turns an (x, ok) pair from the moment helpers into a feature.
func fromCheck(name string, kind model.FeatureKind, version int, value float64, ok bool) model.FeatureValue {
	if !ok {
		return notComputed(name, kind, version, model.ReasonDegenerate)
	}
	return computed(name, kind, version, value)
}

// momentFamily computes mean, sample std, excess kurtosis and skew under a
// common name prefix.
func momentFamily(prefix string, xs []float64, version int) []model.FeatureValue {
	var (
		meanName = prefix + "_mean"
		stdName  = prefix + "_std"
		kurtName = prefix + "_kurtosis"
		skewName = prefix + "_skew"
	)

	if len(xs) == 0 {
		return []model.FeatureValue{
			notComputed(meanName, model.FeatureKindMean, version, model.ReasonInsufficientSamples),
			notComputed(stdName, model.FeatureKindStdDev, version, model.ReasonInsufficientSamples),
			notComputed(kurtName, model.FeatureKindMoment, version, model.ReasonInsufficientSamples),
			notComputed(skewName, model.FeatureKindMoment, version, model.ReasonInsufficientSamples),
		}
	}

	kurt, kurtOK := excessKurtosis(xs)
	skew, skewOK := skewness(xs)
	return []model.FeatureValue{
		computed(meanName, model.FeatureKindMean, version, stats.Mean(xs)),
		computed(stdName, model.FeatureKindStdDev, version, sampleStdDev(xs)),
		fromCheck(kurtName, model.FeatureKindMoment, version, kurt, kurtOK),
		fromCheck(skewName, model.FeatureKindMoment, version, skew, skewOK),
	}
}

////////////////////////
// Duration Moments
////////////////////////

type durationMoments struct{}

const (
	durationMomentsName    = "DurationMoments"
	durationMomentsVersion = 1

	featDurationMean     = "levy_duration_mean"
	featDurationStd      = "levy_duration_std"
	featDurationCV       = "levy_duration_cv"
	featDurationKurtosis = "levy_duration_kurtosis"
	featDurationSkew     = "levy_duration_skew"
)

func (f *durationMoments) Type() string { return durationMomentsName }
func (f *durationMoments) Names() []string {
	return []string{featDurationMean, featDurationStd, featDurationCV, featDurationKurtosis, featDurationSkew}
}
func (f *durationMoments) Version() int { return durationMomentsVersion }
func (f *durationMoments) Calc(r *model.SectionResult) []model.FeatureValue {
	family := momentFamily("levy_duration", r.DurationValues(), durationMomentsVersion)
	mean, std := family[0], family[1]

	var cv model.FeatureValue
	switch {
	case !mean.Valid():
		cv = notComputed(featDurationCV, model.FeatureKindRatio, durationMomentsVersion, model.ReasonInsufficientSamples)
	case mean.Value == 0:
		cv = notComputed(featDurationCV, model.FeatureKindRatio, durationMomentsVersion, model.ReasonDegenerate)
	default:
		cv = computed(featDurationCV, model.FeatureKindRatio, durationMomentsVersion, std.Value/mean.Value)
	}

	return []model.FeatureValue{mean, std, cv, family[2], family[3]}
}

///////////////////////////////
// Duration Order Statistics
///////////////////////////////

type durationOrder struct{}

const (
	durationOrderName    = "DurationOrderStatistics"
	durationOrderVersion = 1

	featDurationMin = "levy_duration_min"
	featDurationMax = "levy_duration_max"
	featDurationQ25 = "levy_duration_q25"
	featDurationQ75 = "levy_duration_q75"
)

func (f *durationOrder) Type() string { return durationOrderName }
func (f *durationOrder) Names() []string {
	return []string{featDurationMin, featDurationMax, featDurationQ25, featDurationQ75}
}
func (f *durationOrder) Version() int { return durationOrderVersion }
func (f *durationOrder) Calc(r *model.SectionResult) []model.FeatureValue {
	durations := r.DurationValues()
	if len(durations) == 0 {
		out := []model.FeatureValue{}
		for _, name := range f.Names() {
			kind := model.FeatureKindQuantile
			if name == featDurationMin || name == featDurationMax {
				kind = model.FeatureKindBound
			}
			out = append(out, notComputed(name, kind, durationOrderVersion, model.ReasonInsufficientSamples))
		}
		return out
	}

	lo, hi := stats.Sample{Xs: durations}.Bounds()
	return []model.FeatureValue{
		computed(featDurationMin, model.FeatureKindBound, durationOrderVersion, lo),
		computed(featDurationMax, model.FeatureKindBound, durationOrderVersion, hi),
		computed(featDurationQ25, model.FeatureKindQuantile, durationOrderVersion, quantile(durations, 0.25)),
		computed(featDurationQ75, model.FeatureKindQuantile, durationOrderVersion, quantile(durations, 0.75)),
	}
}

////////////////////////
// Section Sum Moments
////////////////////////

type sumMoments struct{}

const (
	sumMomentsName    = "SumMoments"
	sumMomentsVersion = 1
)

func (f *sumMoments) Type() string { return sumMomentsName }
func (f *sumMoments) Names() []string {
	return []string{"levy_sum_mean", "levy_sum_std", "levy_sum_kurtosis", "levy_sum_skew"}
}
func (f *sumMoments) Version() int { return sumMomentsVersion }
func (f *sumMoments) Calc(r *model.SectionResult) []model.FeatureValue {
	return momentFamily("levy_sum", r.STau, sumMomentsVersion)
}

////////////////////////
// Gaussianity
////////////////////////

type gaussianity struct{}

const (
	gaussianityName    = "Gaussianity"
	gaussianityVersion = 1

	featNormKurtosis = "levy_norm_kurtosis"
	featNormVarRatio = "levy_norm_var_ratio"
)

func (f *gaussianity) Type() string    { return gaussianityName }
func (f *gaussianity) Names() []string { return []string{featNormKurtosis, featNormVarRatio} }
func (f *gaussianity) Version() int    { return gaussianityVersion }
func (f *gaussianity) Calc(r *model.SectionResult) []model.FeatureValue {
	norm := r.NormalizedSums()
	if len(norm) == 0 {
		return []model.FeatureValue{
			notComputed(featNormKurtosis, model.FeatureKindMoment, gaussianityVersion, model.ReasonInsufficientSamples),
			notComputed(featNormVarRatio, model.FeatureKindRatio, gaussianityVersion, model.ReasonInsufficientSamples),
		}
	}

	kurt, ok := excessKurtosis(norm)
	return []model.FeatureValue{
		fromCheck(featNormKurtosis, model.FeatureKindMoment, gaussianityVersion, kurt, ok),
		computed(featNormVarRatio, model.FeatureKindRatio, gaussianityVersion, populationVariance(norm)),
	}
}

////////////////////////
// Stability
////////////////////////

type stability struct{}

const (
	stabilityName    = "Stability"
	stabilityVersion = 1

	featNumSections    = "levy_n_sections"
	featAvgTradingTime = "levy_avg_trading_time"
)

func (f *stability) Type() string    { return stabilityName }
func (f *stability) Names() []string { return []string{featNumSections, featAvgTradingTime} }
func (f *stability) Version() int    { return stabilityVersion }
func (f *stability) Calc(r *model.SectionResult) []model.FeatureValue {
	m := r.NumSections()
	out := []model.FeatureValue{
		computed(featNumSections, model.FeatureKindCount, stabilityVersion, float64(m)),
	}

	if m == 0 {
		return append(out, notComputed(featAvgTradingTime, model.FeatureKindRatio, stabilityVersion, model.ReasonInsufficientSamples))
	}

	mean := stats.Mean(r.DurationValues())
	if mean == 0 {
		return append(out, notComputed(featAvgTradingTime, model.FeatureKindRatio, stabilityVersion, model.ReasonDegenerate))
	}
	return append(out, computed(featAvgTradingTime, model.FeatureKindRatio, stabilityVersion, r.Tau/mean))
}

////////////////////////
// Normality
////////////////////////

type normality struct{}

const (
	normalityName    = "Normality"
	normalityVersion = 1

	featShapiroPValue = "levy_shapiro_pvalue"
)

func (f *normality) Type() string    { return normalityName }
func (f *normality) Names() []string { return []string{featShapiroPValue} }
func (f *normality) Version() int    { return normalityVersion }
func (f *normality) Calc(r *model.SectionResult) []model.FeatureValue {
	if r.NumSections() < shapiroFeatureMinSections {
		return []model.FeatureValue{
			notComputed(featShapiroPValue, model.FeatureKindPValue, normalityVersion, model.ReasonInsufficientSamples),
		}
	}

	res, err := ShapiroWilk(r.NormalizedSums())
	if err != nil || math.IsNaN(res.PValue) {
		return []model.FeatureValue{
			notComputed(featShapiroPValue, model.FeatureKindPValue, normalityVersion, model.ReasonDegenerate),
		}
	}
	return []model.FeatureValue{computed(featShapiroPValue, model.FeatureKindPValue, normalityVersion, res.PValue)}
}

///////////////////////////////
// Duration Autocorrelation
///////////////////////////////

type durationAutocorr struct{}

const (
	durationAutocorrName    = "DurationAutocorrelation"
	durationAutocorrVersion = 1

	featDurationAutocorr = "levy_duration_autocorr"
)

func (f *durationAutocorr) Type() string    { return durationAutocorrName }
func (f *durationAutocorr) Names() []string { return []string{featDurationAutocorr} }
func (f *durationAutocorr) Version() int    { return durationAutocorrVersion }
func (f *durationAutocorr) Calc(r *model.SectionResult) []model.FeatureValue {
	if r.NumSections() < autocorrFeatureMinSections {
		return []model.FeatureValue{
			notComputed(featDurationAutocorr, model.FeatureKindCorrelation, durationAutocorrVersion, model.ReasonInsufficientSamples),
		}
	}

	corr, ok := lagOneAutocorrelation(r.DurationValues())
	return []model.FeatureValue{fromCheck(featDurationAutocorr, model.FeatureKindCorrelation, durationAutocorrVersion, corr, ok)}
}
