package analysis

import (
	"math"
	"testing"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expectedFeatureNames = []string{
	"levy_duration_mean",
	"levy_duration_std",
	"levy_duration_cv",
	"levy_duration_kurtosis",
	"levy_duration_skew",
	"levy_duration_min",
	"levy_duration_max",
	"levy_duration_q25",
	"levy_duration_q75",
	"levy_sum_mean",
	"levy_sum_std",
	"levy_sum_kurtosis",
	"levy_sum_skew",
	"levy_norm_kurtosis",
	"levy_norm_var_ratio",
	"levy_n_sections",
	"levy_avg_trading_time",
	"levy_shapiro_pvalue",
	"levy_duration_autocorr",
}

func requireFeature(t *testing.T, fs model.FeatureSet, name string) model.FeatureValue {
	v, ok := fs.Get(name)
	require.True(t, ok, "missing feature %s", name)
	return v
}

func TestFeatureFactories(t *testing.T) {
	t.Run("Registry", func(t *testing.T) {
		factories := FeatureFactoriesMap()
		assert.Len(t, factories, len(DefaultFeatureFactories()))
		for _, f := range DefaultFeatureFactories() {
			registered := FeatureFactoryFromType(f.Type())
			require.NotNil(t, registered)
			assert.Equal(t, f.Names(), registered.Names())
		}
		assert.Nil(t, FeatureFactoryFromType("DoesNotExist"))
	})
	t.Run("CalcMatchesNames", func(t *testing.T) {
		for _, durations := range [][]int{{}, {4}, {3, 5}, plantedDurations(10, 3, 20)} {
			result := durationResult(durations, 0.01)
			for _, f := range DefaultFeatureFactories() {
				values := f.Calc(result)
				require.Len(t, values, len(f.Names()), f.Type())
				for i, v := range values {
					assert.Equal(t, f.Names()[i], v.Name)
					assert.Equal(t, f.Version(), v.Version)
					assert.NotEmpty(t, v.Kind)
				}
			}
		}
	})
}

func TestExtractFeatures(t *testing.T) {
	t.Run("NilResult", func(t *testing.T) {
		fs, err := ExtractFeatures(nil)
		require.Error(t, err)
		assert.Nil(t, fs)
		assert.Equal(t, ErrSectionsNotComputed, errors.Cause(err))
	})
	t.Run("UnknownFactory", func(t *testing.T) {
		factory := FeatureFactoryFromType("NotAFeature")
		require.Nil(t, factory)

		assert.NotPanics(t, func() {
			fs, err := ExtractFeaturesWith(durationResult([]int{1, 2, 3}, 0.01), DefaultFeatureFactories()[0], factory)
			assert.Error(t, err)
			assert.Nil(t, fs)
		})
	})
	t.Run("Gaps", func(t *testing.T) {
		fs := model.FeatureSet{
			{Name: "ok", Value: 1},
			{Name: "thin", Value: math.NaN(), Reason: model.ReasonInsufficientSamples},
			{Name: "flat", Value: math.NaN(), Reason: model.ReasonDegenerate},
			{Name: "nan", Value: math.NaN()},
		}
		thin, degenerate := featureGaps(fs)
		assert.Equal(t, []string{"thin"}, thin)
		assert.Equal(t, []string{"flat", "nan"}, degenerate)

		thin, degenerate = featureGaps(model.FeatureSet{{Name: "ok", Value: 1}})
		assert.Empty(t, thin)
		assert.Empty(t, degenerate)
	})
	t.Run("KnownValues", func(t *testing.T) {
		result := durationResult([]int{1, 2, 3, 4}, 0.04)
		result.STau = []float64{0.2, -0.2, 0.2, -0.2}

		fs, err := ExtractFeatures(result)
		require.NoError(t, err)
		assert.Equal(t, expectedFeatureNames, fs.Names())

		for name, expected := range map[string]float64{
			"levy_duration_mean":     2.5,
			"levy_duration_std":      math.Sqrt(5.0 / 3),
			"levy_duration_cv":       math.Sqrt(5.0/3) / 2.5,
			"levy_duration_kurtosis": -1.36,
			"levy_duration_skew":     0,
			"levy_duration_min":      1,
			"levy_duration_max":      4,
			"levy_duration_q25":      1.75,
			"levy_duration_q75":      3.25,
			"levy_sum_mean":          0,
			"levy_sum_std":           math.Sqrt(0.16 / 3),
			"levy_sum_kurtosis":      -2,
			"levy_sum_skew":          0,
			"levy_norm_kurtosis":     -2,
			"levy_norm_var_ratio":    1,
			"levy_n_sections":        4,
			"levy_avg_trading_time":  0.016,
		} {
			v := requireFeature(t, fs, name)
			require.True(t, v.Valid(), "%s: %s", name, v.Reason)
			assert.InDelta(t, expected, v.Value, 1e-9, name)
		}

		shapiro := requireFeature(t, fs, "levy_shapiro_pvalue")
		require.True(t, shapiro.Valid())
		assert.True(t, shapiro.Value >= 0 && shapiro.Value <= 1)

		autocorr := requireFeature(t, fs, "levy_duration_autocorr")
		assert.False(t, autocorr.Valid())
		assert.Equal(t, model.ReasonInsufficientSamples, autocorr.Reason)
	})
	t.Run("NoSections", func(t *testing.T) {
		fs, err := ExtractFeatures(durationResult([]int{}, 0.01))
		require.NoError(t, err)
		assert.Equal(t, expectedFeatureNames, fs.Names())

		for _, v := range fs {
			if v.Name == "levy_n_sections" {
				assert.True(t, v.Valid())
				assert.Zero(t, v.Value)
				continue
			}
			assert.False(t, v.Valid(), v.Name)
			assert.Equal(t, model.ReasonInsufficientSamples, v.Reason, v.Name)
			assert.True(t, math.IsNaN(v.Float()))
			assert.Nil(t, v.Ptr())
		}
	})
	t.Run("SingleSection", func(t *testing.T) {
		result := durationResult([]int{10}, 0.01)
		result.STau = []float64{0.05}

		fs, err := ExtractFeatures(result)
		require.NoError(t, err)

		for name, expected := range map[string]float64{
			"levy_duration_mean":    10,
			"levy_duration_std":     0,
			"levy_duration_cv":      0,
			"levy_duration_min":     10,
			"levy_duration_max":     10,
			"levy_duration_q25":     10,
			"levy_duration_q75":     10,
			"levy_sum_mean":         0.05,
			"levy_sum_std":          0,
			"levy_norm_var_ratio":   0,
			"levy_n_sections":       1,
			"levy_avg_trading_time": 0.001,
		} {
			v := requireFeature(t, fs, name)
			require.True(t, v.Valid(), name)
			assert.InDelta(t, expected, v.Value, 1e-12, name)
		}

		for name, reason := range map[string]model.Reason{
			"levy_duration_kurtosis": model.ReasonDegenerate,
			"levy_duration_skew":     model.ReasonDegenerate,
			"levy_sum_kurtosis":      model.ReasonDegenerate,
			"levy_sum_skew":          model.ReasonDegenerate,
			"levy_norm_kurtosis":     model.ReasonDegenerate,
			"levy_shapiro_pvalue":    model.ReasonInsufficientSamples,
			"levy_duration_autocorr": model.ReasonInsufficientSamples,
		} {
			v := requireFeature(t, fs, name)
			assert.False(t, v.Valid(), name)
			assert.Equal(t, reason, v.Reason, name)
		}
	})
	t.Run("TwoSections", func(t *testing.T) {
		result := durationResult([]int{4, 6}, 0.01)
		result.STau = []float64{0.01, -0.02}

		fs, err := ExtractFeatures(result)
		require.NoError(t, err)

		assert.Equal(t, model.ReasonInsufficientSamples, requireFeature(t, fs, "levy_shapiro_pvalue").Reason)
		assert.True(t, requireFeature(t, fs, "levy_duration_std").Valid())
		assert.True(t, requireFeature(t, fs, "levy_duration_skew").Valid())
	})
	t.Run("ConstantDurationsHaveNoAutocorrelation", func(t *testing.T) {
		durations := make([]int, 30)
		for i := range durations {
			durations[i] = 8
		}
		fs, err := ExtractFeatures(durationResult(durations, 0.01))
		require.NoError(t, err)

		v := requireFeature(t, fs, "levy_duration_autocorr")
		assert.Equal(t, model.ReasonDegenerate, v.Reason)
		assert.Equal(t, model.ReasonDegenerate, requireFeature(t, fs, "levy_duration_skew").Reason)
	})
	t.Run("EndToEndPattern", func(t *testing.T) {
		const n = 200
		a, err := NewAnalyzer(0.01, 5)
		require.NoError(t, err)
		result, err := a.ComputeSections(patternReturns(n))
		require.NoError(t, err)
		require.NoError(t, result.Validate())
		assert.Equal(t, n-10, result.TotalDuration())

		fs, err := ExtractFeatures(result)
		require.NoError(t, err)
		assert.Equal(t, expectedFeatureNames, fs.Names())

		for _, v := range fs {
			if v.Valid() {
				assert.False(t, math.IsNaN(v.Value) || math.IsInf(v.Value, 0), v.Name)
			} else {
				assert.Contains(t, []model.Reason{model.ReasonInsufficientSamples, model.ReasonDegenerate}, v.Reason, v.Name)
			}
		}
		assert.Equal(t, float64(len(result.STau)), requireFeature(t, fs, "levy_n_sections").Value)
		assert.Equal(t, model.ReasonInsufficientSamples, requireFeature(t, fs, "levy_duration_autocorr").Reason)
	})
	t.Run("Subset", func(t *testing.T) {
		fs, err := ExtractFeaturesWith(durationResult([]int{3, 4, 5}, 0.01), FeatureFactoryFromType("Stability"))
		require.NoError(t, err)
		assert.Equal(t, []string{"levy_n_sections", "levy_avg_trading_time"}, fs.Names())
		assert.InDelta(t, 0.0025, fs[1].Value, 1e-12)
	})
}
