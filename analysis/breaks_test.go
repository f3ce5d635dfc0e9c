package analysis

import (
	"math"
	"testing"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakWindow(t *testing.T) {
	for m, expected := range map[int]int{
		0:   5,
		10:  5,
		59:  5,
		60:  6,
		100: 10,
		250: 25,
	} {
		assert.Equal(t, expected, breakWindow(m), "m=%d", m)
	}
}

func TestWelchDetector(t *testing.T) {
	detector := NewWelchDetector(DefaultMinSections)

	t.Run("Info", func(t *testing.T) {
		info := detector.Info()
		assert.Equal(t, welchDetectorName, info.Name)
		assert.Equal(t, welchDetectorVersion, info.Version)
		require.Len(t, info.Options, 3)
		assert.Equal(t, "significance", info.Options[0].Name)
		assert.Equal(t, breakSignificance, info.Options[0].Value)
	})
	t.Run("NilResult", func(t *testing.T) {
		report, err := detector.DetectBreaks(nil)
		require.Error(t, err)
		assert.Nil(t, report)
		assert.Equal(t, ErrSectionsNotComputed, errors.Cause(err))
	})
	t.Run("NoSections", func(t *testing.T) {
		report, err := detector.DetectBreaks(durationResult([]int{}, 0.01))
		require.NoError(t, err)
		assert.Empty(t, report.Breaks)
		assert.Empty(t, report.CUSUM)
		assert.Zero(t, report.MeanDuration)
		assert.Zero(t, report.StdDuration)
		assert.Equal(t, minBreakWindow, report.Window)
	})
	t.Run("TooFewSectionsForAnyWindow", func(t *testing.T) {
		report, err := detector.DetectBreaks(durationResult([]int{10, 10, 10, 10, 2, 2, 2, 2}, 0.01))
		require.NoError(t, err)
		assert.Empty(t, report.Breaks)
		assert.Len(t, report.CUSUM, 8)
	})
	t.Run("ConstantDurations", func(t *testing.T) {
		durations := make([]int, 60)
		for i := range durations {
			durations[i] = 7
		}
		report, err := detector.DetectBreaks(durationResult(durations, 0.01))
		require.NoError(t, err)
		assert.Empty(t, report.Breaks)
		assert.Equal(t, 7.0, report.MeanDuration)
		assert.Zero(t, report.StdDuration)
		for _, c := range report.CUSUM {
			assert.Zero(t, c)
		}
	})
	t.Run("PlantedVolatilityIncrease", func(t *testing.T) {
		result := durationResult(plantedDurations(10, 3, 50), 0.01)
		report, err := detector.DetectBreaks(result)
		require.NoError(t, err)

		assert.Equal(t, 10, report.Window)
		assert.InDelta(t, 6.5, report.MeanDuration, 1e-12)
		assert.InDelta(t, math.Sqrt(1225.0/99), report.StdDuration, 1e-12)

		require.Len(t, report.CUSUM, 100)
		assert.InDelta(t, 175, report.CUSUM[49], 1e-9)
		assert.InDelta(t, 0, report.CUSUM[99], 1e-9)

		require.Len(t, report.Breaks, 1)
		brk := report.Breaks[0]
		assert.InDelta(t, 50, brk.Index, float64(report.Window))
		assert.True(t, brk.PValue < breakSignificance)
		assert.True(t, brk.ChangeRatio < model.VolatilityIncreaseRatio)
		assert.Equal(t, 10.0, brk.MeanBefore)
		assert.InDelta(t, brk.MeanAfter/brk.MeanBefore, brk.ChangeRatio, 1e-12)
		assert.Equal(t, model.RegimeVolatilityIncrease, brk.Interpretation())
	})
	t.Run("PlantedVolatilityDecrease", func(t *testing.T) {
		report, err := detector.DetectBreaks(durationResult(plantedDurations(3, 10, 50), 0.01))
		require.NoError(t, err)

		require.Len(t, report.Breaks, 1)
		brk := report.Breaks[0]
		assert.InDelta(t, 50, brk.Index, float64(report.Window))
		assert.True(t, brk.ChangeRatio > model.VolatilityDecreaseRatio)
		assert.Equal(t, model.RegimeVolatilityDecrease, brk.Interpretation())
	})
	t.Run("BreaksAreSeparatedByWindow", func(t *testing.T) {
		durations := append(plantedDurations(20, 4, 40), plantedDurations(20, 4, 40)...)
		report, err := detector.DetectBreaks(durationResult(durations, 0.01))
		require.NoError(t, err)

		require.True(t, len(report.Breaks) >= 2)
		for i := 1; i < len(report.Breaks); i++ {
			assert.True(t, report.Breaks[i].Index-report.Breaks[i-1].Index > report.Window)
		}
		for _, brk := range report.Breaks {
			assert.True(t, brk.Index >= report.Window)
			assert.True(t, brk.Index < len(durations)-report.Window)
			assert.True(t, brk.PValue < breakSignificance)
		}
	})
	t.Run("StableUnderNoise", func(t *testing.T) {
		total := 0
		for trial := int64(0); trial < 5; trial++ {
			a, err := NewAnalyzer(0.002, DefaultQ)
			require.NoError(t, err)
			result, err := a.ComputeSections(gaussianReturns(defaultSeed+trial, 5000, 0.01))
			require.NoError(t, err)

			report, err := detector.DetectBreaks(result)
			require.NoError(t, err)
			total += len(report.Breaks)
		}
		assert.True(t, total <= 10, "found %d breaks in pure noise", total)
	})
}

func TestBreakInterpretation(t *testing.T) {
	for ratio, expected := range map[float64]model.Regime{
		0.3: model.RegimeVolatilityIncrease,
		0.7: model.RegimeStable,
		1.0: model.RegimeStable,
		1.3: model.RegimeStable,
		2.0: model.RegimeVolatilityDecrease,
	} {
		assert.Equal(t, expected, model.Break{ChangeRatio: ratio}.Interpretation(), "ratio=%v", ratio)
	}
}
