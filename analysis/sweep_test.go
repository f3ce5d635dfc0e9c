package analysis

import (
	"testing"
	"time"

	"github.com/crunchsb/levy/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepTaus(t *testing.T) {
	const n = 2000
	returns := regimeReturns(defaultSeed, n, 0.005, 0.02)
	dates := dailyDates(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), n)
	taus := []float64{0.001, 0.005}

	rows, err := SweepTaus(returns, dates, taus, DefaultQ)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	lastTau := 0
	sawIncrease := false
	for _, row := range rows {
		idx := -1
		for i, tau := range taus {
			if tau == row.Tau {
				idx = i
			}
		}
		require.NotEqual(t, -1, idx, "unexpected tau %v", row.Tau)
		assert.True(t, idx >= lastTau, "rows are grouped by tau in order")
		lastTau = idx

		require.True(t, row.BreakIndex >= DefaultQ && row.BreakIndex < n-DefaultQ)
		require.NotNil(t, row.BreakDate)
		assert.Equal(t, dates[row.BreakIndex], *row.BreakDate)
		assert.True(t, row.PValue < breakSignificance)
		if row.ChangeRatio < model.VolatilityIncreaseRatio {
			sawIncrease = true
		}
	}
	assert.True(t, sawIncrease)

	t.Run("Undated", func(t *testing.T) {
		undated, err := SweepTaus(returns, nil, taus, DefaultQ)
		require.NoError(t, err)
		require.Len(t, undated, len(rows))
		for i := range undated {
			assert.Nil(t, undated[i].BreakDate)
			assert.Equal(t, rows[i].BreakIndex, undated[i].BreakIndex)
		}
	})
	t.Run("DefaultTaus", func(t *testing.T) {
		all, err := SweepTaus(returns, dates, nil, DefaultQ)
		require.NoError(t, err)
		for _, row := range all {
			assert.Contains(t, DefaultTauValues(), row.Tau)
		}
	})
	t.Run("InvalidTau", func(t *testing.T) {
		_, err := SweepTaus(returns, dates, []float64{0.001, 0}, DefaultQ)
		assert.Error(t, err)
	})
}

func TestBreakRows(t *testing.T) {
	result := durationResult([]int{3, 4, 5}, 0.01)
	report := &model.BreakReport{
		Breaks: []model.Break{
			{Index: 1, PValue: 0.001, MeanBefore: 3, MeanAfter: 4.5, ChangeRatio: 1.5},
			{Index: 2, PValue: 0.002, MeanBefore: 4, MeanAfter: 2, ChangeRatio: 0.5},
			{Index: 9, PValue: 0.003, MeanBefore: 4, MeanAfter: 2, ChangeRatio: 0.5},
		},
	}
	dates := dailyDates(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), 10)

	rows := BreakRows(result, report, dates)
	require.Len(t, rows, 3)

	assert.Equal(t, 1, rows[0].BreakSectionIndex)
	assert.Equal(t, 8, rows[0].BreakIndex)
	require.NotNil(t, rows[0].BreakDate)
	assert.Equal(t, dates[8], *rows[0].BreakDate)
	assert.Equal(t, 0.01, rows[0].Tau)
	assert.Equal(t, 1.5, rows[0].ChangeRatio)

	// section 2 starts at 12, past the available dates
	assert.Equal(t, 12, rows[1].BreakIndex)
	assert.Nil(t, rows[1].BreakDate)

	assert.Equal(t, -1, rows[2].BreakIndex)
	assert.Nil(t, rows[2].BreakDate)
}

func TestConsistentBreaks(t *testing.T) {
	day := func(y int, m time.Month, d int) *time.Time {
		out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &out
	}
	rows := []model.BreakRow{
		{SeriesID: "b", Tau: 0.001, BreakDate: day(2020, 3, 10), ChangeRatio: 0.5},
		{SeriesID: "a", Tau: 0.005, BreakDate: day(2020, 3, 20), ChangeRatio: 0.6},
		{SeriesID: "a", Tau: 0.001, BreakDate: day(2020, 3, 5), ChangeRatio: 0.5},
		{SeriesID: "a", Tau: 0.005, BreakDate: day(2020, 3, 25), ChangeRatio: 0.7},
		{SeriesID: "a", Tau: 0.01, BreakDate: day(2020, 5, 1), ChangeRatio: 0.4},
		{SeriesID: "a", Tau: 0.02, ChangeRatio: 0.4},
		{SeriesID: "b", Tau: 0.01, BreakDate: day(2020, 3, 11), ChangeRatio: 1.5},
	}

	t.Run("TwoTaus", func(t *testing.T) {
		out := ConsistentBreaks(rows, 2)
		require.Len(t, out, 2)

		assert.Equal(t, "a", out[0].SeriesID)
		assert.Equal(t, "2020-03", out[0].Month)
		assert.Equal(t, 2, out[0].Count)
		assert.Equal(t, []float64{0.001, 0.005}, out[0].Taus)
		assert.InDelta(t, 0.6, out[0].MeanChangeRatio, 1e-12)
		assert.Equal(t, *day(2020, 3, 5), out[0].FirstDate)

		assert.Equal(t, "b", out[1].SeriesID)
		assert.Equal(t, []float64{0.001, 0.01}, out[1].Taus)
		assert.InDelta(t, 1.0, out[1].MeanChangeRatio, 1e-12)
	})
	t.Run("DefaultMinimum", func(t *testing.T) {
		assert.Equal(t, ConsistentBreaks(rows, 2), ConsistentBreaks(rows, 0))
	})
	t.Run("ThreeTaus", func(t *testing.T) {
		assert.Empty(t, ConsistentBreaks(rows, 3))
	})
	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, ConsistentBreaks(nil, 2))
	})
}

func TestBreaksByMonth(t *testing.T) {
	day := func(m time.Month, d int) *time.Time {
		out := time.Date(2022, m, d, 0, 0, 0, 0, time.UTC)
		return &out
	}
	out := BreaksByMonth([]model.BreakRow{
		{SeriesID: "a", BreakDate: day(6, 1), ChangeRatio: 0.5},
		{SeriesID: "b", BreakDate: day(2, 14), ChangeRatio: 2},
		{SeriesID: "a", BreakDate: day(6, 30), ChangeRatio: 1.5},
		{SeriesID: "c", ChangeRatio: 9},
	})
	require.Len(t, out, 2)
	assert.Equal(t, model.MonthlyBreaks{Month: "2022-02", Count: 1, MeanChangeRatio: 2}, out[0])
	assert.Equal(t, "2022-06", out[1].Month)
	assert.Equal(t, 2, out[1].Count)
	assert.InDelta(t, 1.0, out[1].MeanChangeRatio, 1e-12)

	assert.Empty(t, BreaksByMonth(nil))
}
