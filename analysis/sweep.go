package analysis

import (
	"sort"
	"time"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
)

const (
	// DefaultMinConsistentTaus is how many distinct tau values must agree
	// on a month before ConsistentBreaks reports it.
	DefaultMinConsistentTaus = 2

	monthFormat = "2006-01"
)

// DefaultTauValues are the scales swept when the caller names none.
func DefaultTauValues() []float64 { return []float64{0.001, 0.005, 0.01, 0.02} }

// SweepTaus runs section construction and break detection independently
// for every tau and concatenates the breaks into one table. When dates
// are given, each break is dated by the first observation of its
// section; breaks that map past the end of dates stay undated. Rows are
// not deduplicated across tau values.
func SweepTaus(returns []float64, dates []time.Time, taus []float64, q int) ([]model.BreakRow, error) {
	return Sweep(returns, dates, taus, q, NewWelchDetector(DefaultMinSections))
}

// Sweep is SweepTaus with an explicit detector.
func Sweep(returns []float64, dates []time.Time, taus []float64, q int, detector BreakDetector) ([]model.BreakRow, error) {
	if len(taus) == 0 {
		taus = DefaultTauValues()
	}

	rows := []model.BreakRow{}
	for _, tau := range taus {
		tauRows, err := SweepTau(returns, dates, tau, q, detector)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		rows = append(rows, tauRows...)
	}
	return rows, nil
}

// SweepTau produces the break rows for a single tau.
func SweepTau(returns []float64, dates []time.Time, tau float64, q int, detector BreakDetector) ([]model.BreakRow, error) {
	analyzer, err := NewAnalyzer(tau, q)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result, err := analyzer.ComputeSections(returns)
	if err != nil {
		return nil, errors.Wrapf(err, "computing sections for tau=%v", tau)
	}

	report, err := detector.DetectBreaks(result)
	if err != nil {
		return nil, errors.Wrapf(err, "detecting breaks for tau=%v", tau)
	}

	return BreakRows(result, report, dates), nil
}

// BreakRows maps the breaks of one report onto original series positions
// and, when available, dates.
func BreakRows(result *model.SectionResult, report *model.BreakReport, dates []time.Time) []model.BreakRow {
	rows := make([]model.BreakRow, 0, len(report.Breaks))
	for _, brk := range report.Breaks {
		row := model.BreakRow{
			Tau:               result.Tau,
			BreakSectionIndex: brk.Index,
			BreakIndex:        -1,
			MeanBefore:        brk.MeanBefore,
			MeanAfter:         brk.MeanAfter,
			ChangeRatio:       brk.ChangeRatio,
			PValue:            brk.PValue,
		}

		if brk.Index < len(result.StartIndices) {
			start := result.StartIndices[brk.Index]
			row.BreakIndex = start
			if start < len(dates) {
				date := dates[start]
				row.BreakDate = &date
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// ConsistentBreaks groups dated break rows by series and calendar month
// and keeps the months on which at least minTaus distinct tau values
// found a break. Undated rows are ignored.
func ConsistentBreaks(rows []model.BreakRow, minTaus int) []model.ConsistentBreak {
	if minTaus <= 0 {
		minTaus = DefaultMinConsistentTaus
	}

	type groupKey struct {
		series string
		month  string
	}
	type group struct {
		taus   map[float64]struct{}
		ratios []float64
		first  time.Time
	}

	groups := map[groupKey]*group{}
	for _, row := range rows {
		if row.BreakDate == nil {
			continue
		}

		key := groupKey{series: row.SeriesID, month: row.BreakDate.Format(monthFormat)}
		g, ok := groups[key]
		if !ok {
			g = &group{taus: map[float64]struct{}{}, first: *row.BreakDate}
			groups[key] = g
		}
		g.taus[row.Tau] = struct{}{}
		g.ratios = append(g.ratios, row.ChangeRatio)
		if row.BreakDate.Before(g.first) {
			g.first = *row.BreakDate
		}
	}

	out := []model.ConsistentBreak{}
	for key, g := range groups {
		if len(g.taus) < minTaus {
			continue
		}

		taus := make([]float64, 0, len(g.taus))
		for tau := range g.taus {
			taus = append(taus, tau)
		}
		sort.Float64s(taus)

		total := 0.0
		for _, r := range g.ratios {
			total += r
		}

		out = append(out, model.ConsistentBreak{
			SeriesID:        key.series,
			Month:           key.month,
			Count:           len(taus),
			Taus:            taus,
			MeanChangeRatio: total / float64(len(g.ratios)),
			FirstDate:       g.first,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SeriesID != out[j].SeriesID {
			return out[i].SeriesID < out[j].SeriesID
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// BreaksByMonth counts dated breaks per calendar month across all series
// and tau values, in month order.
func BreaksByMonth(rows []model.BreakRow) []model.MonthlyBreaks {
	counts := map[string]*model.MonthlyBreaks{}
	for _, row := range rows {
		if row.BreakDate == nil {
			continue
		}

		month := row.BreakDate.Format(monthFormat)
		m, ok := counts[month]
		if !ok {
			m = &model.MonthlyBreaks{Month: month}
			counts[month] = m
		}
		m.Count++
		m.MeanChangeRatio += row.ChangeRatio
	}

	out := make([]model.MonthlyBreaks, 0, len(counts))
	for _, m := range counts {
		m.MeanChangeRatio /= float64(m.Count)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
