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
	// DefaultMinSections is the section count below which break detection
	// warns that its t-tests have little power.
	DefaultMinSections = 20

	breakSignificance = 0.01
	minBreakWindow    = 5

	welchDetectorName    = "welch_window"
	welchDetectorVersion = 1
)

type welchDetector struct {
	minSections int
	info        model.AlgorithmInfo
}

// NewWelchDetector finds breaks in mean section duration by sliding two
// adjacent windows along the durations and comparing them with Welch's
// t-test. minSections only controls the thin-data warning; detection
// runs regardless.
func NewWelchDetector(minSections int) BreakDetector {
	if minSections <= 0 {
		minSections = DefaultMinSections
	}

	return &welchDetector{
		minSections: minSections,
		info: model.AlgorithmInfo{
			Name:    welchDetectorName,
			Version: welchDetectorVersion,
			Options: []model.AlgorithmOption{
				{
					Name:  "significance",
					Value: breakSignificance,
				},
				{
					Name:  "min_window",
					Value: minBreakWindow,
				},
				{
					Name:  "min_sections",
					Value: minSections,
				},
			},
		},
	}
}

func (d *welchDetector) Info() model.AlgorithmInfo { return d.info }

// breakWindow scales the comparison window with the number of sections
// but never below five.
func breakWindow(m int) int {
	if w := m / 10; w > minBreakWindow {
		return w
	}
	return minBreakWindow
}

func (d *welchDetector) DetectBreaks(result *model.SectionResult) (*model.BreakReport, error) {
	if result == nil {
		return nil, errors.WithStack(ErrSectionsNotComputed)
	}

	durations := result.DurationValues()
	m := len(durations)

	grip.WarningWhen(m < d.minSections, message.Fields{
		"message":      "few sections for reliable break detection",
		"sections":     m,
		"min_sections": d.minSections,
		"tau":          result.Tau,
	})

	window := breakWindow(m)
	report := &model.BreakReport{
		Breaks:    []model.Break{},
		CUSUM:     make([]float64, m),
		Window:    window,
		Algorithm: d.info,
	}
	if m == 0 {
		return report, nil
	}

	mean := stats.Mean(durations)
	report.MeanDuration = mean
	report.StdDuration = sampleStdDev(durations)

	running := 0.0
	for k, v := range durations {
		running += v - mean
		report.CUSUM[k] = running
	}

	candidates := []model.Break{}
	for i := window; i < m-window; i++ {
		left := durations[i-window : i]
		right := durations[i : i+window]

		test := welchTTest(left, right)
		if math.IsNaN(test.P) || test.P >= breakSignificance {
			continue
		}

		leftMean := stats.Mean(left)
		rightMean := stats.Mean(right)
		candidates = append(candidates, model.Break{
			Index:       i,
			PValue:      test.P,
			MeanBefore:  leftMean,
			MeanAfter:   rightMean,
			ChangeRatio: rightMean / leftMean,
		})
	}

	for _, c := range candidates {
		if len(report.Breaks) == 0 || c.Index-report.Breaks[len(report.Breaks)-1].Index > window {
			report.Breaks = append(report.Breaks, c)
		}
	}

	grip.Debug(message.Fields{
		"message":    "detected structural breaks",
		"algorithm":  d.info.Name,
		"tau":        result.Tau,
		"sections":   m,
		"window":     window,
		"candidates": len(candidates),
		"breaks":     len(report.Breaks),
	})

	return report, nil
}
