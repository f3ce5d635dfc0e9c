package operations

import (
	"github.com/crunchsb/levy/analysis"
	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// SeriesReport is the analyze command's output for one series.
type SeriesReport struct {
	Summary    model.SeriesSummary `json:"summary"`
	Breaks     []model.BreakRow    `json:"breaks,omitempty"`
	Features   model.FeatureSet    `json:"features,omitempty"`
	MultiScale model.FeatureSet    `json:"multiscale,omitempty"`
}

// Analyze returns the ./levy analyze command, which runs the full single
// tau analysis over every series of a file and writes a JSON report.
func Analyze() cli.Command {
	return cli.Command{
		Name:   "analyze",
		Usage:  "compute sections, breaks and features for each series in a file",
		Flags:  mergeFlags(inputFlags(), analysisFlags(), outputFlags("analysis.json")),
		Before: setFlagOrFirstPositional(pathFlagName),
		Action: func(c *cli.Context) error {
			conf, err := resolveConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}

			series, err := readSeries(parserOptions(c))
			if err != nil {
				return errors.WithStack(err)
			}

			reports := make([]SeriesReport, 0, len(series))
			for idx := range series {
				s := &series[idx]
				report, err := analyzeOne(s, conf.Transform, conf.AnalysisOptions(), conf.Scales, conf.Q)
				if err != nil {
					grip.Warning(message.WrapError(err, message.Fields{
						"message": "series analysis failed",
						"series":  s.ID,
					}))
					reports = append(reports, SeriesReport{Summary: model.FailedSummary(s.ID, err)})
					continue
				}

				grip.Info(message.Fields{
					"message":       "analyzed series",
					"series":        s.ID,
					"sections":      report.Summary.Sections,
					"mean_duration": report.Summary.MeanDuration,
					"std_duration":  report.Summary.StdDuration,
					"breaks":        report.Summary.Breaks,
				})
				reports = append(reports, *report)
			}

			return errors.Wrap(writeJSON(c.String(outputFlagName), reports), "problem writing analysis")
		},
	}
}

func analyzeOne(s *model.Series, transform model.ReturnTransform, opts analysis.Options, scales []analysis.Scale, q int) (*SeriesReport, error) {
	returns, dates, err := s.Transform(transform)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	a, err := analysis.Analyze(returns, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "problem analyzing series '%s'", s.ID)
	}

	multi, err := analysis.MultiScaleFeatures(returns, scales, q)
	if err != nil {
		return nil, errors.Wrapf(err, "problem computing multi-scale features for '%s'", s.ID)
	}

	rows := a.BreakRows(dates)
	for i := range rows {
		rows[i].SeriesID = s.ID
	}

	summary := a.Summary(s.ID, s.Len())
	a.LabelBoundary(&summary, s.ReturnBoundaryIndex(len(returns)))

	return &SeriesReport{
		Summary:    summary,
		Breaks:     rows,
		Features:   a.Features,
		MultiScale: multi,
	}, nil
}
