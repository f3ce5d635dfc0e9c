package operations

import (
	"context"
	"time"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/analysis"
	"github.com/crunchsb/levy/export"
	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

// Sweep returns the ./levy sweep command, which detects breaks at
// several tau values and writes the combined break table.
func Sweep() cli.Command {
	return cli.Command{
		Name:  "sweep",
		Usage: "detect breaks across tau values and report months where they agree",
		Flags: mergeFlags(inputFlags(), analysisFlags(), sweepFlags(), outputFlags("breaks.csv",
			cli.IntFlag{
				Name:  parallelFlag,
				Usage: "number of tau values analyzed at once",
				Value: 1,
			},
			cli.StringFlag{
				Name:  "consistent",
				Usage: "optional path for the consistent breaks, written as json",
			},
		)),
		Before: setFlagOrFirstPositional(pathFlagName),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf, err := resolveConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}

			series, err := readSeries(parserOptions(c))
			if err != nil {
				return errors.WithStack(err)
			}

			rows := []model.BreakRow{}
			for idx := range series {
				seriesRows, err := sweepSeries(ctx, &series[idx], conf, c.Int(parallelFlag))
				if err != nil {
					return errors.WithStack(err)
				}
				rows = append(rows, seriesRows...)
			}

			consistent := analysis.ConsistentBreaks(rows, conf.MinConsistentTaus)
			for _, cb := range consistent {
				grip.Info(message.Fields{
					"message":           "consistent break",
					"series":            cb.SeriesID,
					"month":             cb.Month,
					"taus":              cb.Taus,
					"mean_change_ratio": cb.MeanChangeRatio,
					"first_date":        cb.FirstDate.Format(levy.ShortDateFormat),
				})
			}

			out := c.String(outputFlagName)
			if err = export.WriteBreaks(out, outputFormat(c, conf, out), rows); err != nil {
				return errors.Wrap(err, "problem writing breaks")
			}

			if fn := c.String("consistent"); fn != "" {
				return errors.Wrap(writeJSON(fn, consistent), "problem writing consistent breaks")
			}
			return nil
		},
	}
}

// sweepSeries runs the tau sweep for one series, analyzing up to
// parallel tau values at a time. Rows keep the configured tau order.
func sweepSeries(ctx context.Context, s *model.Series, conf *levy.Configuration, parallel int) ([]model.BreakRow, error) {
	returns, dates, err := s.Transform(conf.Transform)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if parallel < 1 {
		parallel = 1
	}

	start := time.Now()
	detector := analysis.NewWelchDetector(conf.MinSections)
	results := make([][]model.BreakRow, len(conf.TauValues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for idx, tau := range conf.TauValues {
		idx, tau := idx, tau
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rows, err := analysis.SweepTau(returns, dates, tau, conf.Q, detector)
			if err != nil {
				return errors.Wrapf(err, "problem sweeping series '%s'", s.ID)
			}
			results[idx] = rows
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	out := []model.BreakRow{}
	for _, rows := range results {
		for _, row := range rows {
			row.SeriesID = s.ID
			out = append(out, row)
		}
	}

	grip.Info(message.Fields{
		"message":  "swept series",
		"series":   s.ID,
		"taus":     conf.TauValues,
		"breaks":   len(out),
		"parallel": parallel,
		"duration": time.Since(start).String(),
	})

	return out, nil
}
