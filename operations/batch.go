package operations

import (
	"context"

	"github.com/crunchsb/levy/export"
	"github.com/crunchsb/levy/units"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Features returns the ./levy features command, which builds the feature
// matrix of a dataset, one row per series, ready for model training.
func Features() cli.Command {
	return cli.Command{
		Name:  "features",
		Usage: "build the feature matrix for every series of a dataset",
		Flags: mergeFlags(inputFlags(), analysisFlags(), sweepFlags(), baseFlags(), outputFlags("features.csv",
			cli.StringFlag{
				Name:  labelsFlag,
				Usage: "optional csv or parquet file of per-series labels",
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

			labels, err := readLabels(c.String(labelsFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := configureEnvironment(conf)
			if err != nil {
				return errors.WithStack(err)
			}

			result, err := units.RunBatch(ctx, env, series, labels)
			if err != nil {
				return errors.Wrap(err, "problem computing features")
			}

			out := c.String(outputFlagName)
			if err = export.WriteFeatures(out, outputFormat(c, conf, out), result.Report.Features); err != nil {
				return errors.Wrap(err, "problem writing features")
			}

			grip.Info(message.Fields{
				"message": "wrote feature matrix",
				"run":     result.RunID,
				"path":    out,
				"rows":    len(result.Report.Features),
				"failed":  result.Failed,
			})

			return nil
		},
	}
}

// Batch returns the ./levy batch command, which analyzes a dataset and
// writes the full report: summaries, features, breaks, consistent breaks
// and breaks per month. Results are uploaded when a bucket is
// configured.
func Batch() cli.Command {
	return cli.Command{
		Name:  "batch",
		Usage: "analyze every series of a dataset and write a full report",
		Flags: mergeFlags(inputFlags(), analysisFlags(), sweepFlags(), baseFlags(), outputFlags("results",
			cli.StringFlag{
				Name:  labelsFlag,
				Usage: "optional csv or parquet file of per-series labels",
			},
			cli.StringFlag{
				Name:  nameFlagName,
				Usage: "base name of the report files",
				Value: "levy",
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

			labels, err := readLabels(c.String(labelsFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := configureEnvironment(conf)
			if err != nil {
				return errors.WithStack(err)
			}

			result, err := units.RunBatch(ctx, env, series, labels)
			if err != nil {
				return errors.Wrap(err, "problem running batch")
			}

			paths, err := export.WriteReport(c.String(outputFlagName), c.String(nameFlagName), conf.OutputFormat, result.Report)
			if err != nil {
				return errors.Wrap(err, "problem writing report")
			}

			grip.Info(message.Fields{
				"message": "wrote batch report",
				"run":     result.RunID,
				"files":   paths,
				"series":  len(series),
				"failed":  result.Failed,
			})

			if !conf.HasOutputBucket() {
				return nil
			}

			bucket, err := env.GetOutputBucket(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			return errors.Wrap(export.Upload(ctx, bucket, result.RunID, paths),
				"problem uploading report")
		},
	}
}
