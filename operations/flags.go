package operations

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	configFlag     = "config"
	pathFlagName   = "path"
	outputFlagName = "output"
	formatFlagName = "format"
	nameFlagName   = "name"

	layoutFlag       = "layout"
	seriesIDFlag     = "id"
	idColumnFlag     = "idColumn"
	timeColumnFlag   = "timeColumn"
	valueColumnFlag  = "valueColumn"
	periodColumnFlag = "periodColumn"
	timeFormatFlag   = "timeFormat"
	labelsFlag       = "labels"

	tauFlag               = "tau"
	qFlag                 = "q"
	tausFlag              = "taus"
	transformFlag         = "transform"
	minSectionsFlag       = "minSections"
	minConsistentTausFlag = "minConsistentTaus"
	parallelFlag          = "parallel"

	numWorkersFlag   = "workers"
	bucketNameFlag   = "bucket"
	bucketPrefixFlag = "prefix"
	bucketTypeFlag   = "bucketType"
	bucketRegionFlag = "region"

	servicePortFlag = "port"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

// parseTaus reads a comma separated list of tau values.
func parseTaus(in string) ([]float64, error) {
	out := []float64{}
	for _, part := range strings.Split(in, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		tau, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid tau value '%s'", part)
		}
		out = append(out, tau)
	}
	return out, nil
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func setFlagOrFirstPositional(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		val := c.String(name)
		if val == "" {
			if c.NArg() != 1 {
				return errors.Errorf("must specify exactly one positional argument for '%s'", name)
			}

			val = c.Args().Get(0)
		}

		return c.Set(name, val)
	}
}

func inputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  joinFlagNames(pathFlagName, "filename", "file", "f"),
			Usage: "path to the input series file (csv, json or parquet)",
		},
		cli.StringFlag{
			Name:  layoutFlag,
			Usage: "input layout: 'single' for one series per file or 'long' for id, time, value rows",
			Value: "single",
		},
		cli.StringFlag{
			Name:  seriesIDFlag,
			Usage: "name of the series in a single series file, defaults to the file name",
		},
		cli.StringFlag{
			Name:  idColumnFlag,
			Usage: "name of the series id column in long files",
		},
		cli.StringFlag{
			Name:  timeColumnFlag,
			Usage: "name of the time or date column",
		},
		cli.StringFlag{
			Name:  valueColumnFlag,
			Usage: "name of the value column",
		},
		cli.StringFlag{
			Name:  periodColumnFlag,
			Usage: "name of the period column in long files",
		},
		cli.StringFlag{
			Name:  timeFormatFlag,
			Usage: "go time layout for the time column",
		},
	)
}

func analysisFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   configFlag,
			Usage:  "path to a yaml configuration file; flags override its values",
			EnvVar: "LEVY_CONFIG",
		},
		cli.Float64Flag{
			Name:  tauFlag,
			Usage: "variance threshold of a section",
		},
		cli.IntFlag{
			Name:  qFlag,
			Usage: "half width of the local variance window",
		},
		cli.StringFlag{
			Name:  transformFlag,
			Usage: "how values become returns: 'none', 'diff' or 'log'",
		},
		cli.IntFlag{
			Name:  minSectionsFlag,
			Usage: "fewest sections break detection will consider",
		},
	)
}

func sweepFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  tausFlag,
			Usage: "comma separated tau values to sweep",
		},
		cli.IntFlag{
			Name:  minConsistentTausFlag,
			Usage: "distinct tau values that must agree on a month",
		},
	)
}

func outputFlags(defaultOutput string, flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  joinFlagNames(outputFlagName, "o"),
			Usage: "path to the output file or directory",
			Value: defaultOutput,
		},
		cli.StringFlag{
			Name:  formatFlagName,
			Usage: "output format: csv, json, parquet or xlsx; defaults to the output extension",
		},
	)
}

func baseFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  numWorkersFlag,
			Usage: "specify the number of worker jobs this process will have",
		},
		cli.StringFlag{
			Name:   bucketNameFlag,
			Usage:  "specify a bucket name to upload results to",
			EnvVar: "LEVY_BUCKET_NAME",
		},
		cli.StringFlag{
			Name:  bucketPrefixFlag,
			Usage: "key prefix for uploaded results",
		},
		cli.StringFlag{
			Name:  bucketTypeFlag,
			Usage: "bucket type: 'local' or 's3'",
		},
		cli.StringFlag{
			Name:   bucketRegionFlag,
			Usage:  "region of an s3 bucket",
			EnvVar: "AWS_REGION",
		},
	)
}
