package operations

import (
	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/model"
	"github.com/crunchsb/levy/parser"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// resolveConfiguration loads the configuration file, when one is named,
// and applies the flags that were set on top of it.
func resolveConfiguration(c *cli.Context) (*levy.Configuration, error) {
	conf := &levy.Configuration{}
	if fn := c.String(configFlag); fn != "" {
		var err error
		conf, err = levy.LoadConfiguration(fn)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if c.IsSet(tauFlag) {
		conf.Tau = c.Float64(tauFlag)
	}
	if c.IsSet(qFlag) {
		conf.Q = c.Int(qFlag)
	}
	if c.IsSet(transformFlag) {
		conf.Transform = model.ReturnTransform(c.String(transformFlag))
	}
	if c.IsSet(minSectionsFlag) {
		conf.MinSections = c.Int(minSectionsFlag)
	}
	if c.IsSet(tausFlag) {
		taus, err := parseTaus(c.String(tausFlag))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		conf.TauValues = taus
	}
	if c.IsSet(minConsistentTausFlag) {
		conf.MinConsistentTaus = c.Int(minConsistentTausFlag)
	}
	if c.IsSet(numWorkersFlag) {
		conf.NumWorkers = c.Int(numWorkersFlag)
	}
	if c.IsSet(bucketNameFlag) {
		conf.OutputBucket = c.String(bucketNameFlag)
	}
	if c.IsSet(bucketPrefixFlag) {
		conf.OutputPrefix = c.String(bucketPrefixFlag)
	}
	if c.IsSet(bucketTypeFlag) {
		conf.OutputType = model.PailType(c.String(bucketTypeFlag))
	}
	if c.IsSet(bucketRegionFlag) {
		conf.OutputRegion = c.String(bucketRegionFlag)
	}
	if c.IsSet(formatFlagName) {
		conf.OutputFormat = model.FileDataFormat(c.String(formatFlagName))
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return conf, nil
}

func parserOptions(c *cli.Context) parser.ParserOptions {
	return parser.ParserOptions{
		Path:         c.String(pathFlagName),
		Layout:       model.FileLayout(c.String(layoutFlag)),
		SeriesID:     c.String(seriesIDFlag),
		IDColumn:     c.String(idColumnFlag),
		TimeColumn:   c.String(timeColumnFlag),
		ValueColumn:  c.String(valueColumnFlag),
		PeriodColumn: c.String(periodColumnFlag),
		TimeFormat:   c.String(timeFormatFlag),
	}
}

// outputFormat prefers an explicit format flag, then the output file's
// extension, then the configured default.
func outputFormat(c *cli.Context, conf *levy.Configuration, path string) model.FileDataFormat {
	if c.IsSet(formatFlagName) {
		return conf.OutputFormat
	}
	if ff, err := model.FormatFromPath(path); err == nil {
		return ff
	}
	return conf.OutputFormat
}

// configureEnvironment sets up the global environment for commands that
// run jobs.
func configureEnvironment(conf *levy.Configuration) (levy.Environment, error) {
	env := levy.GetEnvironment()
	if err := env.Configure(conf); err != nil {
		return nil, errors.Wrap(err, "problem configuring environment")
	}
	return env, nil
}
