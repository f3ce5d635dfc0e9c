package parser

import (
	"path/filepath"
	"strings"

	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

const (
	defaultIDColumn     = "id"
	defaultTimeColumn   = "time"
	defaultDateColumn   = "date"
	defaultValueColumn  = "value"
	defaultPeriodColumn = "period"
)

// ParserOptions is all possible inputs to parsers.
type ParserOptions struct {
	Path   string
	Format model.FileDataFormat
	Layout model.FileLayout

	// SeriesID names the series of a single-series file. It defaults to
	// the file name without its extension.
	SeriesID string

	IDColumn     string
	TimeColumn   string
	ValueColumn  string
	PeriodColumn string

	// TimeFormat is a Go time layout. When unset, times that are not
	// integers are tried as RFC3339, then as dates with and without a
	// clock.
	TimeFormat string
}

// Validate fills in the default column names and infers the format from
// the path.
func (opts *ParserOptions) Validate() error {
	catcher := grip.NewBasicCatcher()

	catcher.NewWhen(opts.Path == "", "must specify an input path")

	if opts.Format == "" && opts.Path != "" {
		ff, err := model.FormatFromPath(opts.Path)
		catcher.Add(err)
		opts.Format = ff
	}
	if opts.Layout == "" {
		opts.Layout = model.LayoutSingle
	}
	if opts.SeriesID == "" {
		base := filepath.Base(opts.Path)
		opts.SeriesID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if opts.IDColumn == "" {
		opts.IDColumn = defaultIDColumn
	}
	if opts.TimeColumn == "" {
		if opts.Layout == model.LayoutLong {
			opts.TimeColumn = defaultTimeColumn
		} else {
			opts.TimeColumn = defaultDateColumn
		}
	}
	if opts.ValueColumn == "" {
		opts.ValueColumn = defaultValueColumn
	}
	if opts.PeriodColumn == "" {
		opts.PeriodColumn = defaultPeriodColumn
	}

	if opts.Format != "" {
		catcher.Add(opts.Format.Validate())
	}
	catcher.Add(opts.Layout.Validate())

	return catcher.Resolve()
}

// Parser reads one input file into series.
type Parser interface {
	Initialize(opts ParserOptions) error
	Parse() ([]model.Series, error)
}

// NewParser returns an initialized parser for the format and layout of
// opts.
func NewParser(opts ParserOptions) (Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid parser options")
	}

	var p Parser
	switch {
	case opts.Format == model.FileCSV && opts.Layout == model.LayoutSingle:
		p = &csvSeriesParser{}
	case opts.Format == model.FileCSV && opts.Layout == model.LayoutLong:
		p = &csvLongParser{}
	case opts.Format == model.FileJSON:
		p = &jsonParser{}
	case opts.Format == model.FileParquet && opts.Layout == model.LayoutLong:
		p = &parquetLongParser{}
	default:
		return nil, errors.Errorf("reading %s files with the %s layout is not supported", opts.Format, opts.Layout)
	}

	if err := p.Initialize(opts); err != nil {
		return nil, errors.WithStack(err)
	}
	return p, nil
}

// ParseFile reads every series in the file described by opts.
func ParseFile(opts ParserOptions) ([]model.Series, error) {
	p, err := NewParser(opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	series, err := p.Parse()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing '%s'", opts.Path)
	}

	for idx := range series {
		if err = series[idx].Validate(); err != nil {
			return nil, errors.Wrapf(err, "parsing '%s'", opts.Path)
		}
	}

	return series, nil
}
