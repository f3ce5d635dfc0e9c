package parser

import (
	"math"
	"strconv"

	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

const parquetReadParallelism = 4

// ParquetObservation is the long-format parquet schema: integer series
// ids and time steps with an optional period marker. Every column is
// optional, matching files written from data frames.
type ParquetObservation struct {
	ID     *int64   `parquet:"name=id, type=INT64, repetitiontype=OPTIONAL"`
	Time   *int64   `parquet:"name=time, type=INT64, repetitiontype=OPTIONAL"`
	Value  *float64 `parquet:"name=value, type=DOUBLE, repetitiontype=OPTIONAL"`
	Period *int64   `parquet:"name=period, type=INT64, repetitiontype=OPTIONAL"`
}

// ParquetLabel is the schema of a parquet label file.
type ParquetLabel struct {
	ID    *int64 `parquet:"name=id, type=INT64, repetitiontype=OPTIONAL"`
	Label *bool  `parquet:"name=structural_breakpoint, type=BOOLEAN, repetitiontype=OPTIONAL"`
}

type parquetLongParser struct {
	opts ParserOptions
}

func (p *parquetLongParser) Initialize(opts ParserOptions) error {
	if opts.Path == "" {
		return errors.New("no path given")
	}
	p.opts = opts
	return nil
}

func (p *parquetLongParser) Parse() ([]model.Series, error) {
	records := []ParquetObservation{}
	if err := readParquet(p.opts.Path, new(ParquetObservation), &records); err != nil {
		return nil, errors.WithStack(err)
	}

	rows := make([]observation, 0, len(records))
	dropped := 0
	for idx, rec := range records {
		if rec.ID == nil || rec.Time == nil {
			return nil, errors.Errorf("row %d is missing its id or time", idx)
		}
		if rec.Value == nil || math.IsNaN(*rec.Value) {
			dropped++
			continue
		}
		if math.IsInf(*rec.Value, 0) {
			return nil, errors.Errorf("row %d holds an infinite value", idx)
		}

		row := observation{
			id:    strconv.FormatInt(*rec.ID, 10),
			order: *rec.Time,
			value: *rec.Value,
		}
		if rec.Period != nil {
			period := int(*rec.Period)
			row.period = &period
		}
		rows = append(rows, row)
	}

	series := groupObservations(rows)
	grip.Info(message.Fields{
		"message": "read long format series",
		"path":    p.opts.Path,
		"series":  len(series),
		"rows":    len(rows),
		"dropped": dropped,
	})

	return series, nil
}

// readParquet reads every row of the file at path into out, a pointer
// to a slice of schema's type.
func readParquet(path string, schema interface{}, out interface{}) error {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return errors.Wrapf(err, "opening '%s'", path)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, schema, parquetReadParallelism)
	if err != nil {
		return errors.Wrap(err, "creating parquet reader")
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	if num == 0 {
		return nil
	}

	switch rows := out.(type) {
	case *[]ParquetObservation:
		*rows = make([]ParquetObservation, num)
	case *[]ParquetLabel:
		*rows = make([]ParquetLabel, num)
	default:
		return errors.Errorf("unsupported parquet row type %T", out)
	}

	return errors.Wrap(pr.Read(out), "reading parquet rows")
}
