package parser

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// csvTable is an open CSV file with its header indexed by column name.
type csvTable struct {
	file    *os.File
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func openCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening '%s'", path)
	}

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading header of '%s'", path)
	}

	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = idx
	}

	return &csvTable{file: f, reader: r, columns: columns, line: 1}, nil
}

func (t *csvTable) column(name string, required bool) (int, error) {
	idx, ok := t.columns[name]
	if !ok {
		if required {
			return -1, errors.Errorf("missing column '%s'", name)
		}
		return -1, nil
	}
	return idx, nil
}

// next returns the next record, or io.EOF.
func (t *csvTable) next() ([]string, error) {
	record, err := t.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	t.line++
	return record, errors.Wrapf(err, "line %d", t.line)
}

func (t *csvTable) Close() error { return t.file.Close() }

////////////////////////
// Single series
////////////////////////

// csvSeriesParser reads one series from a file with a value column and
// an optional date column. Rows with a blank or NaN value are dropped.
type csvSeriesParser struct {
	opts ParserOptions
}

func (p *csvSeriesParser) Initialize(opts ParserOptions) error {
	if opts.Path == "" {
		return errors.New("no path given")
	}
	p.opts = opts
	return nil
}

func (p *csvSeriesParser) Parse() ([]model.Series, error) {
	table, err := openCSV(p.opts.Path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer table.Close()

	valueIdx, err := table.column(p.opts.ValueColumn, true)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	dateIdx, _ := table.column(p.opts.TimeColumn, false)

	s := model.Series{ID: p.opts.SeriesID, Values: []float64{}}
	dates := []time.Time{}
	dropped := 0
	for {
		record, err := table.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}

		value, ok, err := parseValue(record[valueIdx])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", table.line)
		}
		if !ok {
			dropped++
			continue
		}

		if dateIdx >= 0 {
			_, date, err := parseTime(record[dateIdx], p.opts.TimeFormat)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", table.line)
			}
			if date == nil {
				return nil, errors.Errorf("line %d: date column holds '%s'", table.line, record[dateIdx])
			}
			dates = append(dates, *date)
		}
		s.Values = append(s.Values, value)
	}

	if dateIdx >= 0 {
		s.Dates = dates
	}

	grip.InfoWhen(dropped > 0, message.Fields{
		"message": "dropped missing observations",
		"path":    p.opts.Path,
		"series":  s.ID,
		"dropped": dropped,
		"kept":    len(s.Values),
	})

	return []model.Series{s}, nil
}

////////////////////////
// Long format
////////////////////////

// csvLongParser reads many stacked series from id, time and value
// columns with an optional period column.
type csvLongParser struct {
	opts ParserOptions
}

func (p *csvLongParser) Initialize(opts ParserOptions) error {
	if opts.Path == "" {
		return errors.New("no path given")
	}
	p.opts = opts
	return nil
}

func (p *csvLongParser) Parse() ([]model.Series, error) {
	table, err := openCSV(p.opts.Path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer table.Close()

	catcher := grip.NewBasicCatcher()
	idIdx, err := table.column(p.opts.IDColumn, true)
	catcher.Add(err)
	timeIdx, err := table.column(p.opts.TimeColumn, true)
	catcher.Add(err)
	valueIdx, err := table.column(p.opts.ValueColumn, true)
	catcher.Add(err)
	if catcher.HasErrors() {
		return nil, catcher.Resolve()
	}
	periodIdx, _ := table.column(p.opts.PeriodColumn, false)

	rows := []observation{}
	dropped := 0
	for {
		record, err := table.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}

		value, ok, err := parseValue(record[valueIdx])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", table.line)
		}
		if !ok {
			dropped++
			continue
		}

		id := strings.TrimSpace(record[idIdx])
		if id == "" {
			return nil, errors.Errorf("line %d: empty series id", table.line)
		}

		order, date, err := parseTime(record[timeIdx], p.opts.TimeFormat)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", table.line)
		}

		row := observation{id: id, order: order, date: date, value: value}
		if periodIdx >= 0 {
			if row.period, err = parsePeriod(record[periodIdx]); err != nil {
				return nil, errors.Wrapf(err, "line %d", table.line)
			}
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
