/*
Package export writes analysis results as CSV, JSON, parquet or Excel
files and uploads them to blob storage.
*/
package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/crunchsb/levy/model"
	"github.com/evergreen-ci/pail"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Report collects the tables produced by one run.
type Report struct {
	Summaries  []model.SeriesSummary   `json:"summary" yaml:"summary"`
	Features   []model.FeatureRow      `json:"features" yaml:"features"`
	Breaks     []model.BreakRow        `json:"breaks" yaml:"breaks"`
	Consistent []model.ConsistentBreak `json:"consistent_breaks" yaml:"consistent_breaks"`
	Monthly    []model.MonthlyBreaks   `json:"breaks_by_month" yaml:"breaks_by_month"`
}

func (r *Report) tables() []table {
	return []table{
		summaryTable(r.Summaries),
		featureTable(r.Features),
		breakTable(r.Breaks),
		consistentTable(r.Consistent),
		monthlyTable(r.Monthly),
	}
}

// WriteFeatures writes the feature matrix, one row per series.
func WriteFeatures(path string, format model.FileDataFormat, rows []model.FeatureRow) error {
	return writeTable(path, format, featureTable(rows), rows)
}

// WriteBreaks writes a break table.
func WriteBreaks(path string, format model.FileDataFormat, rows []model.BreakRow) error {
	if format == model.FileParquet {
		return errors.WithStack(writeBreaksParquet(path, rows))
	}
	return writeTable(path, format, breakTable(rows), rows)
}

// WriteSummaries writes one summary line per series.
func WriteSummaries(path string, format model.FileDataFormat, rows []model.SeriesSummary) error {
	return writeTable(path, format, summaryTable(rows), rows)
}

// WriteReport writes every table of the report into dir and returns the
// paths written. JSON and Excel reports are a single file; CSV and
// parquet reports are one file per table named <name>_<table>.
func WriteReport(dir, name string, format model.FileDataFormat, r *Report) ([]string, error) {
	if err := format.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory '%s'", dir)
	}

	switch format {
	case model.FileJSON:
		out := filepath.Join(dir, name+format.Extension())
		return []string{out}, errors.WithStack(writeFile(out, func(f *os.File) error { return writeJSON(f, r) }))
	case model.FileXLSX:
		out := filepath.Join(dir, name+format.Extension())
		return []string{out}, errors.WithStack(writeWorkbook(out, r.tables()...))
	}

	paths := []string{}
	for _, t := range r.tables() {
		out := filepath.Join(dir, fmt.Sprintf("%s_%s%s", name, t.name, format.Extension()))

		var err error
		if format == model.FileParquet && t.name == breaksTableName {
			err = writeBreaksParquet(out, r.Breaks)
		} else {
			err = writeTable(out, format, t, nil)
		}
		if err != nil {
			return paths, errors.Wrapf(err, "writing %s table", t.name)
		}
		paths = append(paths, out)
	}

	return paths, nil
}

func writeTable(path string, format model.FileDataFormat, t table, jsonValue interface{}) error {
	switch format {
	case model.FileCSV:
		return errors.WithStack(writeFile(path, func(f *os.File) error { return writeCSV(f, t) }))
	case model.FileJSON:
		return errors.WithStack(writeFile(path, func(f *os.File) error { return writeJSON(f, jsonValue) }))
	case model.FileParquet:
		return errors.WithStack(writeParquetTable(path, t))
	case model.FileXLSX:
		return errors.WithStack(writeWorkbook(path, t))
	default:
		return errors.Errorf("cannot write %s files", format)
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating '%s'", path)
	}

	catcher := grip.NewBasicCatcher()
	catcher.Add(write(f))
	catcher.Add(f.Close())
	return catcher.Resolve()
}

// Upload copies local files into the bucket under prefix, keyed by file
// name.
func Upload(ctx context.Context, bucket pail.Bucket, prefix string, paths []string) error {
	for _, p := range paths {
		key := path.Join(prefix, filepath.Base(p))
		if err := bucket.Upload(ctx, key, p); err != nil {
			return errors.Wrapf(err, "uploading '%s'", p)
		}

		grip.Debug(message.Fields{
			"message": "uploaded result file",
			"path":    p,
			"key":     key,
		})
	}
	return nil
}
