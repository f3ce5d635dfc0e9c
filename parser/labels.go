package parser

import (
	"io"
	"strconv"
	"strings"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
)

var labelColumns = []string{"label", "structural_breakpoint"}

// ParseLabels reads per-series binary labels from a CSV file with an id
// column and a label or structural_breakpoint column, or from a parquet
// file with the ParquetLabel schema.
func ParseLabels(path string) (map[string]int, error) {
	ff, err := model.FormatFromPath(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	switch ff {
	case model.FileCSV:
		return parseCSVLabels(path)
	case model.FileParquet:
		return parseParquetLabels(path)
	default:
		return nil, errors.Errorf("labels cannot be read from %s files", ff)
	}
}

func parseCSVLabels(path string) (map[string]int, error) {
	table, err := openCSV(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer table.Close()

	idIdx, err := table.column(defaultIDColumn, true)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	labelIdx := -1
	for _, name := range labelColumns {
		if labelIdx, _ = table.column(name, false); labelIdx >= 0 {
			break
		}
	}
	if labelIdx < 0 {
		return nil, errors.Errorf("missing a label column, expected one of %s", strings.Join(labelColumns, ", "))
	}

	out := map[string]int{}
	for {
		record, err := table.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}

		label, err := parseLabel(record[labelIdx])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", table.line)
		}
		out[strings.TrimSpace(record[idIdx])] = label
	}

	return out, nil
}

func parseParquetLabels(path string) (map[string]int, error) {
	records := []ParquetLabel{}
	if err := readParquet(path, new(ParquetLabel), &records); err != nil {
		return nil, errors.WithStack(err)
	}

	out := make(map[string]int, len(records))
	for idx, rec := range records {
		if rec.ID == nil || rec.Label == nil {
			return nil, errors.Errorf("label row %d is incomplete", idx)
		}
		label := 0
		if *rec.Label {
			label = 1
		}
		out[strconv.FormatInt(*rec.ID, 10)] = label
	}
	return out, nil
}

func parseLabel(in string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "1", "1.0", "true":
		return 1, nil
	case "0", "0.0", "false":
		return 0, nil
	default:
		return 0, errors.Errorf("invalid label '%s'", in)
	}
}
