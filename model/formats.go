package model

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileDataFormat names a tabular encoding for series input or analysis
// output.
type FileDataFormat string

const (
	FileCSV     FileDataFormat = "csv"
	FileJSON    FileDataFormat = "json"
	FileParquet FileDataFormat = "parquet"
	FileXLSX    FileDataFormat = "xlsx"
)

func (ff FileDataFormat) Validate() error {
	switch ff {
	case FileCSV, FileJSON, FileParquet, FileXLSX:
		return nil
	default:
		return errors.Errorf("invalid data format '%s'", ff)
	}
}

// Extension returns the file suffix for the format, including the dot.
func (ff FileDataFormat) Extension() string { return "." + string(ff) }

// FormatFromPath infers the format from a file name's extension.
func FormatFromPath(path string) (FileDataFormat, error) {
	ff := FileDataFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err := ff.Validate(); err != nil {
		return "", errors.Wrapf(err, "cannot infer format of '%s'", path)
	}
	return ff, nil
}

// FileLayout describes how series are arranged in an input file.
type FileLayout string

const (
	// LayoutSingle is one series per file: a value column with an
	// optional date column.
	LayoutSingle FileLayout = "single"
	// LayoutLong stacks many series: id, time, value and an optional
	// period column.
	LayoutLong FileLayout = "long"
)

func (fl FileLayout) Validate() error {
	switch fl {
	case LayoutSingle, LayoutLong:
		return nil
	default:
		return errors.Errorf("invalid file layout '%s'", fl)
	}
}
