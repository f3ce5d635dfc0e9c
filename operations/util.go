package operations

import (
	"encoding/json"
	"os"

	"github.com/crunchsb/levy/model"
	"github.com/crunchsb/levy/parser"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

func writeJSON(fn string, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	f, err := os.Create(fn)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if _, err = f.Write(out); err != nil {
		return errors.WithStack(err)
	}

	if _, err = f.WriteString("\n"); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(f.Sync())
}

func readSeries(opts parser.ParserOptions) ([]model.Series, error) {
	series, err := parser.ParseFile(opts)
	if err != nil {
		return nil, errors.Wrap(err, "problem reading series")
	}
	if len(series) == 0 {
		return nil, errors.Errorf("no series found in '%s'", opts.Path)
	}

	grip.Info(message.Fields{
		"message": "read input series",
		"path":    opts.Path,
		"series":  len(series),
	})

	return series, nil
}

func readLabels(path string) (map[string]int, error) {
	if path == "" {
		return nil, nil
	}

	labels, err := parser.ParseLabels(path)
	return labels, errors.Wrap(err, "problem reading labels")
}
