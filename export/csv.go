package export

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

func writeCSV(w io.Writer, t table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.header()); err != nil {
		return errors.Wrap(err, "writing csv header")
	}

	record := make([]string, len(t.columns))
	for idx, row := range t.rows {
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "writing csv row %d", idx)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
