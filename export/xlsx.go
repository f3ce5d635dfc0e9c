package export

import (
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook writes each table to its own sheet, in order.
func writeWorkbook(path string, tables ...table) error {
	if len(tables) == 0 {
		return errors.New("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.name); err != nil {
				return errors.Wrapf(err, "naming sheet '%s'", t.name)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return errors.Wrapf(err, "creating sheet '%s'", t.name)
		}

		header := make([]interface{}, len(t.columns))
		for j, name := range t.header() {
			header[j] = name
		}
		if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
			return errors.Wrapf(err, "writing '%s' header", t.name)
		}

		for r, row := range t.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return errors.WithStack(err)
			}

			values := make([]interface{}, len(row))
			for j, v := range row {
				if ts, ok := v.(time.Time); ok {
					v = formatCell(ts)
				}
				values[j] = v
			}
			if err = f.SetSheetRow(t.name, cell, &values); err != nil {
				return errors.Wrapf(err, "writing '%s' row %d", t.name, r)
			}
		}
	}

	return errors.Wrapf(f.SaveAs(path), "saving workbook '%s'", path)
}
