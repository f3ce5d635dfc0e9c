package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetWriteParallelism = 4

// writeBreaksParquet writes break rows with the fixed ParquetBreakRow
// schema.
func writeBreaksParquet(path string, rows []model.BreakRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrap(err, "creating local file writer")
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(model.ParquetBreakRow), parquetWriteParallelism)
	if err != nil {
		return errors.Wrap(err, "creating new parquet writer")
	}

	for _, row := range rows {
		if err = pw.Write(row.ConvertToParquetBreakRow()); err != nil {
			return errors.Wrap(err, "writing break row")
		}
	}
	if err = pw.WriteStop(); err != nil {
		return errors.Wrap(err, "stopping parquet writer")
	}

	return nil
}

type parquetSchemaField struct {
	Tag string `json:"Tag"`
}

type parquetSchema struct {
	Tag    string               `json:"Tag"`
	Fields []parquetSchemaField `json:"Fields"`
}

func parquetColumnTag(c column) string {
	var typ string
	switch c.kind {
	case stringColumn:
		typ = "type=BYTE_ARRAY, convertedtype=UTF8"
	case intColumn:
		typ = "type=INT64"
	case dateColumn:
		typ = "type=INT64, convertedtype=TIMESTAMP_MILLIS"
	default:
		typ = "type=DOUBLE"
	}
	return fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", c.name, typ)
}

// tableSchema builds the JSON schema of a table whose columns are only
// known at run time, such as the feature matrix.
func tableSchema(t table) (string, error) {
	schema := parquetSchema{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for _, c := range t.columns {
		if strings.ContainsAny(c.name, ", =") {
			return "", errors.Errorf("column name '%s' cannot be used in a parquet schema", c.name)
		}
		schema.Fields = append(schema.Fields, parquetSchemaField{Tag: parquetColumnTag(c)})
	}

	out, err := json.Marshal(schema)
	return string(out), errors.Wrap(err, "encoding parquet schema")
}

func writeParquetTable(path string, t table) error {
	schema, err := tableSchema(t)
	if err != nil {
		return errors.WithStack(err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrap(err, "creating local file writer")
	}
	defer fw.Close()

	pw, err := writer.NewJSONWriter(schema, fw, parquetWriteParallelism)
	if err != nil {
		return errors.Wrap(err, "creating new parquet writer")
	}

	for idx, row := range t.rows {
		rec := make(map[string]interface{}, len(row))
		for i, cell := range row {
			if ts, ok := cell.(time.Time); ok {
				cell = ts.UnixMilli()
			}
			rec[t.columns[i].name] = cell
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrapf(err, "encoding %s row %d", t.name, idx)
		}
		if err = pw.Write(string(data)); err != nil {
			return errors.Wrapf(err, "writing %s row %d", t.name, idx)
		}
	}
	if err = pw.WriteStop(); err != nil {
		return errors.Wrap(err, "stopping parquet writer")
	}

	return nil
}
