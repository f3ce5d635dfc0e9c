package main

import (
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/crunchsb/levy/model"
	"github.com/crunchsb/levy/parser"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

const (
	datasetName = "dataset"
	labelsName  = "labels"

	baseVolatility     = 0.01
	parquetParallelism = 4
)

// breakFactors are the volatility multipliers applied after a labeled
// break: calmer or more turbulent regimes.
var breakFactors = []float64{0.4, 2.5}

func main() {
	app := cli.NewApp()
	app.Name = "generate-series"
	app.Usage = "write a synthetic labeled dataset of return series with volatility breaks"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "series, n", Value: 100, Usage: "number of series"},
		cli.IntFlag{Name: "length, l", Value: 2000, Usage: "observations per series"},
		cli.Float64Flag{Name: "breakRate", Value: 0.5, Usage: "share of series with a structural break"},
		cli.Int64Flag{Name: "seed", Usage: "random seed, defaults to the current time"},
		cli.StringFlag{Name: "format", Value: "csv", Usage: "output format: csv or parquet"},
		cli.StringFlag{Name: "output, o", Value: ".", Usage: "output directory"},
	}
	app.Action = func(c *cli.Context) error {
		seed := c.Int64("seed")
		if !c.IsSet("seed") {
			seed = time.Now().UnixNano()
		}

		opts := generateOptions{
			Series:    c.Int("series"),
			Length:    c.Int("length"),
			BreakRate: c.Float64("breakRate"),
			Seed:      seed,
		}
		return errors.WithStack(generate(opts, model.FileDataFormat(c.String("format")), c.String("output")))
	}

	grip.EmergencyFatal(app.Run(os.Args))
}

type generateOptions struct {
	Series    int
	Length    int
	BreakRate float64
	Seed      int64
}

func (opts generateOptions) validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(opts.Series < 1, "must generate at least one series")
	catcher.NewWhen(opts.Length < 4, "series must have at least four observations")
	catcher.NewWhen(opts.BreakRate < 0 || opts.BreakRate > 1, "break rate must be between 0 and 1")
	return catcher.Resolve()
}

type dataset struct {
	observations []parser.ParquetObservation
	labels       []parser.ParquetLabel
}

// makeDataset builds the observations and labels. Every series has two
// periods split somewhere in its middle half; in labeled series the
// volatility changes at the split.
func makeDataset(opts generateOptions) *dataset {
	rng := rand.New(rand.NewSource(opts.Seed))
	out := &dataset{}

	for id := int64(0); id < int64(opts.Series); id++ {
		boundary := opts.Length/4 + rng.Intn(opts.Length/2)
		broken := rng.Float64() < opts.BreakRate
		after := baseVolatility
		if broken {
			after *= breakFactors[rng.Intn(len(breakFactors))]
		}

		for t := 0; t < opts.Length; t++ {
			sigma := baseVolatility
			period := int64(0)
			if t >= boundary {
				sigma = after
				period = 1
			}

			seriesID, step, value := id, int64(t), rng.NormFloat64()*sigma
			out.observations = append(out.observations, parser.ParquetObservation{
				ID:     &seriesID,
				Time:   &step,
				Value:  &value,
				Period: &period,
			})
		}

		seriesID, label := id, broken
		out.labels = append(out.labels, parser.ParquetLabel{ID: &seriesID, Label: &label})
	}

	return out
}

func generate(opts generateOptions, format model.FileDataFormat, dir string) error {
	if err := opts.validate(); err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating output directory '%s'", dir)
	}

	startAt := time.Now()
	data := makeDataset(opts)

	dataPath := filepath.Join(dir, datasetName+format.Extension())
	labelPath := filepath.Join(dir, labelsName+format.Extension())

	var err error
	switch format {
	case model.FileCSV:
		if err = writeObservationsCSV(dataPath, data.observations); err == nil {
			err = writeLabelsCSV(labelPath, data.labels)
		}
	case model.FileParquet:
		if err = writeParquet(dataPath, new(parser.ParquetObservation), len(data.observations), func(i int) interface{} { return data.observations[i] }); err == nil {
			err = writeParquet(labelPath, new(parser.ParquetLabel), len(data.labels), func(i int) interface{} { return data.labels[i] })
		}
	default:
		return errors.Errorf("cannot generate %s files", format)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	grip.Info(message.Fields{
		"message":  "generated dataset",
		"dur_secs": time.Since(startAt).Seconds(),
		"series":   opts.Series,
		"length":   opts.Length,
		"seed":     opts.Seed,
		"data":     dataPath,
		"labels":   labelPath,
	})

	return nil
}

func writeCSV(path string, header []string, n int, record func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating '%s'", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err = w.Write(header); err != nil {
		return errors.WithStack(err)
	}
	for i := 0; i < n; i++ {
		if err = w.Write(record(i)); err != nil {
			return errors.Wrapf(err, "writing row %d", i)
		}
	}
	w.Flush()

	return errors.WithStack(w.Error())
}

func writeObservationsCSV(path string, rows []parser.ParquetObservation) error {
	return writeCSV(path, []string{"id", "time", "value", "period"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			strconv.FormatInt(*r.ID, 10),
			strconv.FormatInt(*r.Time, 10),
			strconv.FormatFloat(*r.Value, 'g', -1, 64),
			strconv.FormatInt(*r.Period, 10),
		}
	})
}

func writeLabelsCSV(path string, rows []parser.ParquetLabel) error {
	return writeCSV(path, []string{"id", "structural_breakpoint"}, len(rows), func(i int) []string {
		return []string{strconv.FormatInt(*rows[i].ID, 10), strconv.FormatBool(*rows[i].Label)}
	})
}

func writeParquet(path string, schema interface{}, n int, row func(int) interface{}) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrap(err, "creating local file writer")
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, schema, parquetParallelism)
	if err != nil {
		return errors.Wrap(err, "creating new parquet writer")
	}

	for i := 0; i < n; i++ {
		if err = pw.Write(row(i)); err != nil {
			return errors.Wrapf(err, "writing row %d", i)
		}
	}

	return errors.Wrap(pw.WriteStop(), "stopping parquet writer")
}
