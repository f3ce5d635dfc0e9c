package operations

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestBaseFlags(t *testing.T) {
	assert := assert.New(t)

	flags := mergeFlags(inputFlags(), analysisFlags(), sweepFlags(), baseFlags(), outputFlags("out.csv"))
	flagMap := map[string]cli.Flag{}
	for _, f := range flags {
		flagMap[f.GetName()] = f
	}

	expected := []string{
		"path, filename, file, f", "layout", "id", "idColumn", "timeColumn", "valueColumn",
		"config", "tau", "q", "transform", "minSections",
		"taus", "minConsistentTaus",
		"workers", "bucket", "prefix", "bucketType", "region",
		"output, o", "format",
	}
	for _, n := range expected {
		_, ok := flagMap[n]
		assert.True(ok, n)
	}
}

func TestParseTaus(t *testing.T) {
	taus, err := parseTaus("0.001, 0.005,0.01,")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.001, 0.005, 0.01}, taus)

	taus, err = parseTaus("")
	require.NoError(t, err)
	assert.Empty(t, taus)

	_, err = parseTaus("0.001,abc")
	assert.Error(t, err)
}

func resolveWith(t *testing.T, args ...string) (*levy.Configuration, error) {
	var conf *levy.Configuration
	var err error

	app := cli.NewApp()
	app.Flags = mergeFlags(analysisFlags(), sweepFlags(), baseFlags(), outputFlags("out.csv"))
	app.Action = func(c *cli.Context) error {
		conf, err = resolveConfiguration(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"levy"}, args...)))

	return conf, err
}

func TestResolveConfiguration(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		conf, err := resolveWith(t)
		require.NoError(t, err)
		assert.Equal(t, 0.01, conf.Tau)
		assert.Equal(t, 5, conf.Q)
		assert.Equal(t, []float64{0.001, 0.005, 0.01, 0.02}, conf.TauValues)
		assert.Equal(t, model.TransformNone, conf.Transform)
		assert.Equal(t, model.FileCSV, conf.OutputFormat)
	})
	t.Run("Flags", func(t *testing.T) {
		conf, err := resolveWith(t,
			"--tau", "0.002",
			"--q", "3",
			"--taus", "0.001,0.002",
			"--transform", "diff",
			"--minConsistentTaus", "3",
			"--workers", "4",
			"--format", "parquet",
		)
		require.NoError(t, err)
		assert.Equal(t, 0.002, conf.Tau)
		assert.Equal(t, 3, conf.Q)
		assert.Equal(t, []float64{0.001, 0.002}, conf.TauValues)
		assert.Equal(t, model.TransformDiff, conf.Transform)
		assert.Equal(t, 3, conf.MinConsistentTaus)
		assert.Equal(t, 4, conf.NumWorkers)
		assert.Equal(t, model.FileParquet, conf.OutputFormat)
	})
	t.Run("FileWithOverrides", func(t *testing.T) {
		fn := filepath.Join(t.TempDir(), "levy.yaml")
		require.NoError(t, ioutil.WriteFile(fn, []byte("tau: 0.005\nq: 4\ntransform: log\n"), 0644))

		conf, err := resolveWith(t, "--config", fn, "--q", "2")
		require.NoError(t, err)
		assert.Equal(t, 0.005, conf.Tau)
		assert.Equal(t, 2, conf.Q)
		assert.Equal(t, model.TransformLog, conf.Transform)
	})
	t.Run("MissingFile", func(t *testing.T) {
		_, err := resolveWith(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
	t.Run("InvalidTransform", func(t *testing.T) {
		_, err := resolveWith(t, "--transform", "sqrt")
		assert.Error(t, err)
	})
	t.Run("InvalidTaus", func(t *testing.T) {
		_, err := resolveWith(t, "--taus", "0.001,-1")
		assert.Error(t, err)

		_, err = resolveWith(t, "--taus", "x")
		assert.Error(t, err)
	})
}
