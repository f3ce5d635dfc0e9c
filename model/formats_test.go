package model

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDataFormat(t *testing.T) {
	for _, ff := range []FileDataFormat{FileCSV, FileJSON, FileParquet, FileXLSX} {
		assert.NoError(t, ff.Validate())
		inferred, err := FormatFromPath("out/features" + ff.Extension())
		require.NoError(t, err)
		assert.Equal(t, ff, inferred)
	}

	assert.Error(t, FileDataFormat("bson").Validate())
	_, err := FormatFromPath("series.txt")
	assert.Error(t, err)

	inferred, err := FormatFromPath("SERIES.CSV")
	require.NoError(t, err)
	assert.Equal(t, FileCSV, inferred)
}

func TestFileLayout(t *testing.T) {
	assert.NoError(t, LayoutSingle.Validate())
	assert.NoError(t, LayoutLong.Validate())
	assert.Error(t, FileLayout("wide").Validate())
}

func TestPailType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NoError(t, PailLocal.Validate())
	assert.NoError(t, PailS3.Validate())
	assert.Error(t, PailType("gridfs").Validate())

	t.Run("Local", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bucket")
		b, err := PailLocal.Create(ctx, dir, "runs", "")
		require.NoError(t, err)
		require.NoError(t, b.Put(ctx, "features.csv", strings.NewReader("a,b\n")))

		r, err := b.Get(ctx, "features.csv")
		require.NoError(t, err)
		defer r.Close()
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := PailType("gridfs").Create(ctx, "bucket", "", "")
		assert.Error(t, err)
	})
}
