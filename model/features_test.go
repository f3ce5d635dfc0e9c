package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureValue(t *testing.T) {
	good := FeatureValue{Name: "levy_duration_mean", Value: 12.5, Kind: FeatureKindMean, Version: 1}
	bad := FeatureValue{Name: "levy_shapiro_pvalue", Value: math.NaN(), Reason: ReasonInsufficientSamples, Kind: FeatureKindPValue, Version: 1}

	t.Run("Accessors", func(t *testing.T) {
		assert.True(t, good.Valid())
		assert.Equal(t, 12.5, good.Float())
		require.NotNil(t, good.Ptr())
		assert.Equal(t, 12.5, *good.Ptr())

		assert.False(t, bad.Valid())
		assert.True(t, math.IsNaN(bad.Float()))
		assert.Nil(t, bad.Ptr())

		assert.False(t, FeatureValue{Value: math.Inf(1)}.Valid())
	})
	t.Run("JSONWritesNull", func(t *testing.T) {
		out, err := json.Marshal(bad)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"levy_shapiro_pvalue","value":null,"reason":"insufficient-samples","kind":"p-value","version":1}`, string(out))

		out, err = json.Marshal(good)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"levy_duration_mean","value":12.5,"kind":"mean","version":1}`, string(out))
	})
	t.Run("JSONReadsNull", func(t *testing.T) {
		var v FeatureValue
		require.NoError(t, json.Unmarshal([]byte(`{"name":"x","value":null,"kind":"moment","version":1}`), &v))
		assert.False(t, v.Valid())
		assert.Equal(t, ReasonDegenerate, v.Reason)

		require.NoError(t, json.Unmarshal([]byte(`{"name":"x","value":2,"kind":"moment","version":1}`), &v))
		assert.True(t, v.Valid())
		assert.Equal(t, 2.0, v.Value)
	})
}

func TestFeatureSet(t *testing.T) {
	fs := FeatureSet{
		{Name: "b", Value: 2},
		{Name: "a", Value: math.NaN(), Reason: ReasonDegenerate},
	}

	assert.Equal(t, []string{"b", "a"}, fs.Names())
	v, ok := fs.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.Value)
	_, ok = fs.Get("c")
	assert.False(t, ok)

	m := fs.Map()
	assert.Equal(t, 2.0, m["b"])
	assert.True(t, math.IsNaN(m["a"]))

	rows := []FeatureRow{
		{SeriesID: "one", Features: fs},
		{SeriesID: "two", Features: FeatureSet{{Name: "a"}, {Name: "c"}}},
	}
	assert.Equal(t, []string{"b", "a", "c"}, FeatureColumns(rows))
}
