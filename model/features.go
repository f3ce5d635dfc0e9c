package model

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// FeatureKind groups features by the statistic they report.
type FeatureKind string

const (
	FeatureKindMean        FeatureKind = "mean"
	FeatureKindStdDev      FeatureKind = "standard-deviation"
	FeatureKindRatio       FeatureKind = "ratio"
	FeatureKindMoment      FeatureKind = "moment"
	FeatureKindQuantile    FeatureKind = "quantile"
	FeatureKindBound       FeatureKind = "bound"
	FeatureKindCount       FeatureKind = "count"
	FeatureKindPValue      FeatureKind = "p-value"
	FeatureKindCorrelation FeatureKind = "correlation"
	FeatureKindFlag        FeatureKind = "flag"
)

// Reason explains why a feature has no value. The zero value means the
// feature was computed.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonInsufficientSamples Reason = "insufficient-samples"
	ReasonDegenerate          Reason = "degenerate"
)

// FeatureValue is one named scalar produced by feature extraction.
type FeatureValue struct {
	Name    string      `yaml:"name"`
	Value   float64     `yaml:"value"`
	Reason  Reason      `yaml:"reason,omitempty"`
	Kind    FeatureKind `yaml:"kind"`
	Version int         `yaml:"version"`
}

// Valid reports whether the feature carries a computed value.
func (v FeatureValue) Valid() bool {
	return v.Reason == ReasonNone && !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0)
}

// Float returns the value, or NaN when the feature could not be computed.
func (v FeatureValue) Float() float64 {
	if !v.Valid() {
		return math.NaN()
	}
	return v.Value
}

// Ptr returns nil when the feature could not be computed.
func (v FeatureValue) Ptr() *float64 {
	if !v.Valid() {
		return nil
	}
	out := v.Value
	return &out
}

type featureValueJSON struct {
	Name    string      `json:"name"`
	Value   *float64    `json:"value"`
	Reason  Reason      `json:"reason,omitempty"`
	Kind    FeatureKind `json:"kind"`
	Version int         `json:"version"`
}

// MarshalJSON writes uncomputable values as null, since JSON has no NaN.
func (v FeatureValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(featureValueJSON{
		Name:    v.Name,
		Value:   v.Ptr(),
		Reason:  v.Reason,
		Kind:    v.Kind,
		Version: v.Version,
	})
}

func (v *FeatureValue) UnmarshalJSON(data []byte) error {
	in := featureValueJSON{}
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.WithStack(err)
	}

	v.Name = in.Name
	v.Reason = in.Reason
	v.Kind = in.Kind
	v.Version = in.Version
	if in.Value == nil {
		v.Value = math.NaN()
		if v.Reason == ReasonNone {
			v.Reason = ReasonDegenerate
		}
	} else {
		v.Value = *in.Value
	}
	return nil
}

// FeatureSet is an ordered collection of features for one series.
type FeatureSet []FeatureValue

// Get returns the named feature.
func (fs FeatureSet) Get(name string) (FeatureValue, bool) {
	for _, v := range fs {
		if v.Name == name {
			return v, true
		}
	}
	return FeatureValue{}, false
}

// Names returns the feature names in order.
func (fs FeatureSet) Names() []string {
	out := make([]string, len(fs))
	for i, v := range fs {
		out[i] = v.Name
	}
	return out
}

// Map flattens the set, using NaN for uncomputable features.
func (fs FeatureSet) Map() map[string]float64 {
	out := make(map[string]float64, len(fs))
	for _, v := range fs {
		out[v.Name] = v.Float()
	}
	return out
}

// FeatureRow is one series' features flattened into a table row.
type FeatureRow struct {
	SeriesID string     `json:"series_id" yaml:"series_id"`
	Label    *int       `json:"label,omitempty" yaml:"label,omitempty"`
	Features FeatureSet `json:"features" yaml:"features"`
}

// FeatureColumns returns the union of feature names across rows in first
// seen order, so rows with different scale sets share one header.
func FeatureColumns(rows []FeatureRow) []string {
	seen := map[string]struct{}{}
	ordered := []string{}
	for _, row := range rows {
		for _, name := range row.Features.Names() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			ordered = append(ordered, name)
		}
	}
	return ordered
}
