package model

import (
	"time"
)

const (
	// VolatilityIncreaseRatio and VolatilityDecreaseRatio bound the change
	// ratios that callers read as a regime shift.
	VolatilityIncreaseRatio = 0.7
	VolatilityDecreaseRatio = 1.3
)

// AlgorithmInfo describes the detector that produced a break report.
type AlgorithmInfo struct {
	Name    string            `json:"name" yaml:"name"`
	Version int               `json:"version" yaml:"version"`
	Options []AlgorithmOption `json:"options" yaml:"options"`
}

type AlgorithmOption struct {
	Name  string      `json:"name" yaml:"name"`
	Value interface{} `json:"value" yaml:"value"`
}

// Break is one significant shift in mean section duration.
type Break struct {
	Index       int     `json:"index" yaml:"index"`
	PValue      float64 `json:"p_value" yaml:"p_value"`
	MeanBefore  float64 `json:"mean_before" yaml:"mean_before"`
	MeanAfter   float64 `json:"mean_after" yaml:"mean_after"`
	ChangeRatio float64 `json:"change_ratio" yaml:"change_ratio"`
}

// Regime is the caller-facing reading of a break's change ratio.
type Regime string

const (
	RegimeVolatilityIncrease Regime = "volatility-increase"
	RegimeVolatilityDecrease Regime = "volatility-decrease"
	RegimeStable             Regime = "stable"
)

// Interpretation classifies the break: shorter sections after the break
// mean variance accumulates faster.
func (b Break) Interpretation() Regime {
	switch {
	case b.ChangeRatio < VolatilityIncreaseRatio:
		return RegimeVolatilityIncrease
	case b.ChangeRatio > VolatilityDecreaseRatio:
		return RegimeVolatilityDecrease
	default:
		return RegimeStable
	}
}

// BreakReport is the output of break detection over one SectionResult.
type BreakReport struct {
	Breaks       []Break       `json:"breaks" yaml:"breaks"`
	CUSUM        []float64     `json:"cusum" yaml:"cusum"`
	MeanDuration float64       `json:"mean_duration" yaml:"mean_duration"`
	StdDuration  float64       `json:"std_duration" yaml:"std_duration"`
	Window       int           `json:"window" yaml:"window"`
	Algorithm    AlgorithmInfo `json:"algorithm" yaml:"algorithm"`
}

// BreakRow is one (tau, break) row of a multi-tau sweep.
type BreakRow struct {
	SeriesID          string     `json:"series_id,omitempty" yaml:"series_id,omitempty"`
	Tau               float64    `json:"tau" yaml:"tau"`
	BreakSectionIndex int        `json:"break_section_index" yaml:"break_section_index"`
	BreakIndex        int        `json:"break_index" yaml:"break_index"`
	BreakDate         *time.Time `json:"break_date" yaml:"break_date"`
	MeanBefore        float64    `json:"mean_duration_before" yaml:"mean_duration_before"`
	MeanAfter         float64    `json:"mean_duration_after" yaml:"mean_duration_after"`
	ChangeRatio       float64    `json:"change_ratio" yaml:"change_ratio"`
	PValue            float64    `json:"p_value" yaml:"p_value"`
}

// ParquetBreakRow is the flat parquet schema for BreakRow.
type ParquetBreakRow struct {
	SeriesID          string  `parquet:"name=series_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Tau               float64 `parquet:"name=tau, type=DOUBLE"`
	BreakSectionIndex int64   `parquet:"name=break_section_index, type=INT64"`
	BreakIndex        int64   `parquet:"name=break_index, type=INT64"`
	BreakDate         *int64  `parquet:"name=break_date, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
	MeanBefore        float64 `parquet:"name=mean_duration_before, type=DOUBLE"`
	MeanAfter         float64 `parquet:"name=mean_duration_after, type=DOUBLE"`
	ChangeRatio       float64 `parquet:"name=change_ratio, type=DOUBLE"`
	PValue            float64 `parquet:"name=p_value, type=DOUBLE"`
}

// ConvertToParquetBreakRow flattens the row for parquet output.
func (r BreakRow) ConvertToParquetBreakRow() ParquetBreakRow {
	out := ParquetBreakRow{
		SeriesID:          r.SeriesID,
		Tau:               r.Tau,
		BreakSectionIndex: int64(r.BreakSectionIndex),
		BreakIndex:        int64(r.BreakIndex),
		MeanBefore:        r.MeanBefore,
		MeanAfter:         r.MeanAfter,
		ChangeRatio:       r.ChangeRatio,
		PValue:            r.PValue,
	}
	if r.BreakDate != nil {
		ms := r.BreakDate.UnixMilli()
		out.BreakDate = &ms
	}
	return out
}

// BreakRowColumns lists the tabular column order shared by the writers.
func BreakRowColumns() []string {
	return []string{
		"series_id",
		"tau",
		"break_section_index",
		"break_index",
		"break_date",
		"mean_duration_before",
		"mean_duration_after",
		"change_ratio",
		"p_value",
	}
}

// ConsistentBreak is a calendar month in which several tau values agree on
// a break.
type ConsistentBreak struct {
	SeriesID        string    `json:"series_id,omitempty" yaml:"series_id,omitempty"`
	Month           string    `json:"month" yaml:"month"`
	Count           int       `json:"count" yaml:"count"`
	Taus            []float64 `json:"taus" yaml:"taus"`
	MeanChangeRatio float64   `json:"mean_change_ratio" yaml:"mean_change_ratio"`
	FirstDate       time.Time `json:"first_date" yaml:"first_date"`
}
