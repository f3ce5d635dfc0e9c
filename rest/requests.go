package rest

import (
	"time"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/model"
)

// SeriesRequest is one series in a request body.
type SeriesRequest struct {
	ID      string      `json:"id" validate:"required"`
	Values  []float64   `json:"values" validate:"required,min=1"`
	Dates   []time.Time `json:"dates,omitempty"`
	Periods []int       `json:"periods,omitempty"`
}

func (r SeriesRequest) Series() model.Series {
	return model.Series{
		ID:      r.ID,
		Values:  r.Values,
		Dates:   r.Dates,
		Periods: r.Periods,
	}
}

// AnalysisParams override the service configuration for one request.
type AnalysisParams struct {
	Tau       float64               `json:"tau,omitempty" validate:"omitempty,gt=0"`
	Q         int                   `json:"q,omitempty" validate:"omitempty,min=1"`
	Transform model.ReturnTransform `json:"transform,omitempty" validate:"omitempty,oneof=none diff log"`
}

func (p AnalysisParams) apply(conf *levy.Configuration) {
	if p.Tau != 0 {
		conf.Tau = p.Tau
	}
	if p.Q != 0 {
		conf.Q = p.Q
	}
	if p.Transform != "" {
		conf.Transform = p.Transform
	}
}

type AnalyzeRequest struct {
	Series SeriesRequest `json:"series"`
	AnalysisParams
}

type AnalyzeResponse struct {
	Summary   model.SeriesSummary  `json:"summary"`
	Sections  *model.SectionResult `json:"sections"`
	Features  model.FeatureSet     `json:"features"`
	Breaks    *model.BreakReport   `json:"breaks"`
	BreakRows []model.BreakRow     `json:"break_rows"`
}

type SweepRequest struct {
	Series            SeriesRequest `json:"series"`
	Taus              []float64     `json:"taus,omitempty" validate:"omitempty,dive,gt=0"`
	MinConsistentTaus int           `json:"min_consistent_taus,omitempty" validate:"omitempty,min=1"`
	AnalysisParams
}

type SweepResponse struct {
	Breaks     []model.BreakRow        `json:"breaks"`
	Consistent []model.ConsistentBreak `json:"consistent_breaks"`
}

type FeaturesRequest struct {
	Series []SeriesRequest `json:"series" validate:"required,min=1,dive"`
	Labels map[string]int  `json:"labels,omitempty" validate:"omitempty,dive,oneof=0 1"`
}

type FeaturesResponse struct {
	RunID     string                `json:"run_id"`
	Summaries []model.SeriesSummary `json:"summary"`
	Features  []model.FeatureRow    `json:"features"`
}
