package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

func regimeRequest(id string, seed int64, n int) SeriesRequest {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	req := SeriesRequest{ID: id}
	for i := 0; i < n; i++ {
		sigma := 0.005
		if i >= n/2 {
			sigma = 0.02
		}
		req.Values = append(req.Values, rng.NormFloat64()*sigma)
		req.Dates = append(req.Dates, start.AddDate(0, 0, i))
	}
	return req
}

func jsonRequest(method, url string, body interface{}) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return http.NewRequest(method, url, bytes.NewReader(payload))
}

type RoutesSuite struct {
	env     levy.Environment
	metrics *serviceMetrics
	rh      map[string]gimlet.RouteHandler
	ctx     context.Context
	cancel  context.CancelFunc

	suite.Suite
}

func TestRoutesSuite(t *testing.T) {
	suite.Run(t, new(RoutesSuite))
}

func (s *RoutesSuite) SetupSuite() {
	var err error
	s.env, err = levy.NewEnvironment("rest-test", &levy.Configuration{
		Tau:        0.001,
		TauValues:  []float64{0.0005, 0.001},
		NumWorkers: 2,
	})
	s.Require().NoError(err)
}

func (s *RoutesSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.metrics = newServiceMetrics()
	s.rh = map[string]gimlet.RouteHandler{
		"analyze":  makeAnalyzeHandler(s.env, s.metrics),
		"sweep":    makeSweepHandler(s.env, s.metrics),
		"features": makeFeaturesHandler(s.env, s.metrics),
	}
}

func (s *RoutesSuite) TearDownTest() {
	s.cancel()
}

func (s *RoutesSuite) parse(name string, body interface{}) (gimlet.RouteHandler, error) {
	rh := s.rh[name].Factory()
	req, err := jsonRequest(http.MethodPost, "/"+name, body)
	s.Require().NoError(err)
	return rh, rh.Parse(s.ctx, req)
}

func (s *RoutesSuite) TestAnalyzeParse() {
	rh, err := s.parse("analyze", map[string]interface{}{
		"series":    regimeRequest("a", 1, 100),
		"tau":       0.002,
		"q":         3,
		"transform": "diff",
	})
	s.Require().NoError(err)

	h := rh.(*analyzeHandler)
	s.Equal("a", h.req.Series.ID)
	s.Len(h.req.Series.Values, 100)
	s.Equal(0.002, h.req.Tau)
	s.Equal(3, h.req.Q)
	s.Equal(model.TransformDiff, h.req.Transform)
}

func (s *RoutesSuite) TestAnalyzeParseInvalid() {
	for name, body := range map[string]interface{}{
		"NoID":         map[string]interface{}{"series": map[string]interface{}{"values": []float64{1, 2, 3}}},
		"NoValues":     map[string]interface{}{"series": map[string]interface{}{"id": "a"}},
		"NegativeTau":  map[string]interface{}{"series": regimeRequest("a", 1, 50), "tau": -1},
		"BadQ":         map[string]interface{}{"series": regimeRequest("a", 1, 50), "q": -2},
		"BadTransform": map[string]interface{}{"series": regimeRequest("a", 1, 50), "transform": "sqrt"},
	} {
		s.Run(name, func() {
			_, err := s.parse("analyze", body)
			s.Require().Error(err)
			resp, ok := err.(gimlet.ErrorResponse)
			s.Require().True(ok)
			s.Equal(http.StatusBadRequest, resp.StatusCode)
		})
	}

	rh := s.rh["analyze"].Factory()
	req, err := http.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("{not json"))
	s.Require().NoError(err)
	s.Error(rh.Parse(s.ctx, req))
}

func (s *RoutesSuite) TestAnalyzePeriodBoundary() {
	series := regimeRequest("a", 2, 1000)
	for i := range series.Values {
		series.Periods = append(series.Periods, i/600)
	}

	rh, err := s.parse("analyze", AnalyzeRequest{
		Series:         series,
		AnalysisParams: AnalysisParams{Transform: model.TransformDiff},
	})
	s.Require().NoError(err)

	resp := rh.Run(s.ctx)
	s.Require().Equal(http.StatusOK, resp.Status())
	out, ok := resp.Data().(*AnalyzeResponse)
	s.Require().True(ok)
	s.Require().NotNil(out.Summary.BoundaryIndex)
	s.Equal(599, *out.Summary.BoundaryIndex)
	s.Equal(len(out.Breaks.Breaks) > 0, out.Summary.BreakDistance != nil)
}

func (s *RoutesSuite) TestAnalyze() {
	rh, err := s.parse("analyze", AnalyzeRequest{Series: regimeRequest("a", 2, 1000)})
	s.Require().NoError(err)

	resp := rh.Run(s.ctx)
	s.Require().NotNil(resp)
	s.Require().Equal(http.StatusOK, resp.Status())

	out, ok := resp.Data().(*AnalyzeResponse)
	s.Require().True(ok)
	s.Equal("a", out.Summary.SeriesID)
	s.Equal(model.SummaryOK, out.Summary.Status)
	s.Equal(1000, out.Summary.Observations)
	s.Equal(0.001, out.Sections.Tau)
	s.NoError(out.Sections.Validate())
	s.Len(out.Features, 19)
	s.Len(out.BreakRows, len(out.Breaks.Breaks))
	for _, row := range out.BreakRows {
		s.Equal("a", row.SeriesID)
		s.NotNil(row.BreakDate)
	}

	s.Equal(1.0, testutil.ToFloat64(s.metrics.requests.WithLabelValues("/analyze", "200")))
}

func (s *RoutesSuite) TestAnalyzeOverrides() {
	rh, err := s.parse("analyze", AnalyzeRequest{
		Series:         regimeRequest("a", 3, 500),
		AnalysisParams: AnalysisParams{Tau: 0.002, Q: 3},
	})
	s.Require().NoError(err)

	resp := rh.Run(s.ctx)
	s.Require().Equal(http.StatusOK, resp.Status())
	out := resp.Data().(*AnalyzeResponse)
	s.Equal(0.002, out.Sections.Tau)
	s.Equal(3, out.Sections.Q)
}

func (s *RoutesSuite) TestAnalyzeBadData() {
	for name, req := range map[string]AnalyzeRequest{
		"TooShort": {Series: SeriesRequest{ID: "short", Values: []float64{0.1, 0.2}}},
		"MisalignedDates": {Series: SeriesRequest{
			ID:     "dates",
			Values: []float64{0.1, 0.2, 0.3},
			Dates:  []time.Time{time.Now()},
		}},
		"LogOfNegative": {
			Series:         regimeRequest("neg", 4, 100),
			AnalysisParams: AnalysisParams{Transform: model.TransformLog},
		},
	} {
		s.Run(name, func() {
			rh, err := s.parse("analyze", req)
			s.Require().NoError(err)
			resp := rh.Run(s.ctx)
			s.Equal(http.StatusBadRequest, resp.Status())
		})
	}

	s.Equal(3.0, testutil.ToFloat64(s.metrics.requests.WithLabelValues("/analyze", "400")))
}

func (s *RoutesSuite) TestSweep() {
	rh, err := s.parse("sweep", SweepRequest{
		Series:            regimeRequest("a", 5, 2000),
		Taus:              []float64{0.001, 0.002},
		MinConsistentTaus: 2,
	})
	s.Require().NoError(err)

	resp := rh.Run(s.ctx)
	s.Require().Equal(http.StatusOK, resp.Status())
	out := resp.Data().(*SweepResponse)
	for _, row := range out.Breaks {
		s.Equal("a", row.SeriesID)
		s.Contains([]float64{0.001, 0.002}, row.Tau)
	}
	for _, c := range out.Consistent {
		s.Equal(2, c.Count)
	}
}

func (s *RoutesSuite) TestSweepParseInvalid() {
	_, err := s.parse("sweep", map[string]interface{}{
		"series": regimeRequest("a", 1, 100),
		"taus":   []float64{0.001, 0},
	})
	s.Error(err)
}

func (s *RoutesSuite) TestFeatures() {
	rh, err := s.parse("features", FeaturesRequest{
		Series: []SeriesRequest{
			regimeRequest("a", 6, 600),
			{ID: "short", Values: []float64{0.1}},
		},
		Labels: map[string]int{"a": 1},
	})
	s.Require().NoError(err)

	resp := rh.Run(s.ctx)
	s.Require().Equal(http.StatusOK, resp.Status())
	out := resp.Data().(*FeaturesResponse)
	s.NotEmpty(out.RunID)
	s.Require().Len(out.Summaries, 2)
	s.Equal(model.SummaryOK, out.Summaries[0].Status)
	s.Equal(model.SummaryError, out.Summaries[1].Status)
	s.Require().Len(out.Features, 1)
	s.Require().NotNil(out.Features[0].Label)
	s.Equal(1, *out.Features[0].Label)
}

func (s *RoutesSuite) TestFeaturesParseInvalid() {
	for name, body := range map[string]interface{}{
		"NoSeries":   FeaturesRequest{},
		"Duplicates": FeaturesRequest{Series: []SeriesRequest{regimeRequest("a", 1, 50), regimeRequest("a", 2, 50)}},
		"BadLabel": FeaturesRequest{
			Series: []SeriesRequest{regimeRequest("a", 1, 50)},
			Labels: map[string]int{"a": 2},
		},
		"NestedInvalid": FeaturesRequest{Series: []SeriesRequest{{ID: "a"}}},
	} {
		s.Run(name, func() {
			_, err := s.parse("features", body)
			s.Error(err)
		})
	}
}

func (s *RoutesSuite) TestStatus() {
	q, err := s.env.GetQueue()
	s.Require().NoError(err)
	srv := &Service{Environment: s.env, queue: q}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rest/v1/status", nil)
	srv.statusHandler(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	out := &StatusResponse{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out))
	s.Equal(levy.BuildRevision, out.Revision)
}
