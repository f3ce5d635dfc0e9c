package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/analysis"
	"github.com/crunchsb/levy/model"
	"github.com/crunchsb/levy/units"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

////////////////////////////////////////////////////////////////////////
//
// GET /status

type StatusResponse struct {
	Revision     string `json:"revision"`
	QueueRunning bool   `json:"queue_running"`
	Pending      int    `json:"pending_jobs"`
	Running      int    `json:"running_jobs"`
	Completed    int    `json:"completed_jobs"`
}

func (s *Service) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := &StatusResponse{Revision: levy.BuildRevision}

	if s.queue != nil {
		stats := s.queue.Stats(r.Context())
		resp.QueueRunning = s.queue.Info().Started
		resp.Pending = stats.Pending
		resp.Running = stats.Running
		resp.Completed = stats.Completed
	}

	gimlet.WriteJSON(w, resp)
}

// badInput marks errors caused by the request content rather than the
// service.
func badInput(err error) error {
	return gimlet.ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    err.Error(),
	}
}

// analysisErrorResponder reports data problems as bad requests and
// anything else as an internal error.
func analysisErrorResponder(err error, route string) gimlet.Responder {
	switch errors.Cause(err) {
	case analysis.ErrSeriesTooShort, analysis.ErrNonFinite, analysis.ErrInvalidTau, analysis.ErrInvalidWindow:
		return gimlet.MakeJSONErrorResponder(badInput(err))
	}

	grip.Error(message.WrapError(err, message.Fields{
		"message": "analysis request failed",
		"route":   route,
	}))
	return gimlet.MakeJSONInternalErrorResponder(err)
}

// prepareSeries validates the series and applies the return transform.
func prepareSeries(req SeriesRequest, conf *levy.Configuration) (*model.Series, []float64, []time.Time, error) {
	series := req.Series()
	if err := series.Validate(); err != nil {
		return nil, nil, nil, badInput(err)
	}

	returns, dates, err := series.Transform(conf.Transform)
	if err != nil {
		return nil, nil, nil, badInput(err)
	}

	return &series, returns, dates, nil
}

////////////////////////////////////////////////////////////////////////
//
// POST /analyze

type analyzeHandler struct {
	env     levy.Environment
	metrics *serviceMetrics
	req     AnalyzeRequest
}

func makeAnalyzeHandler(env levy.Environment, metrics *serviceMetrics) gimlet.RouteHandler {
	return &analyzeHandler{env: env, metrics: metrics}
}

func (h *analyzeHandler) Factory() gimlet.RouteHandler {
	return &analyzeHandler{env: h.env, metrics: h.metrics}
}

func (h *analyzeHandler) Parse(_ context.Context, r *http.Request) error {
	return parseRequest(r, &h.req)
}

func (h *analyzeHandler) Run(ctx context.Context) gimlet.Responder {
	start := time.Now()
	resp := h.run(ctx)
	h.metrics.observe("/analyze", start, resp)
	return resp
}

func (h *analyzeHandler) run(ctx context.Context) gimlet.Responder {
	conf, err := h.env.GetConf()
	if err != nil {
		return gimlet.MakeJSONInternalErrorResponder(errors.Wrap(err, "problem getting configuration"))
	}
	h.req.AnalysisParams.apply(conf)

	series, returns, dates, err := prepareSeries(h.req.Series, conf)
	if err != nil {
		return gimlet.MakeJSONErrorResponder(err)
	}

	a, err := analysis.Analyze(returns, conf.AnalysisOptions())
	if err != nil {
		return analysisErrorResponder(errors.Wrapf(err, "problem analyzing series '%s'", series.ID), "/analyze")
	}

	h.metrics.sections.Observe(float64(a.Sections.NumSections()))
	for _, b := range a.Breaks.Breaks {
		h.metrics.breaks.WithLabelValues(string(b.Interpretation())).Inc()
	}

	rows := a.BreakRows(dates)
	for i := range rows {
		rows[i].SeriesID = series.ID
	}

	grip.Info(message.Fields{
		"message":  "analyzed series",
		"request":  gimlet.GetRequestID(ctx),
		"series":   series.ID,
		"tau":      conf.Tau,
		"sections": a.Sections.NumSections(),
		"breaks":   len(a.Breaks.Breaks),
	})

	summary := a.Summary(series.ID, series.Len())
	a.LabelBoundary(&summary, series.ReturnBoundaryIndex(len(returns)))

	return gimlet.NewJSONResponse(&AnalyzeResponse{
		Summary:   summary,
		Sections:  a.Sections,
		Features:  a.Features,
		Breaks:    a.Breaks,
		BreakRows: rows,
	})
}

////////////////////////////////////////////////////////////////////////
//
// POST /sweep

type sweepHandler struct {
	env     levy.Environment
	metrics *serviceMetrics
	req     SweepRequest
}

func makeSweepHandler(env levy.Environment, metrics *serviceMetrics) gimlet.RouteHandler {
	return &sweepHandler{env: env, metrics: metrics}
}

func (h *sweepHandler) Factory() gimlet.RouteHandler {
	return &sweepHandler{env: h.env, metrics: h.metrics}
}

func (h *sweepHandler) Parse(_ context.Context, r *http.Request) error {
	return parseRequest(r, &h.req)
}

func (h *sweepHandler) Run(ctx context.Context) gimlet.Responder {
	start := time.Now()
	resp := h.run(ctx)
	h.metrics.observe("/sweep", start, resp)
	return resp
}

func (h *sweepHandler) run(ctx context.Context) gimlet.Responder {
	conf, err := h.env.GetConf()
	if err != nil {
		return gimlet.MakeJSONInternalErrorResponder(errors.Wrap(err, "problem getting configuration"))
	}
	h.req.AnalysisParams.apply(conf)
	if len(h.req.Taus) > 0 {
		conf.TauValues = h.req.Taus
	}
	if h.req.MinConsistentTaus > 0 {
		conf.MinConsistentTaus = h.req.MinConsistentTaus
	}

	series, returns, dates, err := prepareSeries(h.req.Series, conf)
	if err != nil {
		return gimlet.MakeJSONErrorResponder(err)
	}

	rows, err := analysis.Sweep(returns, dates, conf.TauValues, conf.Q, analysis.NewWelchDetector(conf.MinSections))
	if err != nil {
		return analysisErrorResponder(errors.Wrapf(err, "problem sweeping series '%s'", series.ID), "/sweep")
	}
	for i := range rows {
		rows[i].SeriesID = series.ID
	}

	grip.Info(message.Fields{
		"message": "swept series",
		"request": gimlet.GetRequestID(ctx),
		"series":  series.ID,
		"taus":    conf.TauValues,
		"breaks":  len(rows),
	})

	return gimlet.NewJSONResponse(&SweepResponse{
		Breaks:     rows,
		Consistent: analysis.ConsistentBreaks(rows, conf.MinConsistentTaus),
	})
}

////////////////////////////////////////////////////////////////////////
//
// POST /features

type featuresHandler struct {
	env     levy.Environment
	metrics *serviceMetrics
	req     FeaturesRequest
}

func makeFeaturesHandler(env levy.Environment, metrics *serviceMetrics) gimlet.RouteHandler {
	return &featuresHandler{env: env, metrics: metrics}
}

func (h *featuresHandler) Factory() gimlet.RouteHandler {
	return &featuresHandler{env: h.env, metrics: h.metrics}
}

func (h *featuresHandler) Parse(_ context.Context, r *http.Request) error {
	if err := parseRequest(r, &h.req); err != nil {
		return err
	}

	seen := map[string]struct{}{}
	for _, s := range h.req.Series {
		if _, ok := seen[s.ID]; ok {
			return badInput(errors.Errorf("series '%s' appears more than once", s.ID))
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

func (h *featuresHandler) Run(ctx context.Context) gimlet.Responder {
	start := time.Now()
	resp := h.run(ctx)
	h.metrics.observe("/features", start, resp)
	return resp
}

func (h *featuresHandler) run(ctx context.Context) gimlet.Responder {
	series := make([]model.Series, len(h.req.Series))
	for i, s := range h.req.Series {
		series[i] = s.Series()
	}

	out, err := units.RunBatch(ctx, h.env, series, h.req.Labels)
	if err != nil {
		err = errors.Wrap(err, "problem computing features")
		grip.Error(message.WrapError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"route":   "/features",
			"series":  len(series),
		}))
		return gimlet.MakeJSONInternalErrorResponder(err)
	}

	for _, s := range out.Report.Summaries {
		if s.Status == model.SummaryOK {
			h.metrics.sections.Observe(float64(s.Sections))
		}
	}

	return gimlet.NewJSONResponse(&FeaturesResponse{
		RunID:     out.RunID,
		Summaries: out.Report.Summaries,
		Features:  out.Report.Features,
	})
}
