package units

import (
	"context"
	"time"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/analysis"
	"github.com/crunchsb/levy/export"
	"github.com/crunchsb/levy/model"
	"github.com/google/uuid"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const batchWaitInterval = 100 * time.Millisecond

// BatchResult is the outcome of analyzing a set of series.
type BatchResult struct {
	RunID  string         `json:"run_id" yaml:"run_id"`
	Failed int            `json:"failed" yaml:"failed"`
	Report *export.Report `json:"report" yaml:"report"`
}

// RunBatch analyzes every series on the environment's queue, one job per
// series, and collects the results in input order. A series that fails
// is reported in the summary table and does not stop the batch. Labels,
// when given, are attached to the feature rows by series id.
func RunBatch(ctx context.Context, env levy.Environment, series []model.Series, labels map[string]int) (*BatchResult, error) {
	conf, err := env.GetConf()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	q, err := env.GetQueue()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !q.Info().Started {
		if err = q.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "problem starting queue")
		}
	}

	runID := uuid.New().String()
	jobs := make([]*seriesAnalysisJob, 0, len(series))
	seen := map[string]struct{}{}
	for _, s := range series {
		if _, ok := seen[s.ID]; ok {
			return nil, errors.Errorf("series '%s' appears more than once", s.ID)
		}
		seen[s.ID] = struct{}{}

		var label *int
		if l, ok := labels[s.ID]; ok {
			l := l
			label = &l
		}

		j, err := NewSeriesAnalysisJob(runID, s, label, conf)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		jobs = append(jobs, j.(*seriesAnalysisJob))
	}

	grip.Info(message.Fields{
		"message": "starting batch",
		"run":     runID,
		"series":  len(jobs),
		"workers": conf.NumWorkers,
	})

	// the local queue holds a bounded number of pending jobs, so submit
	// in chunks of that size
	for start := 0; start < len(jobs); start += levy.DefaultQueueSize {
		end := start + levy.DefaultQueueSize
		if end > len(jobs) {
			end = len(jobs)
		}

		for _, j := range jobs[start:end] {
			if err = q.Put(ctx, j); err != nil {
				return nil, errors.Wrapf(err, "problem queuing analysis of series '%s'", j.Series.ID)
			}
		}

		if !amboy.WaitInterval(ctx, q, batchWaitInterval) {
			return nil, errors.Wrapf(ctx.Err(), "batch %s interrupted", runID)
		}
	}

	out := &BatchResult{RunID: runID, Report: collectReport(jobs)}
	for _, s := range out.Report.Summaries {
		if s.Status == model.SummaryError {
			out.Failed++
		}
	}

	grip.Info(message.Fields{
		"message": "batch complete",
		"run":     runID,
		"series":  len(jobs),
		"failed":  out.Failed,
		"breaks":  len(out.Report.Breaks),
	})

	return out, nil
}

func collectReport(jobs []*seriesAnalysisJob) *export.Report {
	report := &export.Report{
		Summaries:  []model.SeriesSummary{},
		Features:   []model.FeatureRow{},
		Breaks:     []model.BreakRow{},
		Consistent: []model.ConsistentBreak{},
	}

	for _, j := range jobs {
		result := j.Result
		if result == nil {
			err := j.Error()
			if err == nil {
				err = errors.New("job did not complete")
			}
			result = &SeriesResult{Summary: model.FailedSummary(j.Series.ID, err)}
		}

		report.Summaries = append(report.Summaries, result.Summary)
		if result.Features != nil {
			report.Features = append(report.Features, *result.Features)
		}
		report.Breaks = append(report.Breaks, result.Breaks...)
		report.Consistent = append(report.Consistent, result.Consistent...)
	}

	report.Monthly = analysis.BreaksByMonth(report.Breaks)
	return report
}
