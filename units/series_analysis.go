package units

import (
	"context"
	"fmt"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/analysis"
	"github.com/crunchsb/levy/model"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	seriesAnalysisJobName = "series-analysis"
)

// SeriesResult is everything computed for one series in a batch.
type SeriesResult struct {
	Summary    model.SeriesSummary     `bson:"summary" json:"summary" yaml:"summary"`
	Features   *model.FeatureRow       `bson:"features,omitempty" json:"features,omitempty" yaml:"features,omitempty"`
	Breaks     []model.BreakRow        `bson:"breaks,omitempty" json:"breaks,omitempty" yaml:"breaks,omitempty"`
	Consistent []model.ConsistentBreak `bson:"consistent,omitempty" json:"consistent,omitempty" yaml:"consistent,omitempty"`
}

type seriesAnalysisJob struct {
	Series model.Series        `bson:"series" json:"series" yaml:"series"`
	Label  *int                `bson:"label,omitempty" json:"label,omitempty" yaml:"label,omitempty"`
	Conf   *levy.Configuration `bson:"conf,omitempty" json:"conf,omitempty" yaml:"conf,omitempty"`
	Result *SeriesResult       `bson:"result,omitempty" json:"result,omitempty" yaml:"result,omitempty"`

	job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	env      levy.Environment
}

func init() {
	registry.AddJobType(seriesAnalysisJobName, func() amboy.Job { return makeSeriesAnalysisJob() })
}

func makeSeriesAnalysisJob() *seriesAnalysisJob {
	j := &seriesAnalysisJob{
		Base: job.Base{
			JobType: amboy.JobType{
				Name:    seriesAnalysisJobName,
				Version: 1,
			},
		},
	}

	j.SetDependency(dependency.NewAlways())
	return j
}

// NewSeriesAnalysisJob analyzes one series as part of the run runID.
// When conf is nil the job reads the configuration of the global
// environment when it runs.
func NewSeriesAnalysisJob(runID string, series model.Series, label *int, conf *levy.Configuration) (amboy.Job, error) {
	j := makeSeriesAnalysisJob()
	j.Series = series
	j.Label = label

	if runID == "" {
		return nil, errors.New("no run id given")
	}
	if series.ID == "" {
		return nil, errors.New("series has no id")
	}
	if conf != nil {
		validated := *conf
		if err := validated.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid configuration")
		}
		j.Conf = &validated
	}

	j.SetID(fmt.Sprintf("%s.%s.%s.%s", levy.QueueName, seriesAnalysisJobName, runID, series.ID))
	return j, nil
}

func (j *seriesAnalysisJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = levy.GetEnvironment()
	}

	if j.Conf == nil {
		conf, err := j.env.GetConf()
		if err != nil {
			j.fail(errors.Wrap(err, "problem getting configuration"))
			return
		}
		j.Conf = conf
	}

	result, err := analyzeSeries(ctx, &j.Series, j.Label, j.Conf)
	if err != nil {
		j.fail(err)
		return
	}
	j.Result = result

	grip.Debug(message.Fields{
		"message":  "analyzed series",
		"job":      j.ID(),
		"series":   j.Series.ID,
		"sections": result.Summary.Sections,
		"breaks":   len(result.Breaks),
	})
}

func (j *seriesAnalysisJob) fail(err error) {
	j.AddError(err)
	j.Result = &SeriesResult{Summary: model.FailedSummary(j.Series.ID, err)}

	grip.Warning(message.WrapError(err, message.Fields{
		"message": "series analysis failed",
		"job":     j.ID(),
		"series":  j.Series.ID,
	}))
}

// analyzeSeries computes the single tau analysis, the multi-scale
// features and the tau sweep for a series.
func analyzeSeries(ctx context.Context, series *model.Series, label *int, conf *levy.Configuration) (*SeriesResult, error) {
	if err := series.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	returns, dates, err := series.Transform(conf.Transform)
	if err != nil {
		return nil, errors.Wrapf(err, "preparing returns for series '%s'", series.ID)
	}

	a, err := analysis.Analyze(returns, conf.AnalysisOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "analyzing series '%s'", series.ID)
	}

	if err = ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	multi, err := analysis.MultiScaleFeatures(returns, conf.Scales, conf.Q)
	if err != nil {
		return nil, errors.Wrapf(err, "computing multi-scale features for series '%s'", series.ID)
	}

	rows, err := analysis.Sweep(returns, dates, conf.TauValues, conf.Q, analysis.NewWelchDetector(conf.MinSections))
	if err != nil {
		return nil, errors.Wrapf(err, "sweeping tau values for series '%s'", series.ID)
	}
	for i := range rows {
		rows[i].SeriesID = series.ID
	}

	summary := a.Summary(series.ID, series.Len())
	a.LabelBoundary(&summary, series.ReturnBoundaryIndex(len(returns)))

	features := model.FeatureSet{}
	features = append(features, a.Features...)
	features = append(features, multi...)

	return &SeriesResult{
		Summary: summary,
		Features: &model.FeatureRow{
			SeriesID: series.ID,
			Label:    label,
			Features: features,
		},
		Breaks:     rows,
		Consistent: analysis.ConsistentBreaks(rows, conf.MinConsistentTaus),
	}, nil
}
