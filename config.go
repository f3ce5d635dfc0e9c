package levy

import (
	"io/ioutil"
	"runtime"

	"github.com/crunchsb/levy/analysis"
	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Configuration defines the analysis parameters shared by the command
// line tools, the batch runner and the service.
type Configuration struct {
	Tau               float64               `yaml:"tau"`
	Q                 int                   `yaml:"q"`
	TauValues         []float64             `yaml:"tau_values"`
	MinSections       int                   `yaml:"min_sections"`
	MinConsistentTaus int                   `yaml:"min_consistent_taus"`
	Scales            []analysis.Scale      `yaml:"scales"`
	Transform         model.ReturnTransform `yaml:"transform"`
	NumWorkers        int                   `yaml:"num_workers"`
	OutputBucket      string                `yaml:"output_bucket"`
	OutputPrefix      string                `yaml:"output_prefix"`
	OutputRegion      string                `yaml:"output_region"`
	OutputType        model.PailType        `yaml:"output_type"`
	OutputFormat      model.FileDataFormat  `yaml:"output_format"`
}

// Validate fills in defaults for unset fields and reports every invalid
// setting at once.
func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.Tau == 0 {
		c.Tau = analysis.DefaultTau
	}
	if c.Q == 0 {
		c.Q = analysis.DefaultQ
	}
	if len(c.TauValues) == 0 {
		c.TauValues = analysis.DefaultTauValues()
	}
	if c.MinSections == 0 {
		c.MinSections = analysis.DefaultMinSections
	}
	if c.MinConsistentTaus == 0 {
		c.MinConsistentTaus = analysis.DefaultMinConsistentTaus
	}
	if len(c.Scales) == 0 {
		c.Scales = analysis.DefaultScales()
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = runtime.NumCPU()
	}
	if c.Transform == "" {
		c.Transform = model.TransformNone
	}
	if c.OutputType == "" {
		c.OutputType = model.PailLocal
	}
	if c.OutputFormat == "" {
		c.OutputFormat = model.FileCSV
	}

	catcher.NewWhen(c.Tau < 0, "tau must be positive")
	catcher.NewWhen(c.Q < 1, "q must be at least 1")
	for _, tau := range c.TauValues {
		catcher.ErrorfWhen(tau <= 0, "sweep tau %v must be positive", tau)
	}
	catcher.NewWhen(c.MinSections < 0, "min sections cannot be negative")
	catcher.NewWhen(c.MinConsistentTaus < 0, "min consistent taus cannot be negative")
	catcher.NewWhen(c.NumWorkers < 1, "must specify a valid number of workers")

	names := map[string]struct{}{}
	for _, sc := range c.Scales {
		catcher.ErrorfWhen(sc.Name == "", "scale with tau %v has no name", sc.Tau)
		catcher.ErrorfWhen(sc.Tau <= 0, "scale '%s' must have a positive tau", sc.Name)
		if _, ok := names[sc.Name]; ok {
			catcher.Errorf("scale '%s' is defined more than once", sc.Name)
		}
		names[sc.Name] = struct{}{}
	}

	catcher.Add(c.Transform.Validate())
	catcher.Add(c.OutputType.Validate())
	catcher.Add(c.OutputFormat.Validate())

	return catcher.Resolve()
}

// AnalysisOptions returns the single-series options for this
// configuration.
func (c *Configuration) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Tau:         c.Tau,
		Q:           c.Q,
		MinSections: c.MinSections,
	}
}

// HasOutputBucket reports whether results should be uploaded.
func (c *Configuration) HasOutputBucket() bool { return c.OutputBucket != "" }

// LoadConfiguration reads a YAML configuration file and validates it.
func LoadConfiguration(path string) (*Configuration, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading configuration file '%s'", path)
	}

	conf := &Configuration{}
	if err = yaml.UnmarshalStrict(data, conf); err != nil {
		return nil, errors.Wrapf(err, "parsing configuration file '%s'", path)
	}

	if err = conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in '%s'", path)
	}

	return conf, nil
}
