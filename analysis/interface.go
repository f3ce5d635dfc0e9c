package analysis

import "github.com/crunchsb/levy/model"

// BreakDetector types find structural breaks in the duration sequence of
// a section result.
type BreakDetector interface {
	DetectBreaks(*model.SectionResult) (*model.BreakReport, error)
	Info() model.AlgorithmInfo
}

// FeatureFactory types compute a named group of features from a section
// result.
type FeatureFactory interface {
	Type() string
	Names() []string
	Version() int
	Calc(*model.SectionResult) []model.FeatureValue
}
