package analysis

import (
	"math"

	"github.com/crunchsb/levy/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	DefaultTau = 0.01
	DefaultQ   = 5
)

// Analyzer builds Lévy sections for a fixed (tau, q) configuration. It
// holds no results: every call returns a new SectionResult, so one
// analyzer may be shared between goroutines.
type Analyzer struct {
	tau float64
	q   int
}

// NewAnalyzer validates the configuration and returns an analyzer.
func NewAnalyzer(tau float64, q int) (*Analyzer, error) {
	if tau <= 0 || math.IsNaN(tau) || math.IsInf(tau, 0) {
		return nil, errors.Wrapf(ErrInvalidTau, "tau=%v", tau)
	}
	if q < 1 {
		return nil, errors.Wrapf(ErrInvalidWindow, "q=%d", q)
	}

	return &Analyzer{tau: tau, q: q}, nil
}

func (a *Analyzer) Tau() float64 { return a.tau }
func (a *Analyzer) Q() int       { return a.q }

// LocalVolatilities estimates local variance with the analyzer's window.
func (a *Analyzer) LocalVolatilities(returns []float64) ([]float64, error) {
	return LocalVolatilities(returns, a.q)
}

// ComputeSections resamples returns on the variance clock. Sections are
// built greedily over the series with q observations trimmed from each
// end: a section keeps absorbing points while its accumulated local
// variance stays at or below tau. A point whose local variance alone
// exceeds tau is skipped. The last section is emitted even when the
// series runs out before it reaches tau.
func (a *Analyzer) ComputeSections(returns []float64) (*model.SectionResult, error) {
	for idx, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, errors.Wrapf(ErrNonFinite, "position %d", idx)
		}
	}

	m2, err := a.LocalVolatilities(returns)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	grip.WarningWhen(len(returns) <= 4*a.q, message.Fields{
		"message": "series is short relative to the variance window",
		"n":       len(returns),
		"q":       a.q,
	})

	m2Adj := m2[a.q : len(m2)-a.q]
	returnsAdj := returns[a.q : len(returns)-a.q]
	n := len(returnsAdj)

	result := &model.SectionResult{
		STau:         []float64{},
		Durations:    []int{},
		StartIndices: []int{},
		EndIndices:   []int{},
		Tau:          a.tau,
		Q:            a.q,
	}

	skipped := 0
	i := 0
	for i < n {
		acc := 0.0
		j := i
		for j < n && acc+m2Adj[j] <= a.tau {
			acc += m2Adj[j]
			j++
		}

		if j == i {
			skipped++
			i++
			continue
		}

		sum := 0.0
		for _, r := range returnsAdj[i:j] {
			sum += r
		}

		result.STau = append(result.STau, sum)
		result.Durations = append(result.Durations, j-i)
		result.StartIndices = append(result.StartIndices, i+a.q)
		result.EndIndices = append(result.EndIndices, j-1+a.q)
		i = j
	}

	grip.Debug(message.Fields{
		"message":  "computed levy sections",
		"tau":      a.tau,
		"q":        a.q,
		"n":        len(returns),
		"sections": result.NumSections(),
		"skipped":  skipped,
	})

	return result, nil
}
