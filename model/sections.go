package model

import (
	"math"

	"github.com/pkg/errors"
)

// SectionResult holds the Lévy sections computed for one return series at
// one (tau, q) configuration. A result is never modified after it is
// produced; analyzing with a different tau yields a new result.
type SectionResult struct {
	STau         []float64 `json:"s_tau" yaml:"s_tau"`
	Durations    []int     `json:"durations" yaml:"durations"`
	StartIndices []int     `json:"start_indices" yaml:"start_indices"`
	EndIndices   []int     `json:"end_indices" yaml:"end_indices"`
	Tau          float64   `json:"tau" yaml:"tau"`
	Q            int       `json:"q" yaml:"q"`
}

// NumSections returns the number of sections, m.
func (r *SectionResult) NumSections() int { return len(r.Durations) }

// TotalDuration is the number of original observations folded into
// sections.
func (r *SectionResult) TotalDuration() int {
	total := 0
	for _, d := range r.Durations {
		total += d
	}
	return total
}

// DurationValues returns the durations as floats for the statistics code.
func (r *SectionResult) DurationValues() []float64 {
	out := make([]float64, len(r.Durations))
	for i, d := range r.Durations {
		out[i] = float64(d)
	}
	return out
}

// NormalizedSums returns S_tau / sqrt(tau).
func (r *SectionResult) NormalizedSums() []float64 {
	scale := math.Sqrt(r.Tau)
	out := make([]float64, len(r.STau))
	for i, s := range r.STau {
		out[i] = s / scale
	}
	return out
}

// Validate checks the structural invariants of a result: aligned slices,
// positive durations, and ordered non-overlapping sections.
func (r *SectionResult) Validate() error {
	m := len(r.Durations)
	if len(r.STau) != m || len(r.StartIndices) != m || len(r.EndIndices) != m {
		return errors.Errorf("section slices are misaligned [sums=%d, durations=%d, starts=%d, ends=%d]",
			len(r.STau), m, len(r.StartIndices), len(r.EndIndices))
	}

	for i := 0; i < m; i++ {
		if r.Durations[i] < 1 {
			return errors.Errorf("section %d has duration %d", i, r.Durations[i])
		}
		if r.StartIndices[i] > r.EndIndices[i] {
			return errors.Errorf("section %d starts after it ends", i)
		}
		if r.EndIndices[i]-r.StartIndices[i]+1 != r.Durations[i] {
			return errors.Errorf("section %d spans %d steps but has duration %d",
				i, r.EndIndices[i]-r.StartIndices[i]+1, r.Durations[i])
		}
		if i > 0 && r.EndIndices[i-1] >= r.StartIndices[i] {
			return errors.Errorf("section %d overlaps section %d", i, i-1)
		}
	}

	return nil
}
