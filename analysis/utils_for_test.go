package analysis

import (
	"math/rand"
	"time"

	"github.com/crunchsb/levy/model"
)

const defaultSeed = 12345678

// gaussianReturns draws n i.i.d. normal returns with the given standard
// deviation.
func gaussianReturns(seed int64, n int, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// regimeReturns concatenates two gaussian regimes with different
// volatility.
func regimeReturns(seed int64, n int, before, after float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		sigma := before
		if i >= n/2 {
			sigma = after
		}
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// alternatingReturns is +a, -a, +a, ... whose three-point local variance
// is constant at 4a²/3.
func alternatingReturns(n int, a float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = a
		} else {
			out[i] = -a
		}
	}
	return out
}

// patternReturns repeats a short synthetic pattern up to length n.
func patternReturns(n int) []float64 {
	pattern := []float64{0.01, -0.02, 0.015, -0.005, 0.02, -0.01}
	out := make([]float64, n)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

func dailyDates(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// durationResult wraps a bare duration sequence in a section result so
// detectors and factories can run on it.
func durationResult(durations []int, tau float64) *model.SectionResult {
	r := &model.SectionResult{
		Durations:    durations,
		STau:         make([]float64, len(durations)),
		StartIndices: make([]int, len(durations)),
		EndIndices:   make([]int, len(durations)),
		Tau:          tau,
		Q:            DefaultQ,
	}
	pos := DefaultQ
	for i, d := range durations {
		r.StartIndices[i] = pos
		r.EndIndices[i] = pos + d - 1
		pos += d
	}
	return r
}

func plantedDurations(before, after, n int) []int {
	out := make([]int, 2*n)
	for i := range out {
		if i < n {
			out[i] = before
		} else {
			out[i] = after
		}
	}
	return out
}
