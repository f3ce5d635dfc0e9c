package analysis

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"
)

// float64 resolution; second moments at or below (resolution*mean)^2 are
// treated as zero so that round-off in a constant sample does not produce
// a huge skew or kurtosis.
const momentResolution = 1e-15

// centralMoments returns the mean and the biased second, third and
// fourth central moments.
func centralMoments(xs []float64) (mean, m2, m3, m4 float64) {
	mean = stat.Mean(xs, nil)
	m2 = stat.Moment(2, xs, nil)
	m3 = stat.Moment(3, xs, nil)
	m4 = stat.Moment(4, xs, nil)
	return
}

func isDegenerateMoment(mean, m2 float64) bool {
	return m2 <= math.Pow(momentResolution*mean, 2)
}

// skewness is the biased (population) Fisher-Pearson coefficient. The
// second return is false when the sample has no spread.
func skewness(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return math.NaN(), false
	}
	mean, m2, m3, _ := centralMoments(xs)
	if isDegenerateMoment(mean, m2) {
		return math.NaN(), false
	}
	return m3 / math.Pow(m2, 1.5), true
}

// excessKurtosis is the biased Fisher kurtosis, zero for a normal sample.
func excessKurtosis(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return math.NaN(), false
	}
	mean, m2, _, m4 := centralMoments(xs)
	if isDegenerateMoment(mean, m2) {
		return math.NaN(), false
	}
	return m4/(m2*m2) - 3, true
}

// sampleStdDev uses the n-1 denominator. A single observation has no
// spread and reports zero.
func sampleStdDev(xs []float64) float64 {
	switch len(xs) {
	case 0:
		return math.NaN()
	case 1:
		return 0
	}
	return stats.Sample{Xs: xs}.StdDev()
}

// populationVariance divides by n.
func populationVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Moment(2, xs, nil)
}

// quantile uses linear interpolation between the closest ranks, the
// default definition in numpy and R (Hyndman-Fan type 7). xs need not be
// sorted.
func quantile(xs []float64, p float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}

	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	h := float64(n-1) * p
	lo := math.Floor(h)
	idx := int(lo)
	if idx+1 >= n {
		return sorted[n-1]
	}
	return sorted[idx] + (h-lo)*(sorted[idx+1]-sorted[idx])
}

// lagOneAutocorrelation is the Pearson correlation between xs[:-1] and
// xs[1:]. The second return is false when either half is constant.
func lagOneAutocorrelation(xs []float64) (float64, bool) {
	if len(xs) < 3 {
		return math.NaN(), false
	}
	corr := stat.Correlation(xs[:len(xs)-1], xs[1:], nil)
	if math.IsNaN(corr) || math.IsInf(corr, 0) {
		return math.NaN(), false
	}
	return corr, true
}
