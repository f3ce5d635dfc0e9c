package analysis

import (
	"math"
	"sort"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	shapiroMinSamples = 3
	shapiroMaxSamples = 5000

	// values closer than this are treated as a zero range
	shapiroSmall = 1e-19
)

// Polynomial coefficients of Royston's (1995) approximation.
var (
	swG  = []float64{-2.273, 0.459}
	swC1 = []float64{0.0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0.0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
)

// ShapiroWilkResult holds the W statistic and its p-value.
type ShapiroWilkResult struct {
	W      float64
	PValue float64
}

// ShapiroWilk tests the null hypothesis that xs was drawn from a normal
// distribution, using Royston's approximation for the coefficients and
// the null distribution of W. A sample with zero range yields W = 1 and
// p = 1.
func ShapiroWilk(xs []float64) (ShapiroWilkResult, error) {
	n := len(xs)
	if n < shapiroMinSamples {
		return ShapiroWilkResult{W: math.NaN(), PValue: math.NaN()},
			errors.Errorf("shapiro-wilk needs at least %d samples, got %d", shapiroMinSamples, n)
	}

	grip.WarningWhen(n > shapiroMaxSamples, message.Fields{
		"message": "shapiro-wilk p-value may be inaccurate above the supported sample size",
		"n":       n,
		"max":     shapiroMaxSamples,
	})

	x := make([]float64, n)
	copy(x, xs)
	sort.Float64s(x)

	rng := x[n-1] - x[0]
	if rng < shapiroSmall {
		return ShapiroWilkResult{W: 1, PValue: 1}, nil
	}

	coef := shapiroCoefficients(n)

	// W is the squared correlation between the ordered sample and the
	// antisymmetric coefficient vector.
	var sa, sx float64
	full := make([]float64, n)
	for i := 0; i < n; i++ {
		j := n - 1 - i
		switch {
		case i < j:
			full[i] = -coef[i]
		case i > j:
			full[i] = coef[j]
		}
		sa += full[i]
		sx += x[i] / rng
	}
	sa /= float64(n)
	sx /= float64(n)

	var ssa, ssx, sax float64
	for i := 0; i < n; i++ {
		asa := full[i] - sa
		xsx := x[i]/rng - sx
		ssa += asa * asa
		ssx += xsx * xsx
		sax += asa * xsx
	}

	ssassx := math.Sqrt(ssa * ssx)
	w1 := (ssassx - sax) * (ssassx + sax) / (ssa * ssx)
	if w1 < 0 {
		w1 = 0
	}
	w := 1 - w1

	return ShapiroWilkResult{W: w, PValue: shapiroPValue(w, w1, n)}, nil
}

// shapiroCoefficients returns the first n/2 coefficients a_1..a_{n/2};
// the remaining half mirrors them with opposite sign.
func shapiroCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	an25 := an + 0.25
	var summ2 float64
	m := make([]float64, half)
	for i := 0; i < half; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / an25)
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)
	a1 := polyval(swC1, rsn) - m[0]/ssumm2

	var first int
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + polyval(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		first = 1
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1

	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func shapiroPValue(w, w1 float64, n int) float64 {
	if n == 3 {
		const (
			pi6  = 6 / math.Pi
			stqr = math.Pi / 3
		)
		p := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		return math.Max(0, math.Min(1, p))
	}

	an := float64(n)
	y := math.Log(w1)
	var mu, sigma float64
	if n <= 11 {
		gamma := polyval(swG, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		mu = polyval(swC3, an)
		sigma = math.Exp(polyval(swC4, an))
	} else {
		lnN := math.Log(an)
		mu = polyval(swC5, lnN)
		sigma = math.Exp(polyval(swC6, lnN))
	}

	return distuv.Normal{Mu: mu, Sigma: sigma}.Survival(y)
}

// polyval evaluates c[0] + c[1]x + c[2]x^2 + ...
func polyval(c []float64, x float64) float64 {
	out := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		out = out*x + c[i]
	}
	return out
}
