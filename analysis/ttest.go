package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type tTestResult struct {
	T   float64
	DoF float64
	P   float64
}

// welchTTest is the two-sided two-sample t-test without the equal
// variance assumption. When both samples are constant the statistic is
// infinite (p = 0) for distinct means and undefined (p = NaN) otherwise.
func welchTTest(x1, x2 []float64) tTestResult {
	n1, n2 := float64(len(x1)), float64(len(x2))
	if n1 < 2 || n2 < 2 {
		return tTestResult{T: math.NaN(), DoF: math.NaN(), P: math.NaN()}
	}

	m1, v1 := stat.MeanVariance(x1, nil)
	m2, v2 := stat.MeanVariance(x2, nil)

	se1 := v1 / n1
	se2 := v2 / n2
	se := se1 + se2

	if se == 0 {
		if m1 == m2 {
			return tTestResult{T: math.NaN(), DoF: math.NaN(), P: math.NaN()}
		}
		return tTestResult{T: math.Copysign(math.Inf(1), m1-m2), DoF: n1 + n2 - 2, P: 0}
	}

	t := (m1 - m2) / math.Sqrt(se)
	dof := se * se / (se1*se1/(n1-1) + se2*se2/(n2-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	p := 2 * dist.Survival(math.Abs(t))
	if p > 1 {
		p = 1
	}

	return tTestResult{T: t, DoF: dof, P: p}
}
