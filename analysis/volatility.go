package analysis

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// LocalVolatilities estimates the local variance at every index from the
// centered window returns[i-q : i+q+1], using the unbiased sample
// variance. The first q and last q indices have no complete window and
// take the nearest computed value.
func LocalVolatilities(returns []float64, q int) ([]float64, error) {
	if q < 1 {
		return nil, errors.WithStack(ErrInvalidWindow)
	}

	n := len(returns)
	if n <= 2*q {
		return nil, errors.Wrapf(ErrSeriesTooShort, "%d returns with q=%d, need at least %d", n, q, 2*q+1)
	}

	m2 := make([]float64, n)
	for i := q; i < n-q; i++ {
		m2[i] = stat.Variance(returns[i-q:i+q+1], nil)
	}

	for i := 0; i < q; i++ {
		m2[i] = m2[q]
	}
	for i := n - q; i < n; i++ {
		m2[i] = m2[n-q-1]
	}

	return m2, nil
}
