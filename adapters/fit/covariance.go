package fit

import (
	"gonum.org/v1/gonum/mat"

	"psyphy/domain/psychometric"
)

// covariance estimates the parameter covariance at the optimum from a
// forward-difference Jacobian of the model predictions:
// cov = s^2 (J^T J)^-1 with s^2 = RSS/(n-k). Returns nil when the system
// is singular or there are no residual degrees of freedom; a missing
// covariance is a diagnostic gap, not a fit failure.
func covariance(family psychometric.Family, params psychometric.Params,
	xs []float64, rss float64, k int) [][]float64 {

	n := len(xs)
	if n <= k {
		return nil
	}

	const h = 1e-6
	jac := mat.NewDense(n, k, nil)
	base := make([]float64, n)
	for i, x := range xs {
		base[i] = family.Evaluate(params, x)
	}

	for j := 0; j < k; j++ {
		bumped := bump(params, j, h)
		for i, x := range xs {
			jac.Set(i, j, (family.Evaluate(bumped, x)-base[i])/h)
		}
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var inv mat.Dense
	if err := inv.Inverse(&jtj); err != nil {
		return nil
	}

	s2 := rss / float64(n-k)
	cov := make([][]float64, k)
	for i := 0; i < k; i++ {
		cov[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			cov[i][j] = s2 * inv.At(i, j)
		}
	}
	return cov
}

// bump perturbs one free parameter; ordering matches the optimizer
// vector (location, scale, then guess/lapse when free).
func bump(p psychometric.Params, j int, h float64) psychometric.Params {
	switch j {
	case 0:
		p.Location += h
	case 1:
		p.Scale += h
	case 2:
		p.Guess += h
	case 3:
		p.Lapse += h
	}
	return p
}
