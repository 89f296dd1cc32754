package zonefit

import (
	"math"

	"github.com/calledstrike/szas/pkg/errors"
)

// matrix is a small dense square matrix stored row-major. The fitting
// routines only ever build p×p normal-equation systems with p ≤ 6, so a flat
// slice with explicit indexing beats any heavier representation.
type matrix struct {
	n    int
	data []float64
}

func newMatrix(n int) *matrix {
	return &matrix{n: n, data: make([]float64, n*n)}
}

func (m *matrix) at(i, j int) float64     { return m.data[i*m.n+j] }
func (m *matrix) set(i, j int, v float64) { m.data[i*m.n+j] = v }
func (m *matrix) add(i, j int, v float64) { m.data[i*m.n+j] += v }

// cholesky factors a symmetric positive-definite matrix into L·Lᵀ, returning
// the lower triangle. The ridge term added by the fitter guarantees positive
// definiteness for any design matrix, so a failure here indicates non-finite
// inputs rather than rank deficiency.
func (m *matrix) cholesky() (*matrix, error) {
	l := newMatrix(m.n)
	for i := 0; i < m.n; i++ {
		for j := 0; j <= i; j++ {
			sum := m.at(i, j)
			for k := 0; k < j; k++ {
				sum -= l.at(i, k) * l.at(j, k)
			}
			if i == j {
				if sum <= 0 || math.IsNaN(sum) {
					return nil, errors.DegenerateFit("normal equations",
						"matrix is not positive definite")
				}
				l.set(i, i, math.Sqrt(sum))
			} else {
				l.set(i, j, sum/l.at(j, j))
			}
		}
	}
	return l, nil
}

// solveCholesky solves L·Lᵀ·x = b by forward then backward substitution.
func solveCholesky(l *matrix, b []float64) []float64 {
	n := l.n
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l.at(i, k) * y[k]
		}
		y[i] = sum / l.at(i, i)
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l.at(k, i) * x[k]
		}
		x[i] = sum / l.at(i, i)
	}
	return x
}

// invertSPD inverts a symmetric positive-definite matrix by solving for each
// identity column through its Cholesky factor. Used only to read variance
// estimates off the diagonal, so the O(n³·n) cost on a 6×6 system is
// irrelevant.
func (m *matrix) invertSPD() (*matrix, error) {
	l, err := m.cholesky()
	if err != nil {
		return nil, err
	}
	inv := newMatrix(m.n)
	e := make([]float64, m.n)
	for j := 0; j < m.n; j++ {
		for i := range e {
			e[i] = 0
		}
		e[j] = 1
		col := solveCholesky(l, e)
		for i := 0; i < m.n; i++ {
			inv.set(i, j, col[i])
		}
	}
	return inv, nil
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
