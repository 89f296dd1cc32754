package zonefit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calledstrike/szas/pkg/errors"
)

func TestCholeskySolveSPD(t *testing.T) {
	// A = [[4,2],[2,3]], b = [2,1] → x = [0.5, 0]
	a := newMatrix(2)
	a.set(0, 0, 4)
	a.set(0, 1, 2)
	a.set(1, 0, 2)
	a.set(1, 1, 3)

	l, err := a.cholesky()
	require.NoError(t, err)

	x := solveCholesky(l, []float64{2, 1})
	assert.InDelta(t, 0.5, x[0], 1e-12)
	assert.InDelta(t, 0.0, x[1], 1e-12)
}

func TestCholeskyRejectsIndefinite(t *testing.T) {
	a := newMatrix(2)
	a.set(0, 0, 1)
	a.set(0, 1, 2)
	a.set(1, 0, 2)
	a.set(1, 1, 1)

	_, err := a.cholesky()
	require.Error(t, err)
	assert.True(t, errors.IsDegenerateFit(err))
}

func TestInvertSPD(t *testing.T) {
	a := newMatrix(2)
	a.set(0, 0, 4)
	a.set(0, 1, 2)
	a.set(1, 0, 2)
	a.set(1, 1, 3)

	inv, err := a.invertSPD()
	require.NoError(t, err)

	// A · A⁻¹ = I
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			sum := 0.0
			for k := 0; k < 2; k++ {
				sum += a.at(i, k) * inv.at(k, j)
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, sum, 1e-12)
		}
	}
}

func TestAllFinite(t *testing.T) {
	assert.True(t, allFinite([]float64{0, -1.5, 4.5}))
	assert.False(t, allFinite([]float64{0, math.NaN()}))
	assert.False(t, allFinite([]float64{math.Inf(1)}))
}
