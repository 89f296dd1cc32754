package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calledstrike/szas/internal/domain/zone"
	"github.com/calledstrike/szas/pkg/errors"
)

// rampModel is a density-kind model increasing with height, used to exercise
// rasterization scaling.
type rampModel struct{}

func (rampModel) EvaluateAt(px, pz float64) float64 { return pz }
func (rampModel) Kind() zone.Kind                   { return zone.KindDensity }

func fixedSurface(t *testing.T, g *Grid, top, bot float64) *Surface {
	t.Helper()
	return g.Rasterize(zone.NewFixed(zone.NewBounds(top, bot)))
}

func TestNewGridSpacing(t *testing.T) {
	g, err := NewGrid(-1, 1, 2, 3, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, g.Xs)
	assert.Equal(t, []float64{2, 2.5, 3}, g.Zs)
}

func TestNewGridRejectsBadShape(t *testing.T) {
	_, err := NewGrid(-1, 1, 2, 3, 1, 3)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGridResolution, errors.GetCode(err))

	_, err = NewGrid(1, -1, 2, 3, 5, 3)
	require.Error(t, err)
}

func TestDefaultGridShape(t *testing.T) {
	g := DefaultGrid()
	assert.Equal(t, DefaultNX, g.NX())
	assert.Equal(t, DefaultNZ, g.NZ())
	assert.Equal(t, DefaultXMin, g.Xs[0])
	assert.Equal(t, DefaultXMax, g.Xs[g.NX()-1])
	assert.Equal(t, DefaultZMin, g.Zs[0])
	assert.Equal(t, DefaultZMax, g.Zs[g.NZ()-1])
}

func TestRasterizeFixedZone(t *testing.T) {
	g := DefaultGrid()
	s := fixedSurface(t, g, 3.5, 1.5)

	assert.Equal(t, zone.KindFixed, s.Kind)
	require.Len(t, s.Values, g.NZ())

	// Heart of the zone is in, far corner is out.
	assert.Equal(t, 1.0, evalAt(s, 0, 2.5))
	assert.Equal(t, 0.0, evalAt(s, 1.4, 4.4))
}

func TestRasterizeNormalizesDensityKind(t *testing.T) {
	g := DefaultGrid()
	s := g.Rasterize(rampModel{})

	maxVal := 0.0
	for zi := range s.Values {
		for xi := range s.Values[zi] {
			if s.Values[zi][xi] > maxVal {
				maxVal = s.Values[zi][xi]
			}
		}
	}
	assert.InDelta(t, 1.0, maxVal, 1e-12)
	// Top row of the ramp holds the maximum.
	assert.InDelta(t, 1.0, s.Values[g.NZ()-1][0], 1e-12)
}

func TestIoUIdenticalAndDisjoint(t *testing.T) {
	g := DefaultGrid()
	a := fixedSurface(t, g, 3.5, 1.5)

	got, err := IoU(a, a)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// Disjoint vertical bands.
	low := fixedSurface(t, g, 2.0, 1.2)
	high := fixedSurface(t, g, 4.2, 3.8)
	got, err = IoU(low, high)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestIoUEmptyUnionIsZero(t *testing.T) {
	g := DefaultGrid()
	// Bounds entirely below the grid window leave every cell out of zone.
	empty := fixedSurface(t, g, 0.9, 0.5)

	got, err := IoU(empty, empty)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestIoUPartialOverlap(t *testing.T) {
	g := DefaultGrid()
	a := fixedSurface(t, g, 3.5, 1.5)
	b := fixedSurface(t, g, 3.9, 1.9)

	got, err := IoU(a, b)
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestIoUSymmetric(t *testing.T) {
	g := DefaultGrid()
	a := fixedSurface(t, g, 3.5, 1.5)
	b := fixedSurface(t, g, 3.9, 1.9)

	ab, err := IoU(a, b)
	require.NoError(t, err)
	ba, err := IoU(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestIoUMismatchedGrids(t *testing.T) {
	g1 := DefaultGrid()
	g2, err := NewGrid(DefaultXMin, DefaultXMax, DefaultZMin, DefaultZMax, 20, 20)
	require.NoError(t, err)

	_, err = IoU(fixedSurface(t, g1, 3.5, 1.5), fixedSurface(t, g2, 3.5, 1.5))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGridResolution, errors.GetCode(err))
}

func TestDivergence(t *testing.T) {
	g := DefaultGrid()
	a := fixedSurface(t, g, 3.5, 1.5)

	got, err := Divergence(a, a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	b := fixedSurface(t, g, 3.9, 1.5)
	got, err = Divergence(a, b)
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestDivergenceSymmetric(t *testing.T) {
	g := DefaultGrid()
	a := fixedSurface(t, g, 3.5, 1.5)
	b := g.Rasterize(rampModel{})

	ab, err := Divergence(a, b)
	require.NoError(t, err)
	ba, err := Divergence(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Greater(t, ab, 0.0)
}

func TestCentroidOfSymmetricZone(t *testing.T) {
	g := DefaultGrid()
	s := fixedSurface(t, g, 3.5, 1.5)

	c, err := CentroidOf(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c.X, 0.05)
	assert.InDelta(t, 2.5, c.Z, 0.05)
}

func TestCentroidOfEmptySurface(t *testing.T) {
	g := DefaultGrid()
	s := fixedSurface(t, g, 0.9, 0.5)

	_, err := CentroidOf(s)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUndefinedCentroid, errors.GetCode(err))
}

func TestCentroidDistance(t *testing.T) {
	a := Centroid{X: 0, Z: 2.5}
	b := Centroid{X: 0.3, Z: 2.9}
	assert.InDelta(t, 0.5, CentroidDistance(a, b), 1e-12)
	assert.Equal(t, 0.0, CentroidDistance(a, a))
}

// evalAt reads the surface value at the grid point closest to (px, pz).
func evalAt(s *Surface, px, pz float64) float64 {
	xi := nearest(s.Grid.Xs, px)
	zi := nearest(s.Grid.Zs, pz)
	return s.Values[zi][xi]
}

func nearest(axis []float64, v float64) int {
	best, bestD := 0, -1.0
	for i, a := range axis {
		d := a - v
		if d < 0 {
			d = -d
		}
		if bestD < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
