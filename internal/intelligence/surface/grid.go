// Package surface rasterizes zone models onto a shared plate-location grid
// and compares the resulting surfaces: overlap, divergence, centroid.
package surface

import (
	"github.com/calledstrike/szas/internal/domain/zone"
	"github.com/calledstrike/szas/pkg/errors"
)

// Default evaluation window, in feet from the plate center and from the
// ground. Wide enough to cover every realistic strike zone with margin.
const (
	DefaultXMin = -1.5
	DefaultXMax = 1.5
	DefaultZMin = 1.0
	DefaultZMax = 4.5
	DefaultNX   = 50
	DefaultNZ   = 50
)

// Grid is a fixed rectangular lattice of plate locations. Cell (xi, zi)
// maps to the point (Xs[xi], Zs[zi]); both axes include their endpoints.
type Grid struct {
	Xs []float64 `json:"xs"`
	Zs []float64 `json:"zs"`
}

// NewGrid builds an nx by nz lattice spanning the given window inclusive of
// both edges. Each axis needs at least two points.
func NewGrid(xMin, xMax, zMin, zMax float64, nx, nz int) (*Grid, error) {
	if nx < 2 || nz < 2 {
		return nil, errors.New(errors.ErrCodeGridResolution, "grid axes need at least two points")
	}
	if xMax <= xMin || zMax <= zMin {
		return nil, errors.New(errors.ErrCodeGridResolution, "grid window is empty")
	}
	g := &Grid{
		Xs: make([]float64, nx),
		Zs: make([]float64, nz),
	}
	dx := (xMax - xMin) / float64(nx-1)
	for i := range g.Xs {
		g.Xs[i] = xMin + float64(i)*dx
	}
	dz := (zMax - zMin) / float64(nz-1)
	for i := range g.Zs {
		g.Zs[i] = zMin + float64(i)*dz
	}
	return g, nil
}

// DefaultGrid returns the standard 50x50 evaluation lattice.
func DefaultGrid() *Grid {
	g, err := NewGrid(DefaultXMin, DefaultXMax, DefaultZMin, DefaultZMax, DefaultNX, DefaultNZ)
	if err != nil {
		panic(err) // constants are valid
	}
	return g
}

// NX returns the number of horizontal grid points.
func (g *Grid) NX() int { return len(g.Xs) }

// NZ returns the number of vertical grid points.
func (g *Grid) NZ() int { return len(g.Zs) }

// Rasterize evaluates a zone model at every lattice point. Density-kind
// surfaces are scaled so their maximum cell is 1, which makes the shared 0.5
// threshold a relative-density cut for that variant; probability and
// indicator surfaces are left as returned by the model.
func (g *Grid) Rasterize(m zone.Model) *Surface {
	s := &Surface{
		Grid:   g,
		Kind:   m.Kind(),
		Values: make([][]float64, g.NZ()),
	}
	maxVal := 0.0
	for zi, pz := range g.Zs {
		row := make([]float64, g.NX())
		for xi, px := range g.Xs {
			v := m.EvaluateAt(px, pz)
			row[xi] = v
			if v > maxVal {
				maxVal = v
			}
		}
		s.Values[zi] = row
	}
	if m.Kind() == zone.KindDensity && maxVal > 0 {
		for zi := range s.Values {
			for xi := range s.Values[zi] {
				s.Values[zi][xi] /= maxVal
			}
		}
	}
	return s
}
