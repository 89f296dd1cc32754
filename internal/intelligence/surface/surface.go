package surface

import (
	"fmt"
	"math"

	"github.com/calledstrike/szas/internal/domain/zone"
	"github.com/calledstrike/szas/pkg/errors"
)

// MembershipThreshold separates in-zone from out-of-zone cells when a
// continuous surface is compared by overlap.
const MembershipThreshold = 0.5

// Surface holds a zone model evaluated over a grid. Values is indexed
// [zi][xi], matching Grid.Zs and Grid.Xs.
type Surface struct {
	Grid   *Grid       `json:"grid"`
	Kind   zone.Kind   `json:"kind"`
	Values [][]float64 `json:"values"`
}

// Centroid is a mass-weighted mean location over the grid.
type Centroid struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

func (c Centroid) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", c.X, c.Z)
}

func sameShape(a, b *Surface) error {
	if a.Grid.NX() != b.Grid.NX() || a.Grid.NZ() != b.Grid.NZ() {
		return errors.New(errors.ErrCodeGridResolution,
			"surfaces were rasterized on different grids")
	}
	return nil
}

// IoU returns the intersection-over-union of the two surfaces' in-zone
// regions, thresholding each at MembershipThreshold. When neither surface
// has any in-zone cell the union is empty and the overlap is 0, not NaN.
func IoU(a, b *Surface) (float64, error) {
	if err := sameShape(a, b); err != nil {
		return 0, err
	}
	inter, union := 0, 0
	for zi := range a.Values {
		for xi := range a.Values[zi] {
			ina := a.Values[zi][xi] >= MembershipThreshold
			inb := b.Values[zi][xi] >= MembershipThreshold
			if ina && inb {
				inter++
			}
			if ina || inb {
				union++
			}
		}
	}
	if union == 0 {
		return 0, nil
	}
	return float64(inter) / float64(union), nil
}

// Divergence returns the mean absolute cell difference between two surfaces.
// Unlike IoU it reads the continuous values, so it also distinguishes
// surfaces whose thresholded footprints coincide.
func Divergence(a, b *Surface) (float64, error) {
	if err := sameShape(a, b); err != nil {
		return 0, err
	}
	sum := 0.0
	n := 0
	for zi := range a.Values {
		for xi := range a.Values[zi] {
			d := a.Values[zi][xi] - b.Values[zi][xi]
			if d < 0 {
				d = -d
			}
			sum += d
			n++
		}
	}
	return sum / float64(n), nil
}

// CentroidOf returns the value-weighted centroid of a surface. A surface
// with zero total mass has no centroid and yields an UndefinedCentroid
// error.
func CentroidOf(s *Surface) (Centroid, error) {
	var sx, sz, mass float64
	for zi := range s.Values {
		pz := s.Grid.Zs[zi]
		for xi := range s.Values[zi] {
			v := s.Values[zi][xi]
			if v <= 0 {
				continue
			}
			sx += v * s.Grid.Xs[xi]
			sz += v * pz
			mass += v
		}
	}
	if mass == 0 {
		return Centroid{}, errors.UndefinedCentroid(string(s.Kind))
	}
	return Centroid{X: sx / mass, Z: sz / mass}, nil
}

// CentroidDistance is the Euclidean distance between two centroids.
func CentroidDistance(a, b Centroid) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}
