package zonefit

import (
	"math"

	"github.com/calledstrike/szas/internal/domain/zone"
	"github.com/calledstrike/szas/pkg/errors"
)

// SwingZone is the density zone variant: a 2D Gaussian kernel density
// estimate over swing locations. EvaluateAt returns the raw density; the
// grid evaluator normalizes a rasterized swing surface to max = 1, and the
// 0.5 decision threshold is then relative to that maximum, not a
// probability. See zone.KindDensity.
type SwingZone struct {
	xs, zs []float64
	hx, hz float64
	norm   float64 // 1 / (n · 2π · hx · hz)
}

// KDEOptions tunes the density fit.
type KDEOptions struct {
	// Bandwidth overrides the rule-of-thumb bandwidth for both axes when
	// positive. Zero selects Scott's rule.
	Bandwidth float64
}

// scottBandwidth returns σ·n^(−1/(d+4)) with d = 2, the standard
// rule-of-thumb factor for a bivariate Gaussian kernel.
func scottBandwidth(sigma float64, n int) float64 {
	return sigma * math.Pow(float64(n), -1.0/6.0)
}

func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n
	for _, x := range xs {
		d := x - mean
		std += d * d
	}
	std = math.Sqrt(std / n)
	return mean, std
}

// FitSwingZone fits the swing-density model over (px, pz) samples. It
// requires at least two distinct locations on each axis; a point cloud with
// zero spread has no meaningful density surface and yields a DegenerateFit.
func FitSwingZone(pxs, pzs []float64, opts KDEOptions) (*SwingZone, error) {
	n := len(pxs)
	if n != len(pzs) {
		return nil, errors.DegenerateFit("swing zone", "mismatched sample slices")
	}
	if n < 2 {
		return nil, errors.DegenerateFit("swing zone", "need at least two swing locations")
	}
	if !allFinite(pxs) || !allFinite(pzs) {
		return nil, errors.DegenerateFit("swing zone", "non-finite swing locations")
	}

	var hx, hz float64
	if opts.Bandwidth > 0 {
		hx, hz = opts.Bandwidth, opts.Bandwidth
	} else {
		_, sx := meanStd(pxs)
		_, sz := meanStd(pzs)
		hx = scottBandwidth(sx, n)
		hz = scottBandwidth(sz, n)
	}
	if hx <= 0 || hz <= 0 {
		return nil, errors.DegenerateFit("swing zone", "zero spread in swing locations")
	}

	xs := make([]float64, n)
	zs := make([]float64, n)
	copy(xs, pxs)
	copy(zs, pzs)

	return &SwingZone{
		xs:   xs,
		zs:   zs,
		hx:   hx,
		hz:   hz,
		norm: 1 / (float64(n) * 2 * math.Pi * hx * hz),
	}, nil
}

// EvaluateAt returns the kernel density at a plate location.
func (s *SwingZone) EvaluateAt(px, pz float64) float64 {
	sum := 0.0
	for i := range s.xs {
		dx := (px - s.xs[i]) / s.hx
		dz := (pz - s.zs[i]) / s.hz
		sum += math.Exp(-0.5 * (dx*dx + dz*dz))
	}
	return s.norm * sum
}

// Kind returns zone.KindDensity.
func (s *SwingZone) Kind() zone.Kind { return zone.KindDensity }

// Bandwidths returns the per-axis kernel bandwidths in use.
func (s *SwingZone) Bandwidths() (hx, hz float64) { return s.hx, s.hz }
