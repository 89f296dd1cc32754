package scoring

import (
	"math"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/domain/zone"
	"github.com/calledstrike/szas/internal/intelligence/surface"
	"github.com/calledstrike/szas/internal/intelligence/zonefit"
	"github.com/calledstrike/szas/pkg/errors"
)

// BiasZCutoff is the Wald z-statistic magnitude below which the confound
// coefficient is treated as noise and the bias term is 0.
const BiasZCutoff = 1.96

// fittedZones bundles the three models built from one pitch collection.
type fittedZones struct {
	classes pitch.Classes
	bounds  zone.Bounds

	fixed  zone.Fixed
	called *zonefit.CalledZone
	swing  *zonefit.SwingZone
}

// fitZones splits the collection, enforces the sample minimums, and fits
// all three zone variants. Each fit reads only its own class subset; the
// construction order carries no state between fits.
func fitZones(records []pitch.Record) (*fittedZones, error) {
	classes := pitch.Split(records)
	if err := classes.EnsureFitSamples(); err != nil {
		return nil, err
	}

	top, bot := pitch.AverageZoneBounds(records)
	bounds := zone.NewBounds(top, bot)

	takes := classes.Takes
	pxs := make([]float64, len(takes))
	pzs := make([]float64, len(takes))
	labels := make([]float64, len(takes))
	for i, r := range takes {
		pxs[i] = r.PX
		pzs[i] = r.PZ
		if r.IsCalledStrike() {
			labels[i] = 1
		}
	}
	called, err := zonefit.FitCalledZone(pxs, pzs, labels, zonefit.DefaultLogitOptions())
	if err != nil {
		return nil, err
	}

	swings := classes.Swings
	sxs := make([]float64, len(swings))
	szs := make([]float64, len(swings))
	for i, r := range swings {
		sxs[i] = r.PX
		szs[i] = r.PZ
	}
	swing, err := zonefit.FitSwingZone(sxs, szs, zonefit.KDEOptions{})
	if err != nil {
		return nil, err
	}

	return &fittedZones{
		classes: classes,
		bounds:  bounds,
		fixed:   zone.NewFixed(bounds),
		called:  called,
		swing:   swing,
	}, nil
}

// ComputeScore runs the full alignment pipeline over a cleaned, filtered
// pitch collection. It is a pure function of its input.
func ComputeScore(records []pitch.Record) (*Result, error) {
	zones, err := fitZones(records)
	if err != nil {
		return nil, err
	}

	grid := surface.DefaultGrid()
	sfFixed := grid.Rasterize(zones.fixed)
	sfCalled := grid.Rasterize(zones.called)
	sfSwing := grid.Rasterize(zones.swing)

	var ious IoUSet
	if ious.FixedRegression, err = surface.IoU(sfFixed, sfCalled); err != nil {
		return nil, err
	}
	if ious.FixedDensity, err = surface.IoU(sfFixed, sfSwing); err != nil {
		return nil, err
	}
	if ious.RegressionDensity, err = surface.IoU(sfCalled, sfSwing); err != nil {
		return nil, err
	}

	var divs DivergenceSet
	if divs.Regression, err = surface.Divergence(sfFixed, sfCalled); err != nil {
		return nil, err
	}
	if divs.Density, err = surface.Divergence(sfFixed, sfSwing); err != nil {
		return nil, err
	}

	centroids := CentroidSet{
		Fixed:      centroidOrAbsent(sfFixed),
		Regression: centroidOrAbsent(sfCalled),
		Density:    centroidOrAbsent(sfSwing),
	}

	bias, err := confoundBias(zones, grid)
	if err != nil {
		return nil, err
	}

	szas := compositeScore(ious, bias)

	result := &Result{
		SZAS:       szas,
		IoU:        ious,
		Divergence: divs,
		Centroids:  centroids,
		Bias:       bias,
		Bounds:     zones.bounds,
		Samples:    sampleStats(zones.classes),
	}
	result.Interpretation = interpretScore(result)
	return result, nil
}

// ComputeSurfaces rasterizes the three zones for rendering, with the raw
// pitch locations behind each class.
func ComputeSurfaces(records []pitch.Record) (*SurfacesResult, error) {
	zones, err := fitZones(records)
	if err != nil {
		return nil, err
	}

	grid := surface.DefaultGrid()
	res := &SurfacesResult{
		Grid:       grid,
		Bounds:     zones.bounds,
		Fixed:      grid.Rasterize(zones.fixed).Values,
		Regression: grid.Rasterize(zones.called).Values,
		Density:    grid.Rasterize(zones.swing).Values,
	}

	for _, r := range zones.classes.Takes {
		res.Takes = append(res.Takes, PitchPoint{X: r.PX, Z: r.PZ, Strike: r.IsCalledStrike()})
	}
	for _, r := range zones.classes.Swings {
		res.Swings = append(res.Swings, PitchPoint{X: r.PX, Z: r.PZ})
	}
	return res, nil
}

// compositeScore folds the three overlaps and the bias discount into the
// final score. It reaches 1 only when every IoU is 1 and the bias term is 0.
func compositeScore(ious IoUSet, bias BiasReport) float64 {
	return ious.Mean() * (1 - bias.Value)
}

// confoundBias regresses the call outcome on pitch location plus the
// batter's relative swing density at that location. A significant
// coefficient on the density term means calls are not a pure function of
// location, and the composite score is discounted by its magnitude.
func confoundBias(zones *fittedZones, grid *surface.Grid) (BiasReport, error) {
	// The rasterized swing surface is scaled to max 1; recover the raw
	// density peak so point evaluations land on the same relative scale.
	maxRaw := 0.0
	for _, pz := range grid.Zs {
		for _, px := range grid.Xs {
			if v := zones.swing.EvaluateAt(px, pz); v > maxRaw {
				maxRaw = v
			}
		}
	}
	if maxRaw <= 0 {
		return BiasReport{}, errors.DegenerateFit("confound", "swing density has no mass")
	}

	takes := zones.classes.Takes
	rows := make([][]float64, len(takes))
	ys := make([]float64, len(takes))
	for i, r := range takes {
		rel := zones.swing.EvaluateAt(r.PX, r.PZ) / maxRaw
		rows[i] = []float64{1, r.PX, r.PZ, r.PX * r.PX, r.PZ * r.PZ, rel}
		if r.IsCalledStrike() {
			ys[i] = 1
		}
	}

	fit, err := zonefit.FitLogit(rows, ys, zonefit.DefaultLogitOptions())
	if err != nil {
		return BiasReport{}, err
	}

	const densityIdx = 5
	coef := fit.Coef[densityIdx]
	z := fit.ZScore(densityIdx)

	report := BiasReport{Coefficient: coef, ZScore: z}
	if math.Abs(z) >= BiasZCutoff {
		report.Significant = true
		report.Value = math.Min(math.Abs(coef), 1)
	}
	return report, nil
}

func centroidOrAbsent(s *surface.Surface) *surface.Centroid {
	c, err := surface.CentroidOf(s)
	if err != nil {
		return nil
	}
	return &c
}

func sampleStats(c pitch.Classes) SampleStats {
	stats := SampleStats{
		TotalPitches: c.Total(),
		Takes:        len(c.Takes),
		Swings:       len(c.Swings),
	}
	for _, r := range c.Takes {
		if r.IsCalledStrike() {
			stats.CalledStrikes++
		} else if r.Call == pitch.CallBall {
			stats.Balls++
		}
	}
	return stats
}

// interpretScore phrases the result for presentation.
func interpretScore(r *Result) string {
	var head string
	switch {
	case r.SZAS >= 0.8:
		head = "Excellent zone alignment - all three zones are highly consistent."
	case r.SZAS >= 0.6:
		head = "Good zone alignment - moderate consistency across zones."
	case r.SZAS >= 0.4:
		head = "Fair zone alignment - some divergence between zones."
	default:
		head = "Poor zone alignment - significant divergence between zones."
	}

	var tail string
	if r.IoU.FixedRegression > r.IoU.FixedDensity {
		tail = "Umpire zone aligns better with the rulebook than the batter zone."
	} else {
		tail = "Batter zone aligns better with the rulebook than the umpire zone."
	}
	return head + " " + tail
}
