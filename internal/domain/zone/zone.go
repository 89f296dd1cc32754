// Package zone defines the geometric constants of the regulation strike
// zone, the Bounds value shared by fixed-zone evaluation and grid
// construction, and the Model contract every zone variant satisfies.
package zone

// Regulation geometry in feet. The plate is 17 inches wide; a pitch is a
// strike when any part of the ball crosses the zone, so the effective half
// width extends by one ball radius.
const (
	PlateWidth = 17.0 / 12.0
	BallRadius = 1.45 / 12.0
)

// HalfWidth is the effective horizontal half extent of the rulebook zone.
func HalfWidth() float64 { return PlateWidth/2 + BallRadius }

// Bounds is the zone extent for one query: a fixed horizontal half width and
// the subject's vertical limits (or an aggregate average when the query spans
// subjects).
type Bounds struct {
	Half float64 `json:"half_width"`
	Top  float64 `json:"sz_top"`
	Bot  float64 `json:"sz_bot"`
}

// NewBounds builds Bounds for the given vertical limits using the regulation
// half width.
func NewBounds(top, bot float64) Bounds {
	return Bounds{Half: HalfWidth(), Top: top, Bot: bot}
}

// Contains reports whether a pitch location is inside the bounds.
func (b Bounds) Contains(px, pz float64) bool {
	return px >= -b.Half && px <= b.Half && pz >= b.Bot && pz <= b.Top
}

// Kind tags the three zone-model variants.
type Kind string

const (
	// KindFixed is the deterministic rulebook zone.
	KindFixed Kind = "fixed"

	// KindRegression is the logistic called-zone fit to taken pitches. Its
	// EvaluateAt returns a calibrated probability; the decision boundary is
	// the 0.5-probability contour.
	KindRegression Kind = "regression"

	// KindDensity is the kernel-density swing zone fit to swung pitches.
	// Its EvaluateAt returns a raw density, normalized to max = 1 only once
	// rasterized onto a grid; the decision boundary is the 50%-of-maximum
	// contour. Thresholding at 0.5 therefore means relative density, not
	// probability, the one asymmetry between the fitted variants.
	KindDensity Kind = "density"
)

// Model is the single evaluation contract shared by all three variants, so
// the grid evaluator and surface comparator stay ignorant of which variant
// they hold. Implementations are immutable once constructed and safe for
// concurrent evaluation.
type Model interface {
	// EvaluateAt returns the probability-like value at a plate location.
	EvaluateAt(px, pz float64) float64

	// Kind identifies the variant, which determines how rasterized values
	// are normalized and what the 0.5 threshold means.
	Kind() Kind
}

// Fixed is the rulebook zone: binary by construction, exposed as a 0/1
// probability so it composes uniformly with the fitted variants.
type Fixed struct {
	bounds Bounds
}

// NewFixed constructs the rulebook zone for the given bounds.
func NewFixed(b Bounds) Fixed { return Fixed{bounds: b} }

// EvaluateAt returns 1 inside the zone and 0 outside.
func (f Fixed) EvaluateAt(px, pz float64) float64 {
	if f.bounds.Contains(px, pz) {
		return 1
	}
	return 0
}

// Kind returns KindFixed.
func (f Fixed) Kind() Kind { return KindFixed }

// Bounds returns the bounds the zone was built with.
func (f Fixed) Bounds() Bounds { return f.bounds }
