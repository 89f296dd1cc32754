// Package zonefit implements the numeric model fitting behind the two
// data-driven zone variants: a ridge-regularized logistic regression for the
// called zone and a Gaussian kernel density estimate for the swing zone.
// Both fits are request-scoped pure computations; no state survives the
// call that produced them.
package zonefit

import (
	"fmt"
	"math"

	"github.com/calledstrike/szas/internal/domain/zone"
	"github.com/calledstrike/szas/pkg/errors"
)

// LocationFeatures expands a plate location into the quadratic design row
// [1, px, pz, px², pz², px·pz] used by every regression in the pipeline.
func LocationFeatures(px, pz float64) []float64 {
	return []float64{1, px, pz, px * px, pz * pz, px * pz}
}

// NumLocationFeatures is the width of a LocationFeatures row.
const NumLocationFeatures = 6

// LogitOptions tunes the iteratively-reweighted-least-squares fit.
type LogitOptions struct {
	// Ridge is the L2 penalty applied to every coefficient except the
	// intercept. It keeps the normal equations positive definite, so
	// perfectly separable data still converges to finite coefficients
	// instead of diverging.
	Ridge float64

	// MaxIterations bounds the IRLS loop.
	MaxIterations int

	// Tolerance is the max absolute coefficient update below which the fit
	// is declared converged.
	Tolerance float64
}

// DefaultLogitOptions mirrors the tolerances a standard max-likelihood
// solver would use on data of this scale.
func DefaultLogitOptions() LogitOptions {
	return LogitOptions{
		Ridge:         1.0,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// LogitFit is the result of a logistic regression: coefficients, their
// standard errors from the observed information matrix, and convergence
// diagnostics.
type LogitFit struct {
	Coef      []float64
	StdErr    []float64
	Converged bool
	Iters     int
}

// ZScore returns the Wald z-statistic of coefficient j, or 0 when its
// standard error is not positive.
func (f *LogitFit) ZScore(j int) float64 {
	if j < 0 || j >= len(f.Coef) || f.StdErr[j] <= 0 {
		return 0
	}
	return f.Coef[j] / f.StdErr[j]
}

func sigmoid(x float64) float64 {
	// Split the formula to stay away from exp overflow on either tail.
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// FitLogit fits P(y=1|x) = sigmoid(xᵀβ) by IRLS over the given design rows.
// Rows must all have the same width and ys must be 0/1 labels of the same
// length. The ridge penalty guarantees the routine terminates with finite
// coefficients on separable or near-degenerate data; a DegenerateFit error is
// returned when the labels hold a single class, the inputs are non-finite, or
// the system cannot be factored.
func FitLogit(rows [][]float64, ys []float64, opts LogitOptions) (*LogitFit, error) {
	n := len(rows)
	if n == 0 || n != len(ys) {
		return nil, errors.DegenerateFit("logit", fmt.Sprintf("inconsistent design: %d rows, %d labels", n, len(ys)))
	}
	p := len(rows[0])
	for i, r := range rows {
		if len(r) != p {
			return nil, errors.DegenerateFit("logit", fmt.Sprintf("row %d has width %d, want %d", i, len(r), p))
		}
		if !allFinite(r) {
			return nil, errors.DegenerateFit("logit", fmt.Sprintf("row %d contains non-finite values", i))
		}
	}
	pos := 0
	for _, y := range ys {
		if y != 0 {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return nil, errors.DegenerateFit("logit", "labels contain a single class")
	}
	if opts.MaxIterations <= 0 {
		opts = DefaultLogitOptions()
	}

	beta := make([]float64, p)
	grad := make([]float64, p)
	var hessian *matrix

	converged := false
	iters := 0
	for iter := 0; iter < opts.MaxIterations; iter++ {
		iters = iter + 1

		for j := range grad {
			grad[j] = 0
		}
		hessian = newMatrix(p)

		for i := 0; i < n; i++ {
			eta := 0.0
			for j := 0; j < p; j++ {
				eta += rows[i][j] * beta[j]
			}
			mu := sigmoid(eta)
			w := mu * (1 - mu)
			resid := ys[i] - mu
			for j := 0; j < p; j++ {
				grad[j] += rows[i][j] * resid
				for k := 0; k <= j; k++ {
					hessian.add(j, k, w*rows[i][j]*rows[i][k])
				}
			}
		}
		// Mirror the lower triangle and apply the ridge. The intercept
		// (column 0) is left unpenalized.
		for j := 0; j < p; j++ {
			for k := 0; k < j; k++ {
				hessian.set(k, j, hessian.at(j, k))
			}
			if j > 0 {
				hessian.add(j, j, opts.Ridge)
				grad[j] -= opts.Ridge * beta[j]
			}
		}

		l, err := hessian.cholesky()
		if err != nil {
			return nil, err
		}
		delta := solveCholesky(l, grad)
		if !allFinite(delta) {
			return nil, errors.DegenerateFit("logit", "non-finite update step")
		}

		maxStep := 0.0
		for j := 0; j < p; j++ {
			beta[j] += delta[j]
			if s := math.Abs(delta[j]); s > maxStep {
				maxStep = s
			}
		}
		if maxStep < opts.Tolerance {
			converged = true
			break
		}
	}

	if !allFinite(beta) {
		return nil, errors.DegenerateFit("logit", "non-finite coefficients")
	}

	// Standard errors from the inverse of the penalized information matrix
	// at the final coefficients.
	inv, err := hessian.invertSPD()
	if err != nil {
		return nil, err
	}
	se := make([]float64, p)
	for j := 0; j < p; j++ {
		v := inv.at(j, j)
		if v > 0 {
			se[j] = math.Sqrt(v)
		}
	}

	return &LogitFit{Coef: beta, StdErr: se, Converged: converged, Iters: iters}, nil
}

// CalledZone is the regression zone variant: a logistic surface over
// quadratic location features, fit to taken pitches with called_strike as the
// positive label.
type CalledZone struct {
	fit *LogitFit
}

// FitCalledZone fits the called-zone model from (px, pz, calledStrike)
// samples. Locations and labels must be equal-length; labels are 1 for a
// called strike and 0 for a ball.
func FitCalledZone(pxs, pzs, labels []float64, opts LogitOptions) (*CalledZone, error) {
	if len(pxs) != len(pzs) || len(pxs) != len(labels) {
		return nil, errors.DegenerateFit("called zone", "mismatched sample slices")
	}
	rows := make([][]float64, len(pxs))
	for i := range pxs {
		rows[i] = LocationFeatures(pxs[i], pzs[i])
	}
	fit, err := FitLogit(rows, labels, opts)
	if err != nil {
		return nil, err
	}
	return &CalledZone{fit: fit}, nil
}

// EvaluateAt returns the calibrated called-strike probability at a location.
func (c *CalledZone) EvaluateAt(px, pz float64) float64 {
	row := LocationFeatures(px, pz)
	eta := 0.0
	for j, v := range row {
		eta += v * c.fit.Coef[j]
	}
	return sigmoid(eta)
}

// Kind returns zone.KindRegression.
func (c *CalledZone) Kind() zone.Kind { return zone.KindRegression }

// Fit exposes the underlying regression diagnostics.
func (c *CalledZone) Fit() *LogitFit { return c.fit }
