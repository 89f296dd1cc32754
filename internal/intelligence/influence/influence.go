// Package influence estimates whether a batter's in-at-bat swing behavior is
// correlated with the umpire's calls on later taken pitches. It regresses
// the call outcome on pitch location plus the batter's prior swing rate
// within the same at-bat; a coefficient on the prior that survives a
// significance check is evidence the call was not a pure function of
// location.
package influence

import (
	"fmt"
	"math"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/intelligence/zonefit"
	"github.com/calledstrike/szas/pkg/errors"
)

const (
	// MinQualifyingSequences is the minimum number of 4-pitch at-bats a
	// subject needs before a fit is attempted.
	MinQualifyingSequences = 10

	// MinAnalyzableTakes is the minimum number of takes with observed prior
	// behavior (pitch 2 onward) required for the regression.
	MinAnalyzableTakes = 20

	// Overall swing-rate cutoffs for the subject classification flags.
	FreeswingerRate = 0.55
	PatientRate     = 0.45
)

// PriorCoefIndex is the position of the prior-swing-rate coefficient in the
// influence design row.
const PriorCoefIndex = 5

// Features builds the influence design row: quadratic location terms plus
// the prior swing rate.
func Features(px, pz, priorSwingRate float64) []float64 {
	return []float64{1, px, pz, px * px, pz * pz, priorSwingRate}
}

// Result is the per-subject influence estimate.
type Result struct {
	SubjectID int64 `json:"subject_id"`

	QualifyingSequences int `json:"qualifying_sequences"`
	TakesAnalyzed       int `json:"takes_analyzed"`

	// Coefficient on the prior swing rate, location-controlled. Positive
	// means a batter who swung more earlier in the at-bat saw more called
	// strikes on pitches they took.
	Coefficient float64 `json:"coefficient"`
	OddsRatio   float64 `json:"odds_ratio"`
	ZScore      float64 `json:"z_score"`

	OverallSwingRate float64 `json:"overall_swing_rate"`
	Freeswinger      bool    `json:"freeswinger"`
	Patient          bool    `json:"patient"`
}

// Direction reports "positive", "negative", or "neutral" for the fitted
// coefficient.
func (r *Result) Direction() string {
	switch {
	case r.Coefficient > 0:
		return "positive"
	case r.Coefficient < 0:
		return "negative"
	default:
		return "neutral"
	}
}

// AnalyzeSubject runs the influence regression for one subject's records.
// Records must already be filtered to a single subject; sequences shorter
// than four pitches are discarded, and first pitches never enter the fit
// since the umpire has observed nothing yet. Subjects without enough
// qualifying sequences or analyzable takes get an InfluenceNotReady error,
// never a coefficient fit on thin data.
func AnalyzeSubject(subjectID int64, records []pitch.Record) (*Result, error) {
	if len(records) == 0 {
		return nil, errors.InfluenceNotReady("no records for subject")
	}

	seqs := pitch.QualifyingSequences(records)
	if len(seqs) < MinQualifyingSequences {
		return nil, errors.InfluenceNotReady(fmt.Sprintf(
			"need %d qualifying at-bats, have %d", MinQualifyingSequences, len(seqs)))
	}

	var rows [][]float64
	var ys []float64
	for _, s := range seqs {
		priors := s.PriorSwingRates()
		for i, p := range s.Pitches {
			if i == 0 || !p.IsTake() {
				continue
			}
			rows = append(rows, Features(p.PX, p.PZ, priors[i]))
			if p.IsCalledStrike() {
				ys = append(ys, 1)
			} else {
				ys = append(ys, 0)
			}
		}
	}
	if len(rows) < MinAnalyzableTakes {
		return nil, errors.InfluenceNotReady(fmt.Sprintf(
			"need %d analyzable takes, have %d", MinAnalyzableTakes, len(rows)))
	}

	fit, err := zonefit.FitLogit(rows, ys, zonefit.DefaultLogitOptions())
	if err != nil {
		return nil, err
	}

	coef := fit.Coef[PriorCoefIndex]
	res := &Result{
		SubjectID:           subjectID,
		QualifyingSequences: len(seqs),
		TakesAnalyzed:       len(rows),
		Coefficient:         coef,
		OddsRatio:           math.Exp(coef),
		ZScore:              fit.ZScore(PriorCoefIndex),
	}

	swings, total := 0, 0
	for _, r := range records {
		total++
		if r.IsSwing() {
			swings++
		}
	}
	res.OverallSwingRate = float64(swings) / float64(total)
	res.Freeswinger = res.OverallSwingRate > FreeswingerRate
	res.Patient = res.OverallSwingRate < PatientRate

	return res, nil
}

// Failure records why one subject in a batch could not be analyzed.
type Failure struct {
	SubjectID int64  `json:"subject_id"`
	Reason    string `json:"reason"`
}

// AggregateResult summarizes a batch of per-subject analyses. Means are
// taken over successful fits only; success and failure counts always sum to
// the number of subjects requested.
type AggregateResult struct {
	Results  []*Result `json:"results"`
	Failures []Failure `json:"failures"`

	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	MeanCoefficient float64 `json:"mean_coefficient"`
	CoefficientStd  float64 `json:"coefficient_std"`
	MeanOddsRatio   float64 `json:"mean_odds_ratio"`

	Freeswingers   int `json:"freeswingers"`
	PatientBatters int `json:"patient_batters"`
}

// Ready reports whether at least one subject produced a fit.
func (a *AggregateResult) Ready() bool { return a.Succeeded > 0 }

// Aggregate folds per-subject outcomes into batch statistics.
func Aggregate(results []*Result, failures []Failure) *AggregateResult {
	agg := &AggregateResult{
		Results:   results,
		Failures:  failures,
		Succeeded: len(results),
		Failed:    len(failures),
	}
	if len(results) == 0 {
		return agg
	}

	var sumCoef, sumOdds float64
	for _, r := range results {
		sumCoef += r.Coefficient
		sumOdds += r.OddsRatio
		if r.Freeswinger {
			agg.Freeswingers++
		}
		if r.Patient {
			agg.PatientBatters++
		}
	}
	n := float64(len(results))
	agg.MeanCoefficient = sumCoef / n
	agg.MeanOddsRatio = sumOdds / n

	var ss float64
	for _, r := range results {
		d := r.Coefficient - agg.MeanCoefficient
		ss += d * d
	}
	agg.CoefficientStd = math.Sqrt(ss / n)

	return agg
}
