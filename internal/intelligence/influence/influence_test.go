package influence

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/pkg/errors"
)

// subjectAtBats builds nAB at-bats of pitchesPerAB pitches each for one
// subject. swingProb drives both the decision mix and, when influenceCoef is
// nonzero, a call outcome that depends on the prior swing rate.
func subjectAtBats(rng *rand.Rand, subjectID int64, nAB, pitchesPerAB int, swingProb, influenceCoef float64) []pitch.Record {
	var out []pitch.Record
	for ab := 0; ab < nAB; ab++ {
		swings := 0
		for pn := 1; pn <= pitchesPerAB; pn++ {
			r := pitch.Record{
				GameID:      fmt.Sprintf("g%03d", ab/6),
				AtBatNumber: ab,
				PitchNumber: pn,
				BatterID:    subjectID,
				UmpireID:    900,
				Side:        "R",
				Season:      2024,
				PX:          rng.Float64()*2.0 - 1.0,
				PZ:          rng.Float64()*2.0 + 1.5,
				SZTop:       3.5,
				SZBot:       1.5,
			}
			if rng.Float64() < swingProb {
				r.Decision = pitch.DecisionSwing
				swings++
			} else {
				r.Decision = pitch.DecisionTake
				prior := 0.5
				if pn > 1 {
					prior = float64(swings) / float64(pn-1)
				}
				inZone := math.Abs(r.PX) < 0.8 && r.PZ > 1.5 && r.PZ < 3.5
				p := 0.15
				if inZone {
					p = 0.85
				}
				// Tilt the call by the prior swing rate when simulating an
				// influenced umpire.
				p += influenceCoef * (prior - 0.5)
				if rng.Float64() < p {
					r.Call = pitch.CallStrike
				} else {
					r.Call = pitch.CallBall
				}
			}
			out = append(out, r)
		}
	}
	return out
}

func TestAnalyzeSubjectProducesFit(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	records := subjectAtBats(rng, 42, 60, 5, 0.45, 0)

	res, err := AnalyzeSubject(42, records)
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.SubjectID)
	assert.GreaterOrEqual(t, res.QualifyingSequences, MinQualifyingSequences)
	assert.GreaterOrEqual(t, res.TakesAnalyzed, MinAnalyzableTakes)
	assert.InDelta(t, math.Exp(res.Coefficient), res.OddsRatio, 1e-9)
	assert.False(t, math.IsNaN(res.Coefficient))
	assert.InDelta(t, 0.45, res.OverallSwingRate, 0.1)
}

func TestAnalyzeSubjectDetectsDirection(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	// A strongly influenced umpire: high prior swing rate pulls calls toward
	// strikes.
	records := subjectAtBats(rng, 42, 400, 6, 0.5, 0.6)

	res, err := AnalyzeSubject(42, records)
	require.NoError(t, err)
	assert.Greater(t, res.Coefficient, 0.0)
	assert.Equal(t, "positive", res.Direction())
	assert.Greater(t, res.OddsRatio, 1.0)
}

func TestAnalyzeSubjectTooFewSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	records := subjectAtBats(rng, 42, MinQualifyingSequences-1, 5, 0.4, 0)

	_, err := AnalyzeSubject(42, records)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInfluenceNotReady, errors.GetCode(err))
}

func TestAnalyzeSubjectShortAtBatsDoNotQualify(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	// Plenty of at-bats, but all below the 4-pitch qualifying length.
	records := subjectAtBats(rng, 42, 50, 3, 0.4, 0)

	_, err := AnalyzeSubject(42, records)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInfluenceNotReady, errors.GetCode(err))
}

func TestAnalyzeSubjectNoRecords(t *testing.T) {
	_, err := AnalyzeSubject(42, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInfluenceNotReady, errors.GetCode(err))
}

func TestAnalyzeSubjectClassificationFlags(t *testing.T) {
	rng := rand.New(rand.NewSource(9))

	free, err := AnalyzeSubject(1, subjectAtBats(rng, 1, 80, 6, 0.7, 0))
	require.NoError(t, err)
	assert.True(t, free.Freeswinger)
	assert.False(t, free.Patient)

	pat, err := AnalyzeSubject(2, subjectAtBats(rng, 2, 80, 6, 0.3, 0))
	require.NoError(t, err)
	assert.True(t, pat.Patient)
	assert.False(t, pat.Freeswinger)
}

func TestFeaturesLayout(t *testing.T) {
	f := Features(0.5, 2.0, 0.75)
	require.Len(t, f, 6)
	assert.Equal(t, []float64{1, 0.5, 2.0, 0.25, 4.0, 0.75}, f)
	assert.Equal(t, 0.75, f[PriorCoefIndex])
}

func TestAggregate(t *testing.T) {
	results := []*Result{
		{SubjectID: 1, Coefficient: 0.2, OddsRatio: math.Exp(0.2), Freeswinger: true},
		{SubjectID: 2, Coefficient: -0.4, OddsRatio: math.Exp(-0.4), Patient: true},
	}
	failures := []Failure{{SubjectID: 3, Reason: "need 10 qualifying at-bats, have 2"}}

	agg := Aggregate(results, failures)
	assert.Equal(t, 2, agg.Succeeded)
	assert.Equal(t, 1, agg.Failed)
	assert.Equal(t, 3, agg.Succeeded+agg.Failed)
	assert.InDelta(t, -0.1, agg.MeanCoefficient, 1e-12)
	assert.InDelta(t, (math.Exp(0.2)+math.Exp(-0.4))/2, agg.MeanOddsRatio, 1e-12)
	assert.InDelta(t, 0.3, agg.CoefficientStd, 1e-12)
	assert.Equal(t, 1, agg.Freeswingers)
	assert.Equal(t, 1, agg.PatientBatters)
	assert.True(t, agg.Ready())
}

func TestAggregateAllFailed(t *testing.T) {
	agg := Aggregate(nil, []Failure{{SubjectID: 1, Reason: "no records for subject"}})
	assert.Equal(t, 0, agg.Succeeded)
	assert.Equal(t, 1, agg.Failed)
	assert.False(t, agg.Ready())
	assert.Equal(t, 0.0, agg.MeanCoefficient)
}
