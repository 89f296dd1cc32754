// Package synthetic generates deterministic pitch data and provides an
// in-memory repository. Tests across the service fit on its output, and the
// CLI demo command scores a generated season without a server.
package synthetic

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/domain/zone"
)

// FixtureOptions tunes the synthetic season generator.
type FixtureOptions struct {
	Seed      int64
	Pitches   int
	Season    int
	BatterIDs []int64
	UmpireIDs []int64

	// SwingRate is the probability that any pitch is swung at.
	SwingRate float64

	// UmpireNoise widens the probabilistic edge of the simulated called
	// zone; higher values blur the boundary and lower the alignment score.
	UmpireNoise float64
}

// DefaultFixtureOptions returns a generator configuration large enough to
// clear every fitting threshold.
func DefaultFixtureOptions() FixtureOptions {
	return FixtureOptions{
		Seed:        42,
		Pitches:     2000,
		Season:      2024,
		BatterIDs:   []int64{660271, 605141, 592450, 665742, 543685},
		UmpireIDs:   []int64{427266, 484159, 484520},
		SwingRate:   0.47,
		UmpireNoise: 0.15,
	}
}

// GeneratePitches produces a deterministic synthetic pitch collection with
// realistic location spreads, at-bat sequencing, and a near-rulebook
// simulated umpire. The same options always yield the same records.
func GeneratePitches(opts FixtureOptions) []pitch.Record {
	if opts.Pitches == 0 {
		opts = DefaultFixtureOptions()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	records := make([]pitch.Record, 0, opts.Pitches)
	game := 0
	atBat := 0
	pitchNum := 0
	var batter int64
	var umpire int64
	var side string

	nextAtBat := func() {
		atBat++
		pitchNum = 0
		batter = opts.BatterIDs[rng.Intn(len(opts.BatterIDs))]
		side = "R"
		if rng.Float64() < 0.4 {
			side = "L"
		}
		if atBat%70 == 0 {
			game++
			umpire = opts.UmpireIDs[rng.Intn(len(opts.UmpireIDs))]
		}
		if umpire == 0 {
			umpire = opts.UmpireIDs[rng.Intn(len(opts.UmpireIDs))]
		}
	}
	nextAtBat()

	for len(records) < opts.Pitches {
		pitchNum++

		r := pitch.Record{
			GameID:      fmt.Sprintf("game-%04d", game),
			AtBatNumber: atBat,
			PitchNumber: pitchNum,
			BatterID:    batter,
			UmpireID:    umpire,
			Side:        side,
			Season:      opts.Season,
			PX:          rng.NormFloat64() * 0.5,
			PZ:          2.5 + rng.NormFloat64()*0.6,
			SZTop:       3.5 + rng.NormFloat64()*0.2,
			SZBot:       1.5 + rng.NormFloat64()*0.15,
		}

		if rng.Float64() < opts.SwingRate {
			r.Decision = pitch.DecisionSwing
		} else {
			r.Decision = pitch.DecisionTake
			if rng.Float64() < calledStrikeProb(r, opts.UmpireNoise) {
				r.Call = pitch.CallStrike
			} else {
				r.Call = pitch.CallBall
			}
		}
		records = append(records, r)

		// At-bats run 1..8 pitches with a mean around 4, so a healthy share
		// clears the influence analyzer's qualifying length.
		if pitchNum >= 8 || (pitchNum >= 1 && rng.Float64() < 0.25) {
			nextAtBat()
		}
	}
	return records
}

// calledStrikeProb simulates an umpire who tracks the rulebook zone with a
// soft probabilistic edge.
func calledStrikeProb(r pitch.Record, noise float64) float64 {
	if noise <= 0 {
		noise = 0.05
	}
	half := zone.HalfWidth()
	dx := (math.Abs(r.PX) - half) / noise
	dzTop := (r.PZ - r.SZTop) / noise
	dzBot := (r.SZBot - r.PZ) / noise
	p := logistic(-dx) * logistic(-dzTop) * logistic(-dzBot)
	return 0.02 + 0.96*p
}

func logistic(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
