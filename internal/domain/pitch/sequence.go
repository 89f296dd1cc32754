package pitch

import (
	"fmt"
	"sort"
)

// MinSequencePitches is the qualifying length for an at-bat sequence in the
// influence analysis: shorter at-bats give the umpire too little observed
// behavior to plausibly react to.
const MinSequencePitches = 4

// SequenceKey identifies one at-bat within one game.
type SequenceKey struct {
	GameID      string
	AtBatNumber int
}

func (k SequenceKey) String() string {
	return fmt.Sprintf("%s_%d", k.GameID, k.AtBatNumber)
}

// Sequence is the ordered pitch list of a single at-bat.
type Sequence struct {
	Key     SequenceKey
	Pitches []Record // ordered by PitchNumber ascending
}

// Qualifies reports whether the sequence is long enough to analyze.
func (s Sequence) Qualifies() bool { return len(s.Pitches) >= MinSequencePitches }

// PriorSwingRates returns, for each pitch k (0-indexed), the batter's
// cumulative swing rate over pitches 1..k of the at-bat: what the umpire has
// observed before ruling on pitch k+1. The first pitch has no history and is
// assigned the uninformative prior 0.5.
func (s Sequence) PriorSwingRates() []float64 {
	rates := make([]float64, len(s.Pitches))
	swings := 0
	for i := range s.Pitches {
		if i == 0 {
			rates[i] = 0.5
		} else {
			rates[i] = float64(swings) / float64(i)
		}
		if s.Pitches[i].IsSwing() {
			swings++
		}
	}
	return rates
}

// GroupSequences partitions records into at-bat sequences ordered by pitch
// number. The returned slice is sorted by key for deterministic iteration.
func GroupSequences(records []Record) []Sequence {
	byKey := make(map[SequenceKey][]Record)
	for _, r := range records {
		k := SequenceKey{GameID: r.GameID, AtBatNumber: r.AtBatNumber}
		byKey[k] = append(byKey[k], r)
	}

	out := make([]Sequence, 0, len(byKey))
	for k, pitches := range byKey {
		sort.Slice(pitches, func(i, j int) bool {
			return pitches[i].PitchNumber < pitches[j].PitchNumber
		})
		out = append(out, Sequence{Key: k, Pitches: pitches})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.GameID != out[j].Key.GameID {
			return out[i].Key.GameID < out[j].Key.GameID
		}
		return out[i].Key.AtBatNumber < out[j].Key.AtBatNumber
	})
	return out
}

// QualifyingSequences returns only sequences with at least
// MinSequencePitches pitches.
func QualifyingSequences(records []Record) []Sequence {
	all := GroupSequences(records)
	out := all[:0]
	for _, s := range all {
		if s.Qualifies() {
			out = append(out, s)
		}
	}
	return out
}
