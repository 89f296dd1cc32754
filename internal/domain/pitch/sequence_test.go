package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atBat(gameID string, atBat int, decisions ...Decision) []Record {
	out := make([]Record, 0, len(decisions))
	for i, d := range decisions {
		r := Record{GameID: gameID, AtBatNumber: atBat, PitchNumber: i + 1, Decision: d}
		if d == DecisionTake {
			r.Call = CallBall
		}
		out = append(out, r)
	}
	return out
}

func TestGroupSequencesOrdersAndSorts(t *testing.T) {
	// Shuffle pitch order within the at-bat on purpose.
	records := []Record{
		{GameID: "g2", AtBatNumber: 1, PitchNumber: 1, Decision: DecisionSwing},
		{GameID: "g1", AtBatNumber: 2, PitchNumber: 2, Decision: DecisionSwing},
		{GameID: "g1", AtBatNumber: 2, PitchNumber: 1, Decision: DecisionTake, Call: CallBall},
		{GameID: "g1", AtBatNumber: 1, PitchNumber: 1, Decision: DecisionSwing},
	}

	seqs := GroupSequences(records)
	require.Len(t, seqs, 3)

	assert.Equal(t, SequenceKey{GameID: "g1", AtBatNumber: 1}, seqs[0].Key)
	assert.Equal(t, SequenceKey{GameID: "g1", AtBatNumber: 2}, seqs[1].Key)
	assert.Equal(t, SequenceKey{GameID: "g2", AtBatNumber: 1}, seqs[2].Key)

	assert.Equal(t, 1, seqs[1].Pitches[0].PitchNumber)
	assert.Equal(t, 2, seqs[1].Pitches[1].PitchNumber)
}

func TestQualifyingSequences(t *testing.T) {
	records := append(
		atBat("g1", 1, DecisionSwing, DecisionTake, DecisionSwing, DecisionTake),
		atBat("g1", 2, DecisionSwing, DecisionTake)...,
	)

	seqs := QualifyingSequences(records)
	require.Len(t, seqs, 1)
	assert.Equal(t, 1, seqs[0].Key.AtBatNumber)
	assert.True(t, seqs[0].Qualifies())
}

func TestPriorSwingRates(t *testing.T) {
	seq := Sequence{Pitches: atBat("g1", 1,
		DecisionSwing, DecisionSwing, DecisionTake, DecisionTake)}

	rates := seq.PriorSwingRates()
	require.Len(t, rates, 4)

	// First pitch has no history: uninformative prior.
	assert.InDelta(t, 0.5, rates[0], 1e-9)
	// After one swing in one pitch.
	assert.InDelta(t, 1.0, rates[1], 1e-9)
	// After two swings in two pitches.
	assert.InDelta(t, 1.0, rates[2], 1e-9)
	// After two swings and one take in three pitches.
	assert.InDelta(t, 2.0/3.0, rates[3], 1e-9)
}

func TestSequenceKeyString(t *testing.T) {
	k := SequenceKey{GameID: "2024-06-01-NYA", AtBatNumber: 17}
	assert.Equal(t, "2024-06-01-NYA_17", k.String())
}
