package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	base := Record{
		GameID: "g1", AtBatNumber: 1, PitchNumber: 1,
		BatterID: 100, UmpireID: 200, Side: "R", Season: 2024,
		PX: 0.2, PZ: 2.5, SZTop: 3.4, SZBot: 1.6,
	}

	tests := []struct {
		name   string
		mutate func(*Record)
		valid  bool
	}{
		{"take with called strike", func(r *Record) { r.Decision = DecisionTake; r.Call = CallStrike }, true},
		{"take with ball", func(r *Record) { r.Decision = DecisionTake; r.Call = CallBall }, true},
		{"take without call", func(r *Record) { r.Decision = DecisionTake; r.Call = CallNone }, false},
		{"swing without call", func(r *Record) { r.Decision = DecisionSwing }, true},
		{"swing with call", func(r *Record) { r.Decision = DecisionSwing; r.Call = CallStrike }, false},
		{"unknown decision", func(r *Record) { r.Decision = "bunt" }, false},
		{"nan location", func(r *Record) { r.Decision = DecisionSwing; r.PX = math.NaN() }, false},
		{"infinite location", func(r *Record) { r.Decision = DecisionSwing; r.PZ = math.Inf(1) }, false},
		{"bad side", func(r *Record) { r.Decision = DecisionSwing; r.Side = "S" }, false},
		{"empty side allowed", func(r *Record) { r.Decision = DecisionSwing; r.Side = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRecordClassPredicates(t *testing.T) {
	take := Record{Decision: DecisionTake, Call: CallStrike}
	assert.True(t, take.IsTake())
	assert.False(t, take.IsSwing())
	assert.True(t, take.IsCalledStrike())

	ball := Record{Decision: DecisionTake, Call: CallBall}
	assert.False(t, ball.IsCalledStrike())

	swing := Record{Decision: DecisionSwing}
	assert.True(t, swing.IsSwing())
	assert.False(t, swing.IsCalledStrike())
}

func TestCleanDropsUntrackedAndFillsBounds(t *testing.T) {
	in := []Record{
		{PX: 0.1, PZ: 2.0, SZTop: 3.4, SZBot: 1.6},
		{PX: math.NaN(), PZ: 2.0},
		{PX: 0.5, PZ: math.Inf(-1)},
		{PX: -0.3, PZ: 1.8, SZTop: 0, SZBot: 0},
	}

	out := Clean(in)
	require.Len(t, out, 2)

	assert.InDelta(t, 3.4, out[0].SZTop, 1e-9)
	assert.InDelta(t, DefaultSZTop, out[1].SZTop, 1e-9)
	assert.InDelta(t, DefaultSZBot, out[1].SZBot, 1e-9)

	// Input untouched.
	assert.Zero(t, in[3].SZTop)
}

func TestAverageZoneBounds(t *testing.T) {
	top, bot := AverageZoneBounds(nil)
	assert.InDelta(t, DefaultSZTop, top, 1e-9)
	assert.InDelta(t, DefaultSZBot, bot, 1e-9)

	top, bot = AverageZoneBounds([]Record{
		{SZTop: 3.0, SZBot: 1.0},
		{SZTop: 4.0, SZBot: 2.0},
	})
	assert.InDelta(t, 3.5, top, 1e-9)
	assert.InDelta(t, 1.5, bot, 1e-9)
}
