package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calledstrike/szas/pkg/errors"
)

func sampleRecords() []Record {
	return []Record{
		{GameID: "g1", BatterID: 1, UmpireID: 10, Season: 2023, Side: "R", Decision: DecisionTake, Call: CallStrike},
		{GameID: "g1", BatterID: 1, UmpireID: 10, Season: 2024, Side: "R", Decision: DecisionSwing},
		{GameID: "g2", BatterID: 2, UmpireID: 10, Season: 2024, Side: "L", Decision: DecisionTake, Call: CallBall},
		{GameID: "g2", BatterID: 2, UmpireID: 11, Season: 2024, Side: "L", Decision: DecisionSwing},
	}
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{BatterID: 1, Season: 2024, Side: "L"}.Validate())

	assert.Error(t, Filter{Side: "X"}.Validate())
	assert.Error(t, Filter{BatterID: -1}.Validate())
	assert.Error(t, Filter{Season: 1999}.Validate())
	assert.Error(t, Filter{Season: 2200}.Validate())
}

func TestFilterApply(t *testing.T) {
	records := sampleRecords()

	all, err := Filter{}.Apply(records)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	batter, err := Filter{BatterID: 1}.Apply(records)
	require.NoError(t, err)
	assert.Len(t, batter, 2)

	seasonUmpire, err := Filter{UmpireID: 10, Season: 2024}.Apply(records)
	require.NoError(t, err)
	assert.Len(t, seasonUmpire, 2)

	side, err := Filter{Side: "L"}.Apply(records)
	require.NoError(t, err)
	assert.Len(t, side, 2)
}

func TestFilterApplyContradictorySide(t *testing.T) {
	// Batter 1 only bats right; asking for their left-handed pitches is a
	// contradictory request, not a sparse one.
	_, err := Filter{BatterID: 1, Side: "L"}.Apply(sampleRecords())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidFilter, errors.GetCode(err))
}

func TestFilterCacheKeyStable(t *testing.T) {
	a := Filter{BatterID: 1, UmpireID: 2, Season: 2024, Side: "L"}
	b := Filter{Side: "L", Season: 2024, UmpireID: 2, BatterID: 1}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), Filter{BatterID: 1}.CacheKey())
}

func TestSplitAndEnsureFitSamples(t *testing.T) {
	records := make([]Record, 0, MinTakes+MinSwings)
	for i := 0; i < MinTakes; i++ {
		records = append(records, Record{Decision: DecisionTake, Call: CallStrike})
	}
	for i := 0; i < MinSwings; i++ {
		records = append(records, Record{Decision: DecisionSwing})
	}

	c := Split(records)
	assert.Len(t, c.Takes, MinTakes)
	assert.Len(t, c.Swings, MinSwings)
	assert.Equal(t, MinTakes+MinSwings, c.Total())
	assert.NoError(t, c.EnsureFitSamples())

	thin := Split(records[1:])
	err := thin.EnsureFitSamples()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInsufficientData, errors.GetCode(err))
}
