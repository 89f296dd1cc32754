package pitch

import "context"

// BatterInfo summarizes one batter's footprint in the archive, including the
// long-at-bat count that determines influence-analysis readiness.
type BatterInfo struct {
	BatterID    int64    `json:"batter_id"`
	Sides       []string `json:"sides"`
	PitchCount  int      `json:"pitch_count"`
	LongAtBats  int      `json:"long_at_bats"`
	SwitchesBat bool     `json:"switch_hitter"`
}

// UmpireInfo summarizes one umpire's footprint in the archive.
type UmpireInfo struct {
	UmpireID   int64 `json:"umpire_id"`
	PitchCount int   `json:"pitch_count"`
}

// SeasonSummary aggregates archive-level statistics for one season.
type SeasonSummary struct {
	Season        int `json:"season"`
	TotalPitches  int `json:"total_pitches"`
	Takes         int `json:"takes"`
	Swings        int `json:"swings"`
	CalledStrikes int `json:"called_strikes"`
	Balls         int `json:"balls"`
	Batters       int `json:"batters"`
	Umpires       int `json:"umpires"`
}

// Repository is the read/write contract for the pitch archive. The scoring
// and influence pipelines only ever see fully-loaded record slices; all
// persistence concerns stay behind this interface.
type Repository interface {
	// LoadPitches returns the records matching the filter's subject and
	// season constraints. The batting-side constraint is left to
	// Filter.Apply so a side the subject never recorded surfaces as an
	// InvalidFilter instead of an empty result.
	LoadPitches(ctx context.Context, f Filter) ([]Record, error)

	// CountPitches returns how many records match the filter without
	// materializing them; used by the pitch-count preview operation.
	CountPitches(ctx context.Context, f Filter) (int, error)

	// InsertPitches appends records for a season. Implementations replace
	// any prior rows for the same (game, at-bat, pitch) key.
	InsertPitches(ctx context.Context, records []Record) error

	// ListBatters returns batters ordered by descending pitch count.
	ListBatters(ctx context.Context, season, limit int) ([]BatterInfo, error)

	// ListUmpires returns umpires ordered by descending pitch count.
	ListUmpires(ctx context.Context, season, limit int) ([]UmpireInfo, error)

	// Summary aggregates one season's archive statistics.
	Summary(ctx context.Context, season int) (SeasonSummary, error)

	// Seasons lists the seasons present in the archive, ascending.
	Seasons(ctx context.Context) ([]int, error)
}
