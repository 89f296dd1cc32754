package synthetic

import (
	"context"
	"sort"
	"sync"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/pkg/errors"
)

// MemoryRepository is an in-memory pitch.Repository over a record slice.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []pitch.Record

	// LoadErr, when set, is returned by every read method.
	LoadErr error
}

var _ pitch.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository seeds a repository with records.
func NewMemoryRepository(records ...[]pitch.Record) *MemoryRepository {
	r := &MemoryRepository{}
	for _, batch := range records {
		r.records = append(r.records, batch...)
	}
	return r
}

func (m *MemoryRepository) matches(r pitch.Record, f pitch.Filter) bool {
	if f.BatterID != 0 && r.BatterID != f.BatterID {
		return false
	}
	if f.UmpireID != 0 && r.UmpireID != f.UmpireID {
		return false
	}
	if f.Season != 0 && r.Season != f.Season {
		return false
	}
	return true
}

func (m *MemoryRepository) LoadPitches(ctx context.Context, f pitch.Filter) ([]pitch.Record, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []pitch.Record
	for _, r := range m.records {
		if m.matches(r, f) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryRepository) CountPitches(ctx context.Context, f pitch.Filter) (int, error) {
	if m.LoadErr != nil {
		return 0, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.records {
		if m.matches(r, f) && (f.Side == "" || r.Side == f.Side) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) InsertPitches(ctx context.Context, records []pitch.Record) error {
	if m.LoadErr != nil {
		return m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *MemoryRepository) ListBatters(ctx context.Context, season, limit int) ([]pitch.BatterInfo, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type acc struct {
		count int
		sides map[string]bool
		abLen map[string]int
	}
	byID := make(map[int64]*acc)
	for _, r := range m.records {
		if season != 0 && r.Season != season {
			continue
		}
		a := byID[r.BatterID]
		if a == nil {
			a = &acc{sides: map[string]bool{}, abLen: map[string]int{}}
			byID[r.BatterID] = a
		}
		a.count++
		a.sides[r.Side] = true
		key := pitch.SequenceKey{GameID: r.GameID, AtBatNumber: r.AtBatNumber}.String()
		a.abLen[key]++
	}

	out := make([]pitch.BatterInfo, 0, len(byID))
	for id, a := range byID {
		info := pitch.BatterInfo{BatterID: id, PitchCount: a.count}
		for s := range a.sides {
			info.Sides = append(info.Sides, s)
		}
		sort.Strings(info.Sides)
		info.SwitchesBat = len(info.Sides) > 1
		for _, n := range a.abLen {
			if n >= pitch.MinSequencePitches {
				info.LongAtBats++
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PitchCount != out[j].PitchCount {
			return out[i].PitchCount > out[j].PitchCount
		}
		return out[i].BatterID < out[j].BatterID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) ListUmpires(ctx context.Context, season, limit int) ([]pitch.UmpireInfo, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[int64]int)
	for _, r := range m.records {
		if season != 0 && r.Season != season {
			continue
		}
		counts[r.UmpireID]++
	}
	out := make([]pitch.UmpireInfo, 0, len(counts))
	for id, n := range counts {
		out = append(out, pitch.UmpireInfo{UmpireID: id, PitchCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PitchCount != out[j].PitchCount {
			return out[i].PitchCount > out[j].PitchCount
		}
		return out[i].UmpireID < out[j].UmpireID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Summary(ctx context.Context, season int) (pitch.SeasonSummary, error) {
	if m.LoadErr != nil {
		return pitch.SeasonSummary{}, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := pitch.SeasonSummary{Season: season}
	batters := make(map[int64]bool)
	umpires := make(map[int64]bool)
	for _, r := range m.records {
		if season != 0 && r.Season != season {
			continue
		}
		sum.TotalPitches++
		batters[r.BatterID] = true
		umpires[r.UmpireID] = true
		switch {
		case r.IsSwing():
			sum.Swings++
		case r.IsTake():
			sum.Takes++
			if r.IsCalledStrike() {
				sum.CalledStrikes++
			} else {
				sum.Balls++
			}
		}
	}
	if sum.TotalPitches == 0 {
		return pitch.SeasonSummary{}, errors.Newf(errors.ErrCodeDatasetMissing,
			"no pitch archive for season %d", season)
	}
	sum.Batters = len(batters)
	sum.Umpires = len(umpires)
	return sum, nil
}

func (m *MemoryRepository) Seasons(ctx context.Context) ([]int, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[int]bool)
	for _, r := range m.records {
		set[r.Season] = true
	}
	out := make([]int, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Ints(out)
	return out, nil
}
