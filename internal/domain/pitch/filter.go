package pitch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/calledstrike/szas/pkg/errors"
)

// Minimum sample sizes for the two model classes. A called-zone fit below
// MinTakes or a swing-density fit below MinSwings is refused outright rather
// than silently degraded.
const (
	MinTakes  = 100
	MinSwings = 200
)

// Filter narrows a pitch collection to a subject, season, and batting side.
// Zero values mean "no constraint".
type Filter struct {
	BatterID int64  `json:"batter_id,omitempty"`
	UmpireID int64  `json:"umpire_id,omitempty"`
	Season   int    `json:"season,omitempty"`
	Side     string `json:"side,omitempty"`
}

// Validate checks the filter's own domain before it touches any data.
func (f Filter) Validate() error {
	if f.Side != "" && f.Side != "L" && f.Side != "R" {
		return errors.InvalidFilter(fmt.Sprintf("batting side must be L or R, got %q", f.Side))
	}
	if f.BatterID < 0 || f.UmpireID < 0 {
		return errors.InvalidFilter("subject ids must be non-negative")
	}
	if f.Season != 0 && (f.Season < 2015 || f.Season > 2100) {
		return errors.InvalidFilter(fmt.Sprintf("season %d is outside the tracked range", f.Season))
	}
	return nil
}

// CacheKey returns a canonical string form of the filter, stable across
// equivalent filters, for use as a result-cache key segment.
func (f Filter) CacheKey() string {
	parts := []string{
		fmt.Sprintf("b=%d", f.BatterID),
		fmt.Sprintf("u=%d", f.UmpireID),
		fmt.Sprintf("s=%d", f.Season),
		"h=" + f.Side,
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// Apply returns the subset of records matching the filter. When a batter
// filter matches records but the additional side filter matches none of that
// batter's recorded sides, Apply reports an InvalidFilter error instead of an
// empty result, so callers can distinguish a contradictory request from a
// genuinely sparse one.
func (f Filter) Apply(records []Record) ([]Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	subject := records
	if f.BatterID != 0 || f.UmpireID != 0 || f.Season != 0 {
		subject = subject[:0:0]
		for _, r := range records {
			if f.BatterID != 0 && r.BatterID != f.BatterID {
				continue
			}
			if f.UmpireID != 0 && r.UmpireID != f.UmpireID {
				continue
			}
			if f.Season != 0 && r.Season != f.Season {
				continue
			}
			subject = append(subject, r)
		}
	}

	if f.Side == "" {
		return subject, nil
	}

	out := make([]Record, 0, len(subject))
	for _, r := range subject {
		if r.Side == f.Side {
			out = append(out, r)
		}
	}
	if f.BatterID != 0 && len(subject) > 0 && len(out) == 0 {
		return nil, errors.InvalidFilter(fmt.Sprintf(
			"batter %d has no recorded pitches batting %s", f.BatterID, f.Side))
	}
	return out, nil
}

// Classes holds the two decision-class subsets a pitch collection splits
// into.
type Classes struct {
	Takes  []Record
	Swings []Record
}

// Total returns the combined record count across both classes.
func (c Classes) Total() int { return len(c.Takes) + len(c.Swings) }

// Split partitions records by decision tag. It never fails; callers that
// need fitting-grade sample sizes follow with EnsureFitSamples.
func Split(records []Record) Classes {
	var c Classes
	for _, r := range records {
		switch r.Decision {
		case DecisionTake:
			c.Takes = append(c.Takes, r)
		case DecisionSwing:
			c.Swings = append(c.Swings, r)
		}
	}
	return c
}

// EnsureFitSamples verifies both classes meet their model-fitting minimums,
// returning an InsufficientData error naming the thin class otherwise.
func (c Classes) EnsureFitSamples() error {
	if len(c.Takes) < MinTakes {
		return errors.InsufficientData("take", len(c.Takes), MinTakes)
	}
	if len(c.Swings) < MinSwings {
		return errors.InsufficientData("swing", len(c.Swings), MinSwings)
	}
	return nil
}
