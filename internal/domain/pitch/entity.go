// Package pitch defines the pitch-level event model shared by every layer of
// the service: the Record entity, decision classification, filtering, and
// at-bat sequence grouping.
package pitch

import (
	"fmt"
	"math"

	"github.com/calledstrike/szas/pkg/errors"
)

// Decision classifies what the batter did with a pitch. Every record carries
// exactly one decision.
type Decision string

const (
	// DecisionTake means the batter did not attempt to hit the pitch. Takes are
	// the only class where the umpire renders a call, and therefore the only
	// class eligible for the called-zone model.
	DecisionTake Decision = "take"

	// DecisionSwing means the batter attempted to hit the pitch. Swings reveal
	// the batter's personal zone and feed the swing-density model.
	DecisionSwing Decision = "swing"
)

// Call is the umpire's ruling on a taken pitch. It is defined only when the
// decision is DecisionTake; swung pitches carry CallNone.
type Call string

const (
	CallNone   Call = ""
	CallStrike Call = "called_strike"
	CallBall   Call = "ball"
)

// Default vertical zone bounds, used when a record arrives without the
// subject's personalized values.
const (
	DefaultSZTop = 3.5
	DefaultSZBot = 1.5
)

// Record is one observed pitch. Plate-crossing coordinates are in feet with
// x = 0 at the center of the plate and z measured from the ground.
type Record struct {
	// GameID and AtBatNumber jointly identify the at-bat sequence the pitch
	// belongs to; PitchNumber orders pitches within it (1-indexed).
	GameID      string `json:"game_id"`
	AtBatNumber int    `json:"at_bat_number"`
	PitchNumber int    `json:"pitch_number"`

	BatterID int64  `json:"batter_id"`
	UmpireID int64  `json:"umpire_id"`
	Side     string `json:"side"` // batting side: "L" or "R"
	Season   int    `json:"season"`

	PX float64 `json:"px"`
	PZ float64 `json:"pz"`

	// Personalized vertical zone bounds for the batter's stance.
	SZTop float64 `json:"sz_top"`
	SZBot float64 `json:"sz_bot"`

	Decision Decision `json:"decision"`
	Call     Call     `json:"call,omitempty"`
}

// IsTake reports whether the pitch was taken.
func (r Record) IsTake() bool { return r.Decision == DecisionTake }

// IsSwing reports whether the batter swung.
func (r Record) IsSwing() bool { return r.Decision == DecisionSwing }

// IsCalledStrike reports whether the pitch was taken and called a strike.
func (r Record) IsCalledStrike() bool { return r.Call == CallStrike }

// Validate checks the record's structural invariants: exactly one decision
// tag, a call present iff the pitch was taken, and finite coordinates.
func (r Record) Validate() error {
	switch r.Decision {
	case DecisionTake:
		if r.Call != CallStrike && r.Call != CallBall {
			return errors.Validation(fmt.Sprintf("take requires a call outcome, got %q", r.Call))
		}
	case DecisionSwing:
		if r.Call != CallNone {
			return errors.Validation(fmt.Sprintf("swing must not carry a call, got %q", r.Call))
		}
	default:
		return errors.Validation(fmt.Sprintf("unknown decision %q", r.Decision))
	}
	if math.IsNaN(r.PX) || math.IsInf(r.PX, 0) || math.IsNaN(r.PZ) || math.IsInf(r.PZ, 0) {
		return errors.Validation("pitch location must be finite")
	}
	if r.Side != "" && r.Side != "L" && r.Side != "R" {
		return errors.Validation(fmt.Sprintf("batting side must be L or R, got %q", r.Side))
	}
	return nil
}

// Clean drops records with missing or non-finite locations and fills absent
// zone bounds with the league defaults, mirroring how raw feeds arrive with
// occasional untracked pitches. The input slice is not modified.
func Clean(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if math.IsNaN(r.PX) || math.IsInf(r.PX, 0) || math.IsNaN(r.PZ) || math.IsInf(r.PZ, 0) {
			continue
		}
		if r.SZTop == 0 || math.IsNaN(r.SZTop) {
			r.SZTop = DefaultSZTop
		}
		if r.SZBot == 0 || math.IsNaN(r.SZBot) {
			r.SZBot = DefaultSZBot
		}
		out = append(out, r)
	}
	return out
}

// AverageZoneBounds returns the mean personalized vertical bounds across
// records, or the league defaults when the slice is empty. Used when a query
// spans multiple subjects and no single stance applies.
func AverageZoneBounds(records []Record) (top, bot float64) {
	if len(records) == 0 {
		return DefaultSZTop, DefaultSZBot
	}
	var st, sb float64
	for _, r := range records {
		st += r.SZTop
		sb += r.SZBot
	}
	n := float64(len(records))
	return st / n, sb / n
}
