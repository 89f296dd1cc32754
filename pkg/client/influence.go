package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// InfluenceResult is one subject's swing-influence regression outcome.
type InfluenceResult struct {
	SubjectID           int64   `json:"subject_id"`
	QualifyingSequences int     `json:"qualifying_sequences"`
	TakesAnalyzed       int     `json:"takes_analyzed"`
	Coefficient         float64 `json:"coefficient"`
	OddsRatio           float64 `json:"odds_ratio"`
	ZScore              float64 `json:"z_score"`
	OverallSwingRate    float64 `json:"overall_swing_rate"`
	Freeswinger         bool    `json:"freeswinger"`
	Patient             bool    `json:"patient"`
}

// InfluenceFailure records a subject whose analysis did not produce a fit.
type InfluenceFailure struct {
	SubjectID int64  `json:"subject_id"`
	Reason    string `json:"reason"`
}

// InfluenceAggregate summarizes a batch analysis.
type InfluenceAggregate struct {
	Results         []*InfluenceResult `json:"results"`
	Failures        []InfluenceFailure `json:"failures"`
	Succeeded       int                `json:"succeeded"`
	Failed          int                `json:"failed"`
	MeanCoefficient float64            `json:"mean_coefficient"`
	CoefficientStd  float64            `json:"coefficient_std"`
	MeanOddsRatio   float64            `json:"mean_odds_ratio"`
	Freeswingers    int                `json:"freeswingers"`
	PatientBatters  int                `json:"patient_batters"`
}

// BatchRequest selects the subjects for an aggregate influence analysis.
type BatchRequest struct {
	BatterIDs []int64 `json:"batter_ids,omitempty"`
	TopN      int     `json:"top_n,omitempty"`
	Season    int     `json:"season,omitempty"`
}

// Influence runs the influence regression for one batter.
func (c *Client) Influence(ctx context.Context, batterID int64, season int) (*InfluenceResult, error) {
	q := url.Values{}
	if season != 0 {
		q.Set("season", strconv.Itoa(season))
	}
	var result InfluenceResult
	path := fmt.Sprintf("/api/v1/influence/%d", batterID)
	if err := c.get(ctx, path, q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InfluenceBatch analyzes a set of subjects and aggregates the outcomes.
func (c *Client) InfluenceBatch(ctx context.Context, req BatchRequest) (*InfluenceAggregate, error) {
	var result InfluenceAggregate
	if err := c.do(ctx, "POST", "/api/v1/influence/batch", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
