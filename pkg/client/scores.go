package client

import (
	"context"
	"net/url"
	"strconv"
)

// ScoreFilter narrows the pitch collection a score is computed over.
type ScoreFilter struct {
	BatterID int64
	UmpireID int64
	Season   int
	Side     string
}

func (f ScoreFilter) query() url.Values {
	q := url.Values{}
	if f.BatterID != 0 {
		q.Set("batter_id", strconv.FormatInt(f.BatterID, 10))
	}
	if f.UmpireID != 0 {
		q.Set("umpire_id", strconv.FormatInt(f.UmpireID, 10))
	}
	if f.Season != 0 {
		q.Set("season", strconv.Itoa(f.Season))
	}
	if f.Side != "" {
		q.Set("side", f.Side)
	}
	return q
}

// Centroid is a mass-weighted surface center.
type Centroid struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// ZoneBounds is a rectangular zone outline.
type ZoneBounds struct {
	HalfWidth float64 `json:"half_width"`
	Top       float64 `json:"sz_top"`
	Bot       float64 `json:"sz_bot"`
}

// ScoreResult is the full alignment score payload.
type ScoreResult struct {
	SZAS float64 `json:"szas"`
	IoU  struct {
		FixedRegression   float64 `json:"fixed_regression"`
		FixedDensity      float64 `json:"fixed_density"`
		RegressionDensity float64 `json:"regression_density"`
	} `json:"iou"`
	Divergence struct {
		Regression float64 `json:"regression"`
		Density    float64 `json:"density"`
	} `json:"divergence"`
	Centroids struct {
		Fixed      *Centroid `json:"fixed,omitempty"`
		Regression *Centroid `json:"regression,omitempty"`
		Density    *Centroid `json:"density,omitempty"`
	} `json:"centroids"`
	Bias struct {
		Value       float64 `json:"value"`
		Coefficient float64 `json:"coefficient"`
		ZScore      float64 `json:"z_score"`
		Significant bool    `json:"significant"`
	} `json:"bias"`
	Bounds ZoneBounds `json:"zone_bounds"`
	Stats  struct {
		TotalPitches  int `json:"total_pitches"`
		Takes         int `json:"takes"`
		Swings        int `json:"swings"`
		CalledStrikes int `json:"called_strikes"`
		Balls         int `json:"balls"`
	} `json:"data_stats"`
	Interpretation string `json:"interpretation"`
}

// PitchPoint is one plotted pitch location.
type PitchPoint struct {
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Strike bool    `json:"strike,omitempty"`
}

// SurfacesResult carries the rendering payload for the three zone surfaces.
type SurfacesResult struct {
	Grid struct {
		Xs []float64 `json:"xs"`
		Zs []float64 `json:"zs"`
	} `json:"grid"`
	Bounds     ZoneBounds   `json:"zone_bounds"`
	Fixed      [][]float64  `json:"fixed_zone"`
	Regression [][]float64  `json:"regression_zone"`
	Density    [][]float64  `json:"density_zone"`
	Takes      []PitchPoint `json:"takes"`
	Swings     []PitchPoint `json:"swings"`
}

// Score computes the alignment score for a filtered pitch collection.
func (c *Client) Score(ctx context.Context, f ScoreFilter) (*ScoreResult, error) {
	var result ScoreResult
	if err := c.get(ctx, "/api/v1/score", f.query(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Surfaces fetches the three rasterized zone surfaces for rendering.
func (c *Client) Surfaces(ctx context.Context, f ScoreFilter) (*SurfacesResult, error) {
	var result SurfacesResult
	if err := c.get(ctx, "/api/v1/score/surfaces", f.query(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
