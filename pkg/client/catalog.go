package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// BatterInfo summarizes one batter's footprint in the archive.
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

// SeasonSummary aggregates archive statistics for one season.
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

// SnapshotInfo describes one stored season snapshot.
type SnapshotInfo struct {
	Season     int       `json:"season"`
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func catalogQuery(season, limit int) url.Values {
	q := url.Values{}
	if season != 0 {
		q.Set("season", strconv.Itoa(season))
	}
	if limit != 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// Batters lists batters ordered by pitch count.
func (c *Client) Batters(ctx context.Context, season, limit int) ([]BatterInfo, error) {
	var resp struct {
		Batters []BatterInfo `json:"batters"`
	}
	if err := c.get(ctx, "/api/v1/catalog/batters", catalogQuery(season, limit), &resp); err != nil {
		return nil, err
	}
	return resp.Batters, nil
}

// Umpires lists umpires ordered by pitch count.
func (c *Client) Umpires(ctx context.Context, season, limit int) ([]UmpireInfo, error) {
	var resp struct {
		Umpires []UmpireInfo `json:"umpires"`
	}
	if err := c.get(ctx, "/api/v1/catalog/umpires", catalogQuery(season, limit), &resp); err != nil {
		return nil, err
	}
	return resp.Umpires, nil
}

// Summary fetches one season's archive statistics.
func (c *Client) Summary(ctx context.Context, season int) (*SeasonSummary, error) {
	var summary SeasonSummary
	if err := c.get(ctx, "/api/v1/catalog/summary", catalogQuery(season, 0), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Seasons lists the seasons present in the archive.
func (c *Client) Seasons(ctx context.Context) ([]int, error) {
	var resp struct {
		Seasons []int `json:"seasons"`
	}
	if err := c.get(ctx, "/api/v1/catalog/seasons", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Seasons, nil
}

// Preview reports how many pitches a filter would select.
func (c *Client) Preview(ctx context.Context, f ScoreFilter) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "/api/v1/catalog/preview", f.query(), &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Snapshots lists the stored season snapshots.
func (c *Client) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	var resp struct {
		Snapshots []SnapshotInfo `json:"snapshots"`
	}
	if err := c.get(ctx, "/api/v1/imports/snapshots", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Snapshots, nil
}

// UploadSnapshot stores a CSV season snapshot on the server. The body is sent
// raw and is not retried.
func (c *Client) UploadSnapshot(ctx context.Context, season int, data []byte) (*SnapshotInfo, error) {
	fullURL := fmt.Sprintf("%s/api/v1/imports/snapshots/%d", c.baseURL, season)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("client: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, c.apiError(resp, respBody)
	}

	var info SnapshotInfo
	if err := json.Unmarshal(respBody, &info); err != nil {
		return nil, fmt.Errorf("client: failed to decode response: %w", err)
	}
	return &info, nil
}

// RequestImport asks the server to import a stored season snapshot. It
// returns the id of the published import event.
func (c *Client) RequestImport(ctx context.Context, season int) (string, error) {
	var resp struct {
		EventID string `json:"event_id"`
	}
	body := map[string]int{"season": season}
	if err := c.do(ctx, "POST", "/api/v1/imports", body, &resp); err != nil {
		return "", err
	}
	return resp.EventID, nil
}
