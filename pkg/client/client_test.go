package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithRetryMax(1), WithRetryWait(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	return server, c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)

	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}

func TestScoreRequest(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/score", r.URL.Path)
		assert.Equal(t, "660271", r.URL.Query().Get("batter_id"))
		assert.Equal(t, "2024", r.URL.Query().Get("season"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		json.NewEncoder(w).Encode(map[string]any{
			"szas":           0.74,
			"interpretation": "Good zone conformance.",
			"iou": map[string]float64{
				"fixed_regression": 0.8, "fixed_density": 0.7, "regression_density": 0.75,
			},
		})
	})

	result, err := c.Score(context.Background(), ScoreFilter{BatterID: 660271, Season: 2024})
	require.NoError(t, err)
	assert.InDelta(t, 0.74, result.SZAS, 1e-9)
	assert.InDelta(t, 0.8, result.IoU.FixedRegression, 1e-9)
	assert.NotEmpty(t, result.Interpretation)
}

func TestAPIErrorDecoding(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "DATA_001",
			"message": "insufficient take data",
		})
	})

	_, err := c.Score(context.Background(), ScoreFilter{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "DATA_001", apiErr.Code)
	assert.True(t, apiErr.IsInsufficientData())
	assert.False(t, apiErr.IsNotFound())
}

func TestRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"seasons": []int{2023, 2024}})
	})

	seasons, err := c.Seasons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2024}, seasons)
	assert.EqualValues(t, 2, calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"code": "DATA_002", "message": "bad side"})
	})

	_, err := c.Preview(context.Background(), ScoreFilter{Side: "X"})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestInfluenceBatchPostsBody(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/influence/batch", r.URL.Path)

		var req BatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int64{1, 2}, req.BatterIDs)

		json.NewEncoder(w).Encode(InfluenceAggregate{Succeeded: 2})
	})

	agg, err := c.InfluenceBatch(context.Background(), BatchRequest{BatterIDs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Succeeded)
}

func TestRequestImport(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2024, body["season"])
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"event_id": "evt-1"})
	})

	eventID, err := c.RequestImport(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", eventID)
}

func TestUploadSnapshot(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/imports/snapshots/2024", r.URL.Path)
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "game_id,at_bat_number\n", string(body))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"season": 2024, "key": "seasons/2024/pitches.csv", "size": 22,
		})
	})

	info, err := c.UploadSnapshot(context.Background(), 2024, []byte("game_id,at_bat_number\n"))
	require.NoError(t, err)
	assert.Equal(t, 2024, info.Season)
	assert.Equal(t, "seasons/2024/pitches.csv", info.Key)
}

func TestBattersListDecoding(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]any{
			"batters": []BatterInfo{{BatterID: 660271, PitchCount: 900}},
		})
	})

	batters, err := c.Batters(context.Background(), 2024, 5)
	require.NoError(t, err)
	require.Len(t, batters, 1)
	assert.EqualValues(t, 660271, batters[0].BatterID)
}
