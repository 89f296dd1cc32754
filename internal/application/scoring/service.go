// Package scoring provides the application-level service computing the
// strike zone alignment score: three zone models fit from one filtered pitch
// collection, compared pairwise on a shared grid and combined with an
// influence-bias term into a single score.
package scoring

import (
	"context"
	"time"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/domain/zone"
	"github.com/calledstrike/szas/internal/infrastructure/database/redis"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/internal/intelligence/surface"
)

// Service defines the scoring application operations.
type Service interface {
	// Score computes the alignment score for one filtered pitch collection.
	Score(ctx context.Context, input *Input) (*Result, error)

	// Surfaces returns the three rasterized zone surfaces plus the shared
	// grid and zone bounds, for rendering.
	Surfaces(ctx context.Context, input *Input) (*SurfacesResult, error)
}

// Input narrows the pitch collection the score is computed over.
type Input struct {
	BatterID int64  `json:"batter_id,omitempty"`
	UmpireID int64  `json:"umpire_id,omitempty"`
	Season   int    `json:"season,omitempty"`
	Side     string `json:"side,omitempty"`
}

func (in *Input) filter() pitch.Filter {
	return pitch.Filter{
		BatterID: in.BatterID,
		UmpireID: in.UmpireID,
		Season:   in.Season,
		Side:     in.Side,
	}
}

// IoUSet holds the three pairwise overlaps.
type IoUSet struct {
	FixedRegression   float64 `json:"fixed_regression"`
	FixedDensity      float64 `json:"fixed_density"`
	RegressionDensity float64 `json:"regression_density"`
}

// Mean returns the average of the three overlaps.
func (s IoUSet) Mean() float64 {
	return (s.FixedRegression + s.FixedDensity + s.RegressionDensity) / 3
}

// DivergenceSet holds the mean-absolute-difference comparisons against the
// fixed rulebook surface.
type DivergenceSet struct {
	Regression float64 `json:"regression"`
	Density    float64 `json:"density"`
}

// CentroidSet holds the mass-weighted centroid of each surface. A nil entry
// means the surface carried zero mass and its centroid is undefined.
type CentroidSet struct {
	Fixed      *surface.Centroid `json:"fixed,omitempty"`
	Regression *surface.Centroid `json:"regression,omitempty"`
	Density    *surface.Centroid `json:"density,omitempty"`
}

// SampleStats reports the input sizes behind a score.
type SampleStats struct {
	TotalPitches  int `json:"total_pitches"`
	Takes         int `json:"takes"`
	Swings        int `json:"swings"`
	CalledStrikes int `json:"called_strikes"`
	Balls         int `json:"balls"`
}

// BiasReport is the influence-bias term of the composite score.
type BiasReport struct {
	// Value is the bias applied to the score: 0 when the confound
	// coefficient is not significant, else its magnitude clipped to [0,1].
	Value       float64 `json:"value"`
	Coefficient float64 `json:"coefficient"`
	ZScore      float64 `json:"z_score"`
	Significant bool    `json:"significant"`
}

// Result is the full alignment-score report.
type Result struct {
	SZAS           float64       `json:"szas"`
	IoU            IoUSet        `json:"iou"`
	Divergence     DivergenceSet `json:"divergence"`
	Centroids      CentroidSet   `json:"centroids"`
	Bias           BiasReport    `json:"bias"`
	Bounds         zone.Bounds   `json:"zone_bounds"`
	Samples        SampleStats   `json:"data_stats"`
	Interpretation string        `json:"interpretation"`
}

// PitchPoint is one plotted pitch location.
type PitchPoint struct {
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Strike bool    `json:"strike,omitempty"`
}

// SurfacesResult carries the rendering payload for the three zones.
type SurfacesResult struct {
	Grid   *surface.Grid `json:"grid"`
	Bounds zone.Bounds   `json:"zone_bounds"`

	Fixed      [][]float64 `json:"fixed_zone"`
	Regression [][]float64 `json:"regression_zone"`
	Density    [][]float64 `json:"density_zone"`

	Takes  []PitchPoint `json:"takes"`
	Swings []PitchPoint `json:"swings"`
}

const (
	scoreCachePrefix    = "score:"
	surfacesCachePrefix = "surfaces:"
	resultTTL           = 15 * time.Minute
)

type serviceImpl struct {
	repo   pitch.Repository
	cache  redis.Cache
	logger logging.Logger
}

// NewService creates the scoring service. cache may be nil, in which case
// every request recomputes.
func NewService(repo pitch.Repository, cache redis.Cache, logger logging.Logger) Service {
	return &serviceImpl{repo: repo, cache: cache, logger: logger}
}

func (s *serviceImpl) Score(ctx context.Context, input *Input) (*Result, error) {
	f := input.filter()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached Result
		err := s.cache.GetOrSet(ctx, scoreCachePrefix+f.CacheKey(), &cached, resultTTL,
			func(ctx context.Context) (interface{}, error) {
				return s.computeScore(ctx, f)
			})
		if err != nil {
			return nil, err
		}
		return &cached, nil
	}
	return s.computeScore(ctx, f)
}

func (s *serviceImpl) computeScore(ctx context.Context, f pitch.Filter) (*Result, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := ComputeScore(records)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Computed alignment score",
		logging.String("filter", f.CacheKey()),
		logging.Float64("szas", result.SZAS),
		logging.Int("pitches", result.Samples.TotalPitches),
		logging.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (s *serviceImpl) Surfaces(ctx context.Context, input *Input) (*SurfacesResult, error) {
	f := input.filter()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached SurfacesResult
		err := s.cache.GetOrSet(ctx, surfacesCachePrefix+f.CacheKey(), &cached, resultTTL,
			func(ctx context.Context) (interface{}, error) {
				return s.computeSurfaces(ctx, f)
			})
		if err != nil {
			return nil, err
		}
		return &cached, nil
	}
	return s.computeSurfaces(ctx, f)
}

func (s *serviceImpl) computeSurfaces(ctx context.Context, f pitch.Filter) (*SurfacesResult, error) {
	records, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	return ComputeSurfaces(records)
}

// load fetches and cleans the filtered pitch collection. The in-memory
// filter pass catches contradictions the repository query cannot express,
// such as a side the subject never batted from.
func (s *serviceImpl) load(ctx context.Context, f pitch.Filter) ([]pitch.Record, error) {
	records, err := s.repo.LoadPitches(ctx, f)
	if err != nil {
		return nil, err
	}
	records, err = f.Apply(records)
	if err != nil {
		return nil, err
	}
	return pitch.Clean(records), nil
}
