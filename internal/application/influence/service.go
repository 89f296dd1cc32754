// Package influence provides the application-level service for the
// sequential influence analysis: per-subject fits and the parallel
// aggregate mode over many subjects.
package influence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/infrastructure/database/redis"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	intel "github.com/calledstrike/szas/internal/intelligence/influence"
	"github.com/calledstrike/szas/pkg/errors"
)

const (
	// MaxBatchSubjects bounds one aggregate request; larger rankings should
	// be paged by the caller.
	MaxBatchSubjects = 50

	// batchWorkers bounds the per-subject fits running concurrently. Each
	// fit is CPU-bound, so a small fixed pool keeps the box responsive.
	batchWorkers = 4

	cachePrefix = "influence:"
	resultTTL   = 15 * time.Minute
)

// Service defines the influence application operations.
type Service interface {
	// Analyze runs the influence regression for one subject.
	Analyze(ctx context.Context, input *Input) (*intel.Result, error)

	// AnalyzeBatch analyzes explicit subjects, or the top-N subjects by
	// pitch count when none are named, and aggregates the outcomes.
	AnalyzeBatch(ctx context.Context, input *BatchInput) (*intel.AggregateResult, error)
}

// Input selects one subject's records.
type Input struct {
	BatterID int64 `json:"batter_id"`
	Season   int   `json:"season,omitempty"`
}

// BatchInput selects a set of subjects for aggregate analysis.
type BatchInput struct {
	BatterIDs []int64 `json:"batter_ids,omitempty"`
	TopN      int     `json:"top_n,omitempty"`
	Season    int     `json:"season,omitempty"`
}

type serviceImpl struct {
	repo   pitch.Repository
	cache  redis.Cache
	logger logging.Logger
}

// NewService creates the influence service. cache may be nil.
func NewService(repo pitch.Repository, cache redis.Cache, logger logging.Logger) Service {
	return &serviceImpl{repo: repo, cache: cache, logger: logger}
}

func (s *serviceImpl) Analyze(ctx context.Context, input *Input) (*intel.Result, error) {
	if input.BatterID <= 0 {
		return nil, errors.Validation("batter_id is required")
	}

	if s.cache != nil {
		var cached intel.Result
		key := fmt.Sprintf("%sb=%d,s=%d", cachePrefix, input.BatterID, input.Season)
		err := s.cache.GetOrSet(ctx, key, &cached, resultTTL,
			func(ctx context.Context) (interface{}, error) {
				return s.analyzeOne(ctx, input.BatterID, input.Season)
			})
		if err != nil {
			return nil, err
		}
		return &cached, nil
	}
	return s.analyzeOne(ctx, input.BatterID, input.Season)
}

func (s *serviceImpl) analyzeOne(ctx context.Context, batterID int64, season int) (*intel.Result, error) {
	records, err := s.repo.LoadPitches(ctx, pitch.Filter{BatterID: batterID, Season: season})
	if err != nil {
		return nil, err
	}
	return intel.AnalyzeSubject(batterID, pitch.Clean(records))
}

func (s *serviceImpl) AnalyzeBatch(ctx context.Context, input *BatchInput) (*intel.AggregateResult, error) {
	subjects := input.BatterIDs
	if len(subjects) == 0 {
		topN := input.TopN
		if topN <= 0 {
			topN = 5
		}
		if topN > MaxBatchSubjects {
			return nil, errors.Newf(errors.ErrCodeBatchTooLarge,
				"top_n %d exceeds the batch limit of %d", topN, MaxBatchSubjects)
		}
		batters, err := s.repo.ListBatters(ctx, input.Season, topN)
		if err != nil {
			return nil, err
		}
		for _, b := range batters {
			subjects = append(subjects, b.BatterID)
		}
	}
	if len(subjects) == 0 {
		return nil, errors.Newf(errors.ErrCodeDatasetMissing,
			"no subjects found for season %d", input.Season)
	}
	if len(subjects) > MaxBatchSubjects {
		return nil, errors.Newf(errors.ErrCodeBatchTooLarge,
			"%d subjects exceeds the batch limit of %d", len(subjects), MaxBatchSubjects)
	}

	started := time.Now()

	// Each slot is written by exactly one worker, so collection needs no
	// locking; slots are folded after the pool drains.
	type slot struct {
		result *intel.Result
		err    error
	}
	slots := make([]slot, len(subjects))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := batchWorkers
	if workers > len(subjects) {
		workers = len(subjects)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r, err := s.analyzeOne(ctx, subjects[i], input.Season)
				slots[i] = slot{result: r, err: err}
			}
		}()
	}
	for i := range subjects {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var results []*intel.Result
	var failures []intel.Failure
	for i, sl := range slots {
		if sl.err != nil {
			failures = append(failures, intel.Failure{
				SubjectID: subjects[i],
				Reason:    sl.err.Error(),
			})
			continue
		}
		results = append(results, sl.result)
	}

	agg := intel.Aggregate(results, failures)
	s.logger.Info("Aggregate influence analysis complete",
		logging.Int("subjects", len(subjects)),
		logging.Int("succeeded", agg.Succeeded),
		logging.Int("failed", agg.Failed),
		logging.Duration("elapsed", time.Since(started)))
	return agg, nil
}
