// Package dataset provides archive catalog operations and the season
// snapshot import pipeline: snapshots uploaded to object storage, import
// requests published to the broker, and the worker-side import that loads a
// snapshot into the relational archive.
package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/infrastructure/database/redis"
	"github.com/calledstrike/szas/internal/infrastructure/messaging/kafka"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/internal/infrastructure/storage/minio"
	"github.com/calledstrike/szas/pkg/errors"
)

// DefaultCatalogLimit bounds catalog listings when the caller does not ask
// for a specific page size.
const DefaultCatalogLimit = 50

// Publisher is the slice of the event producer the dataset service needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, envelope *kafka.EventEnvelope) error
}

// Snapshots is the slice of the object store the dataset service needs.
type Snapshots interface {
	Put(ctx context.Context, season int, data []byte) (*minio.SnapshotInfo, error)
	Get(ctx context.Context, season int) ([]byte, error)
	Exists(ctx context.Context, season int) (bool, error)
	List(ctx context.Context) ([]minio.SnapshotInfo, error)
}

// Service defines the catalog and import operations.
type Service interface {
	// Batters lists batters in the archive, ordered by pitch count.
	Batters(ctx context.Context, season, limit int) ([]pitch.BatterInfo, error)

	// Umpires lists umpires in the archive, ordered by pitch count.
	Umpires(ctx context.Context, season, limit int) ([]pitch.UmpireInfo, error)

	// Summary aggregates one season's archive statistics.
	Summary(ctx context.Context, season int) (pitch.SeasonSummary, error)

	// Seasons lists the seasons present in the archive.
	Seasons(ctx context.Context) ([]int, error)

	// PreviewCount reports how many pitches a filter would select, without
	// loading them.
	PreviewCount(ctx context.Context, f pitch.Filter) (int, error)

	// UploadSnapshot validates and stores a season snapshot.
	UploadSnapshot(ctx context.Context, season int, records []pitch.Record) (*minio.SnapshotInfo, error)

	// ListSnapshots lists the stored season snapshots.
	ListSnapshots(ctx context.Context) ([]minio.SnapshotInfo, error)

	// RequestImport publishes an import request for a stored snapshot and
	// returns the event id.
	RequestImport(ctx context.Context, season int) (string, error)

	// RunImport loads a stored snapshot into the archive. It is invoked by
	// the worker when an import request event arrives.
	RunImport(ctx context.Context, season int) (*ImportReport, error)
}

// ImportReport summarizes one completed import.
type ImportReport struct {
	Season   int `json:"season"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

type serviceImpl struct {
	repo      pitch.Repository
	snapshots Snapshots
	producer  Publisher
	cache     redis.Cache
	logger    logging.Logger
}

// NewService builds the dataset service. The snapshot store, producer, and
// cache may each be nil; the operations needing them fail with
// ServiceUnavailable or skip the step.
func NewService(repo pitch.Repository, snapshots Snapshots, producer Publisher, cache redis.Cache, logger logging.Logger) Service {
	return &serviceImpl{
		repo:      repo,
		snapshots: snapshots,
		producer:  producer,
		cache:     cache,
		logger:    logger,
	}
}

func (s *serviceImpl) Batters(ctx context.Context, season, limit int) ([]pitch.BatterInfo, error) {
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	return s.repo.ListBatters(ctx, season, limit)
}

func (s *serviceImpl) Umpires(ctx context.Context, season, limit int) ([]pitch.UmpireInfo, error) {
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	return s.repo.ListUmpires(ctx, season, limit)
}

func (s *serviceImpl) Summary(ctx context.Context, season int) (pitch.SeasonSummary, error) {
	return s.repo.Summary(ctx, season)
}

func (s *serviceImpl) Seasons(ctx context.Context) ([]int, error) {
	return s.repo.Seasons(ctx)
}

func (s *serviceImpl) PreviewCount(ctx context.Context, f pitch.Filter) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return s.repo.CountPitches(ctx, f)
}

func (s *serviceImpl) UploadSnapshot(ctx context.Context, season int, records []pitch.Record) (*minio.SnapshotInfo, error) {
	if s.snapshots == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "snapshot storage is not configured")
	}
	if season <= 0 {
		return nil, errors.Validation("season is required")
	}
	if len(records) == 0 {
		return nil, errors.Validation("snapshot must contain at least one pitch")
	}
	for i, r := range records {
		if r.Season != season {
			return nil, errors.Validation(fmt.Sprintf("record %d belongs to season %d, not %d", i, r.Season, season))
		}
		if err := r.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, fmt.Sprintf("record %d is invalid", i))
		}
	}

	data, err := EncodeSnapshot(records)
	if err != nil {
		return nil, err
	}
	info, err := s.snapshots.Put(ctx, season, data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stored season snapshot",
		logging.Int("season", season),
		logging.Int("pitches", len(records)),
		logging.Int64("bytes", info.Size))
	return info, nil
}

func (s *serviceImpl) ListSnapshots(ctx context.Context) ([]minio.SnapshotInfo, error) {
	if s.snapshots == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "snapshot storage is not configured")
	}
	return s.snapshots.List(ctx)
}

func (s *serviceImpl) RequestImport(ctx context.Context, season int) (string, error) {
	if s.snapshots == nil || s.producer == nil {
		return "", errors.New(errors.ErrCodeServiceUnavailable, "import pipeline is not configured")
	}
	if season <= 0 {
		return "", errors.Validation("season is required")
	}
	ok, err := s.snapshots.Exists(ctx, season)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New(errors.ErrCodeDatasetMissing,
			fmt.Sprintf("no snapshot stored for season %d", season))
	}

	envelope, err := kafka.NewEnvelope(kafka.EventImportRequested, "dataset", kafka.ImportRequestedPayload{
		Season:      season,
		SnapshotKey: fmt.Sprintf("seasons/%d/pitches.csv", season),
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to build import request")
	}
	if err := s.producer.Publish(ctx, kafka.TopicImportRequested, fmt.Sprintf("%d", season), envelope); err != nil {
		return "", err
	}
	s.logger.Info("Requested season import",
		logging.Int("season", season),
		logging.String("event_id", envelope.EventID))
	return envelope.EventID, nil
}

func (s *serviceImpl) RunImport(ctx context.Context, season int) (*ImportReport, error) {
	if s.snapshots == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "snapshot storage is not configured")
	}
	report, err := s.runImport(ctx, season)
	s.publishCompleted(ctx, season, report, err)
	return report, err
}

func (s *serviceImpl) runImport(ctx context.Context, season int) (*ImportReport, error) {
	data, err := s.snapshots.Get(ctx, season)
	if err != nil {
		return nil, err
	}
	records, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}

	kept := make([]pitch.Record, 0, len(records))
	skipped := 0
	for _, r := range records {
		if r.Season != season {
			skipped++
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil, errors.New(errors.ErrCodeDatasetMalformed,
			fmt.Sprintf("snapshot for season %d contains no rows for that season", season))
	}

	if err := s.repo.InsertPitches(ctx, kept); err != nil {
		return nil, err
	}
	s.invalidateResults(ctx)

	report := &ImportReport{Season: season, Inserted: len(kept), Skipped: skipped}
	s.logger.Info("Imported season snapshot",
		logging.Int("season", season),
		logging.Int("inserted", report.Inserted),
		logging.Int("skipped", report.Skipped))
	return report, nil
}

// invalidateResults drops cached scores and analyses; the archive they were
// computed from just changed.
func (s *serviceImpl) invalidateResults(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, prefix := range []string{"score:", "surfaces:", "influence:"} {
		if n, err := s.cache.DeleteByPrefix(ctx, prefix); err != nil {
			s.logger.Warn("Failed to invalidate cached results",
				logging.String("prefix", prefix), logging.Err(err))
		} else if n > 0 {
			s.logger.Debug("Invalidated cached results",
				logging.String("prefix", prefix), logging.Int64("count", n))
		}
	}
}

func (s *serviceImpl) publishCompleted(ctx context.Context, season int, report *ImportReport, importErr error) {
	if s.producer == nil {
		return
	}
	payload := kafka.ImportCompletedPayload{
		Season:      season,
		CompletedAt: time.Now().UTC(),
	}
	if importErr != nil {
		payload.Failed = true
		payload.Error = importErr.Error()
	} else if report != nil {
		payload.Inserted = report.Inserted
		payload.Skipped = report.Skipped
	}
	envelope, err := kafka.NewEnvelope(kafka.EventImportCompleted, "worker", payload)
	if err != nil {
		s.logger.Error("Failed to build import completion event", logging.Err(err))
		return
	}
	if err := s.producer.Publish(ctx, kafka.TopicImportCompleted, fmt.Sprintf("%d", season), envelope); err != nil {
		s.logger.Error("Failed to publish import completion", logging.Err(err))
	}
}
