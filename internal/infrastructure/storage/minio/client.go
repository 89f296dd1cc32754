// Package minio stores season pitch snapshots in object storage. Raw CSV
// exports land here before the import worker parses them into the archive.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/pkg/errors"
)

// API is the subset of the MinIO client the snapshot store uses.
type API interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Config holds the object storage settings.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
}

func applyDefaults(cfg *Config) {
	if cfg.Bucket == "" {
		cfg.Bucket = "szas-snapshots"
	}
}

// SnapshotInfo describes one stored season snapshot.
type SnapshotInfo struct {
	Season     int       `json:"season"`
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SnapshotStore reads and writes season CSV snapshots.
type SnapshotStore struct {
	client API
	config *Config
	logger logging.Logger
	mu     sync.RWMutex
}

// NewSnapshotStore connects to object storage and ensures the snapshot
// bucket exists.
func NewSnapshotStore(cfg *Config, log logging.Logger) (*SnapshotStore, error) {
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	store := &SnapshotStore{client: client, config: cfg, logger: log}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// NewSnapshotStoreWithAPI builds a store with an injected API, for tests.
func NewSnapshotStoreWithAPI(api API, cfg *Config, log logging.Logger) *SnapshotStore {
	applyDefaults(cfg)
	return &SnapshotStore{client: api, config: cfg, logger: log}
}

func (s *SnapshotStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check snapshot bucket")
	}
	if exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Region})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create snapshot bucket")
	}
	s.logger.Info("Created snapshot bucket", logging.String("bucket", s.config.Bucket))
	return nil
}

// snapshotKey is the canonical object name for a season.
func snapshotKey(season int) string {
	return fmt.Sprintf("seasons/%d/pitches.csv", season)
}

// Put uploads a season snapshot, replacing any previous one.
func (s *SnapshotStore) Put(ctx context.Context, season int, data []byte) (*SnapshotInfo, error) {
	key := snapshotKey(season)
	info, err := s.client.PutObject(ctx, s.config.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to upload snapshot")
	}
	s.logger.Info("Uploaded season snapshot",
		logging.Int("season", season), logging.Int64("size", info.Size))
	return &SnapshotInfo{Season: season, Key: key, Size: info.Size, UploadedAt: time.Now().UTC()}, nil
}

// Get downloads a season snapshot. A missing snapshot reports
// DatasetMissing.
func (s *SnapshotStore) Get(ctx context.Context, season int) ([]byte, error) {
	key := snapshotKey(season)
	obj, err := s.client.GetObject(ctx, s.config.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to open snapshot")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.Newf(errors.ErrCodeDatasetMissing, "no snapshot for season %d", season)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to read snapshot")
	}
	return data, nil
}

// Exists reports whether a season snapshot is present.
func (s *SnapshotStore) Exists(ctx context.Context, season int) (bool, error) {
	_, err := s.client.StatObject(ctx, s.config.Bucket, snapshotKey(season), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat snapshot")
	}
	return true, nil
}

// Delete removes a season snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, season int) error {
	err := s.client.RemoveObject(ctx, s.config.Bucket, snapshotKey(season), minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete snapshot")
	}
	return nil
}

// List returns every stored season snapshot, oldest season first.
func (s *SnapshotStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	var out []SnapshotInfo
	for obj := range s.client.ListObjects(ctx, s.config.Bucket,
		minio.ListObjectsOptions{Prefix: "seasons/", Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "failed to list snapshots")
		}
		var season int
		if _, err := fmt.Sscanf(obj.Key, "seasons/%d/", &season); err != nil {
			continue
		}
		if !strings.HasSuffix(obj.Key, "pitches.csv") {
			continue
		}
		out = append(out, SnapshotInfo{
			Season:     season,
			Key:        obj.Key,
			Size:       obj.Size,
			UploadedAt: obj.LastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out, nil
}
