package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/pkg/errors"
)

type fakeObject struct {
	data         []byte
	lastModified time.Time
}

// fakeAPI implements API over an in-memory object map.
type fakeAPI struct {
	buckets map[string]bool
	objects map[string]fakeObject

	putErr  error
	statErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		buckets: map[string]bool{},
		objects: map[string]fakeObject{},
	}
}

func (f *fakeAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeAPI) PutObject(ctx context.Context, bucket, name string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[name] = fakeObject{data: data, lastModified: time.Now().UTC()}
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: int64(len(data))}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, bucket, name string, opts minio.GetObjectOptions) (*minio.Object, error) {
	return nil, fmt.Errorf("not reachable in fake")
}

func (f *fakeAPI) StatObject(ctx context.Context, bucket, name string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	obj, ok := f.objects[name]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	}
	return minio.ObjectInfo{Key: name, Size: int64(len(obj.data))}, nil
}

func (f *fakeAPI) RemoveObject(ctx context.Context, bucket, name string, opts minio.RemoveObjectOptions) error {
	delete(f.objects, name)
	return nil
}

func (f *fakeAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)
		for name, obj := range f.objects {
			ch <- minio.ObjectInfo{Key: name, Size: int64(len(obj.data)), LastModified: obj.lastModified}
		}
	}()
	return ch
}

func newTestStore(t *testing.T) (*SnapshotStore, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	store := NewSnapshotStoreWithAPI(api, &Config{Endpoint: "localhost:9000"}, logging.NewNop())
	return store, api
}

func TestBucketDefaultApplied(t *testing.T) {
	cfg := &Config{Endpoint: "localhost:9000"}
	NewSnapshotStoreWithAPI(newFakeAPI(), cfg, logging.NewNop())
	assert.Equal(t, "szas-snapshots", cfg.Bucket)
}

func TestEnsureBucketCreatesOnce(t *testing.T) {
	store, api := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ensureBucket(ctx))
	assert.True(t, api.buckets["szas-snapshots"])
	require.NoError(t, store.ensureBucket(ctx))
}

func TestPutAndExists(t *testing.T) {
	store, api := newTestStore(t)
	ctx := context.Background()

	data := []byte("game_id,at_bat_number\n")
	info, err := store.Put(ctx, 2024, data)
	require.NoError(t, err)
	assert.Equal(t, 2024, info.Season)
	assert.Equal(t, "seasons/2024/pitches.csv", info.Key)
	assert.EqualValues(t, len(data), info.Size)
	assert.True(t, bytes.Equal(data, api.objects[info.Key].data))

	exists, err := store.Exists(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, 2019)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPutErrorWrapped(t *testing.T) {
	store, api := newTestStore(t)
	api.putErr = fmt.Errorf("connection refused")

	_, err := store.Put(context.Background(), 2024, []byte("x"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStorageError, errors.GetCode(err))
}

func TestStatErrorWrapped(t *testing.T) {
	store, api := newTestStore(t)
	api.statErr = fmt.Errorf("timeout")

	_, err := store.Exists(context.Background(), 2024)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStorageError, errors.GetCode(err))
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, 2024, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, 2024))

	exists, err := store.Exists(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListOrdersBySeason(t *testing.T) {
	store, api := newTestStore(t)
	ctx := context.Background()

	for _, season := range []int{2025, 2023, 2024} {
		_, err := store.Put(ctx, season, []byte("x"))
		require.NoError(t, err)
	}
	// A stray object that is not a snapshot.
	api.objects["seasons/readme.txt"] = fakeObject{data: []byte("notes")}

	snapshots, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, 2023, snapshots[0].Season)
	assert.Equal(t, 2024, snapshots[1].Season)
	assert.Equal(t, 2025, snapshots[2].Season)
}
