package dataset

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/infrastructure/messaging/kafka"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/internal/infrastructure/storage/minio"
	"github.com/calledstrike/szas/internal/synthetic"
	"github.com/calledstrike/szas/pkg/errors"
)

type fakeSnapshots struct {
	mu      sync.Mutex
	objects map[int][]byte
	getErr  error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{objects: make(map[int][]byte)}
}

func (f *fakeSnapshots) Put(_ context.Context, season int, data []byte) (*minio.SnapshotInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[season] = data
	return &minio.SnapshotInfo{Season: season, Size: int64(len(data))}, nil
}

func (f *fakeSnapshots) Get(_ context.Context, season int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[season]
	if !ok {
		return nil, errors.New(errors.ErrCodeDatasetMissing, "no snapshot")
	}
	return data, nil
}

func (f *fakeSnapshots) Exists(_ context.Context, season int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[season]
	return ok, nil
}

func (f *fakeSnapshots) List(context.Context) ([]minio.SnapshotInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	infos := make([]minio.SnapshotInfo, 0, len(f.objects))
	for season, data := range f.objects {
		infos = append(infos, minio.SnapshotInfo{Season: season, Size: int64(len(data))})
	}
	return infos, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	topic    string
	key      string
	envelope *kafka.EventEnvelope
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, envelope *kafka.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{topic: topic, key: key, envelope: envelope})
	return nil
}

func (p *recordingPublisher) events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.published...)
}

func fixtureRecords(t *testing.T) []pitch.Record {
	t.Helper()
	opts := synthetic.DefaultFixtureOptions()
	opts.Pitches = 300
	return synthetic.GeneratePitches(opts)
}

func newTestService(t *testing.T, records []pitch.Record) (Service, *synthetic.MemoryRepository, *fakeSnapshots, *recordingPublisher) {
	t.Helper()
	repo := synthetic.NewMemoryRepository(records)
	snapshots := newFakeSnapshots()
	publisher := &recordingPublisher{}
	svc := NewService(repo, snapshots, publisher, nil, logging.NewNop())
	return svc, repo, snapshots, publisher
}

func TestCatalogOperations(t *testing.T) {
	records := fixtureRecords(t)
	svc, _, _, _ := newTestService(t, records)
	ctx := context.Background()

	batters, err := svc.Batters(ctx, 2024, 0)
	require.NoError(t, err)
	require.NotEmpty(t, batters)
	for i := 1; i < len(batters); i++ {
		assert.GreaterOrEqual(t, batters[i-1].PitchCount, batters[i].PitchCount)
	}

	umpires, err := svc.Umpires(ctx, 2024, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(umpires), 2)

	summary, err := svc.Summary(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, len(records), summary.TotalPitches)
	assert.Equal(t, summary.TotalPitches, summary.Takes+summary.Swings)

	seasons, err := svc.Seasons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, seasons)
}

func TestPreviewCount(t *testing.T) {
	records := fixtureRecords(t)
	svc, _, _, _ := newTestService(t, records)
	ctx := context.Background()

	total, err := svc.PreviewCount(ctx, pitch.Filter{Season: 2024})
	require.NoError(t, err)
	assert.Equal(t, len(records), total)

	one, err := svc.PreviewCount(ctx, pitch.Filter{BatterID: records[0].BatterID, Season: 2024})
	require.NoError(t, err)
	assert.Greater(t, one, 0)
	assert.Less(t, one, total)

	_, err = svc.PreviewCount(ctx, pitch.Filter{Side: "X"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFilter))
}

func TestSnapshotRoundTrip(t *testing.T) {
	records := fixtureRecords(t)
	svc, _, snapshots, _ := newTestService(t, nil)
	ctx := context.Background()

	info, err := svc.UploadSnapshot(ctx, 2024, records)
	require.NoError(t, err)
	assert.Equal(t, 2024, info.Season)
	assert.Greater(t, info.Size, int64(0))

	data, err := snapshots.Get(ctx, 2024)
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, len(records), len(decoded))
	assert.Equal(t, records[0], decoded[0])

	listed, err := svc.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestUploadSnapshotRejectsWrongSeason(t *testing.T) {
	records := fixtureRecords(t)
	svc, _, _, _ := newTestService(t, nil)

	_, err := svc.UploadSnapshot(context.Background(), 2023, records)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRequestImport(t *testing.T) {
	records := fixtureRecords(t)
	svc, _, _, publisher := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.RequestImport(ctx, 2024)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetMissing))

	_, err = svc.UploadSnapshot(ctx, 2024, records)
	require.NoError(t, err)

	eventID, err := svc.RequestImport(ctx, 2024)
	require.NoError(t, err)
	assert.NotEmpty(t, eventID)

	events := publisher.events()
	require.Len(t, events, 1)
	assert.Equal(t, kafka.TopicImportRequested, events[0].topic)
	assert.Equal(t, eventID, events[0].envelope.EventID)

	var payload kafka.ImportRequestedPayload
	require.NoError(t, kafka.DecodePayload(events[0].envelope, &payload))
	assert.Equal(t, 2024, payload.Season)
}

func TestRunImport(t *testing.T) {
	records := fixtureRecords(t)
	svc, repo, _, publisher := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.UploadSnapshot(ctx, 2024, records)
	require.NoError(t, err)

	report, err := svc.RunImport(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, len(records), report.Inserted)
	assert.Zero(t, report.Skipped)

	count, err := repo.CountPitches(ctx, pitch.Filter{Season: 2024})
	require.NoError(t, err)
	assert.Equal(t, len(records), count)

	events := publisher.events()
	require.Len(t, events, 1)
	assert.Equal(t, kafka.TopicImportCompleted, events[0].topic)
	var payload kafka.ImportCompletedPayload
	require.NoError(t, kafka.DecodePayload(events[0].envelope, &payload))
	assert.False(t, payload.Failed)
	assert.Equal(t, report.Inserted, payload.Inserted)
}

func TestRunImportMissingSnapshotPublishesFailure(t *testing.T) {
	svc, _, _, publisher := newTestService(t, nil)

	_, err := svc.RunImport(context.Background(), 2019)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetMissing))

	events := publisher.events()
	require.Len(t, events, 1)
	var payload kafka.ImportCompletedPayload
	require.NoError(t, kafka.DecodePayload(events[0].envelope, &payload))
	assert.True(t, payload.Failed)
	assert.NotEmpty(t, payload.Error)
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"wrong header", "a,b,c\n1,2,3\n"},
		{"bad numeric", "game_id,at_bat_number,pitch_number,batter_id,umpire_id,side,season,px,pz,sz_top,sz_bot,decision,call\ng1,x,1,100,200,R,2024,0.1,2.5,3.5,1.5,take,ball\n"},
		{"bad decision", "game_id,at_bat_number,pitch_number,batter_id,umpire_id,side,season,px,pz,sz_top,sz_bot,decision,call\ng1,1,1,100,200,R,2024,0.1,2.5,3.5,1.5,bunt,\n"},
		{"no rows", "game_id,at_bat_number,pitch_number,batter_id,umpire_id,side,season,px,pz,sz_top,sz_bot,decision,call\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tc.data))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetMalformed))
		})
	}
}
