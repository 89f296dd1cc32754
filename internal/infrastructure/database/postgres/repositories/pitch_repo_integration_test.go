//go:build integration

// Integration tests for the pitch archive repository. They require Docker
// and are gated behind the "integration" build tag.
package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/infrastructure/database/postgres"
	"github.com/calledstrike/szas/internal/infrastructure/database/postgres/repositories"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/pkg/errors"
)

// startPostgres launches a PostgreSQL container, applies the embedded
// migrations, and returns a connected pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "szas_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/szas_test?sslmode=disable", host, port.Port())
	require.NoError(t, postgres.RunMigrations(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedRecords() []pitch.Record {
	var out []pitch.Record
	// Two at-bats for batter 1 (one long enough to qualify), one for batter 2.
	decisions := [][]pitch.Decision{
		{pitch.DecisionTake, pitch.DecisionSwing, pitch.DecisionTake, pitch.DecisionSwing},
		{pitch.DecisionSwing},
	}
	for atBat, seq := range decisions {
		for i, d := range seq {
			r := pitch.Record{
				GameID: "g1", AtBatNumber: atBat + 1, PitchNumber: i + 1,
				BatterID: 1, UmpireID: 10, Side: "R", Season: 2024,
				PX: 0.1 * float64(i), PZ: 2.0, SZTop: 3.4, SZBot: 1.6,
				Decision: d,
			}
			if d == pitch.DecisionTake {
				r.Call = pitch.CallStrike
			}
			out = append(out, r)
		}
	}
	out = append(out, pitch.Record{
		GameID: "g2", AtBatNumber: 1, PitchNumber: 1,
		BatterID: 2, UmpireID: 11, Side: "L", Season: 2023,
		PX: -0.2, PZ: 1.9, SZTop: 3.3, SZBot: 1.5,
		Decision: pitch.DecisionTake, Call: pitch.CallBall,
	})
	return out
}

func TestPitchRepositoryRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewPitchRepository(pool, logging.NewNop())
	ctx := context.Background()

	records := seedRecords()
	require.NoError(t, repo.InsertPitches(ctx, records))

	t.Run("load all ordered", func(t *testing.T) {
		loaded, err := repo.LoadPitches(ctx, pitch.Filter{})
		require.NoError(t, err)
		require.Len(t, loaded, len(records))
		assert.Equal(t, records[0], loaded[0])
	})

	t.Run("filter by batter and season", func(t *testing.T) {
		loaded, err := repo.LoadPitches(ctx, pitch.Filter{BatterID: 1, Season: 2024})
		require.NoError(t, err)
		assert.Len(t, loaded, 5)
	})

	t.Run("count applies side", func(t *testing.T) {
		n, err := repo.CountPitches(ctx, pitch.Filter{Side: "L"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("upsert is idempotent", func(t *testing.T) {
		require.NoError(t, repo.InsertPitches(ctx, records))
		n, err := repo.CountPitches(ctx, pitch.Filter{})
		require.NoError(t, err)
		assert.Equal(t, len(records), n)
	})

	t.Run("list batters with long at-bats", func(t *testing.T) {
		batters, err := repo.ListBatters(ctx, 2024, 10)
		require.NoError(t, err)
		require.Len(t, batters, 1)
		assert.EqualValues(t, 1, batters[0].BatterID)
		assert.Equal(t, 5, batters[0].PitchCount)
		assert.Equal(t, 1, batters[0].LongAtBats)
		assert.False(t, batters[0].SwitchesBat)
	})

	t.Run("list umpires", func(t *testing.T) {
		umpires, err := repo.ListUmpires(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, umpires, 2)
		assert.EqualValues(t, 10, umpires[0].UmpireID)
	})

	t.Run("summary", func(t *testing.T) {
		sum, err := repo.Summary(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, 5, sum.TotalPitches)
		assert.Equal(t, 2, sum.Takes)
		assert.Equal(t, 3, sum.Swings)
		assert.Equal(t, 2, sum.CalledStrikes)
		assert.Equal(t, 1, sum.Batters)
	})

	t.Run("summary missing season", func(t *testing.T) {
		_, err := repo.Summary(ctx, 2019)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeDatasetMissing, errors.GetCode(err))
	})

	t.Run("seasons", func(t *testing.T) {
		seasons, err := repo.Seasons(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2023, 2024}, seasons)
	})
}
