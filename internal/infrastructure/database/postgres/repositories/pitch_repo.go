// Package repositories provides the PostgreSQL-backed implementation of the
// pitch archive repository.
package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/pkg/errors"
)

const pitchColumns = `game_id, at_bat_number, pitch_number, batter_id, umpire_id,
	side, season, px, pz, sz_top, sz_bot, decision, call`

// PitchRepository implements pitch.Repository over pgx. Every query is
// parameterised; the batting-side filter is intentionally not pushed into
// SQL per the repository contract.
type PitchRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ pitch.Repository = (*PitchRepository)(nil)

// NewPitchRepository constructs the repository.
func NewPitchRepository(pool *pgxpool.Pool, logger logging.Logger) *PitchRepository {
	return &PitchRepository{pool: pool, logger: logger}
}

// filterClause builds the WHERE clause for the subject/season constraints.
func filterClause(f pitch.Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.BatterID != 0 {
		add("batter_id = $%d", f.BatterID)
	}
	if f.UmpireID != 0 {
		add("umpire_id = $%d", f.UmpireID)
	}
	if f.Season != 0 {
		add("season = $%d", f.Season)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PitchRepository) LoadPitches(ctx context.Context, f pitch.Filter) ([]pitch.Record, error) {
	where, args := filterClause(f)
	query := "SELECT " + pitchColumns + " FROM pitches" + where +
		" ORDER BY game_id, at_bat_number, pitch_number"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load pitches")
	}
	defer rows.Close()

	var out []pitch.Record
	for rows.Next() {
		rec, err := scanPitch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read pitch rows")
	}
	return out, nil
}

func scanPitch(row pgx.Row) (pitch.Record, error) {
	var rec pitch.Record
	var decision, call string
	err := row.Scan(
		&rec.GameID, &rec.AtBatNumber, &rec.PitchNumber, &rec.BatterID, &rec.UmpireID,
		&rec.Side, &rec.Season, &rec.PX, &rec.PZ, &rec.SZTop, &rec.SZBot,
		&decision, &call,
	)
	if err != nil {
		return pitch.Record{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan pitch row")
	}
	rec.Side = strings.TrimSpace(rec.Side)
	rec.Decision = pitch.Decision(decision)
	rec.Call = pitch.Call(call)
	return rec, nil
}

func (r *PitchRepository) CountPitches(ctx context.Context, f pitch.Filter) (int, error) {
	where, args := filterClause(f)
	query := "SELECT COUNT(*) FROM pitches" + where
	if f.Side != "" {
		args = append(args, f.Side)
		if where == "" {
			query += fmt.Sprintf(" WHERE side = $%d", len(args))
		} else {
			query += fmt.Sprintf(" AND side = $%d", len(args))
		}
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count pitches")
	}
	return n, nil
}

func (r *PitchRepository) InsertPitches(ctx context.Context, records []pitch.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO pitches (`+pitchColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (game_id, at_bat_number, pitch_number) DO UPDATE SET
				batter_id = EXCLUDED.batter_id,
				umpire_id = EXCLUDED.umpire_id,
				side = EXCLUDED.side,
				season = EXCLUDED.season,
				px = EXCLUDED.px,
				pz = EXCLUDED.pz,
				sz_top = EXCLUDED.sz_top,
				sz_bot = EXCLUDED.sz_bot,
				decision = EXCLUDED.decision,
				call = EXCLUDED.call`,
			rec.GameID, rec.AtBatNumber, rec.PitchNumber, rec.BatterID, rec.UmpireID,
			rec.Side, rec.Season, rec.PX, rec.PZ, rec.SZTop, rec.SZBot,
			string(rec.Decision), string(rec.Call),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert pitch batch")
		}
	}
	if err := br.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to close pitch batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit pitch batch")
	}
	r.logger.Info("Inserted pitch records", logging.Int("count", len(records)))
	return nil
}

func (r *PitchRepository) ListBatters(ctx context.Context, season, limit int) ([]pitch.BatterInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT batter_id,
		       COUNT(*) AS pitch_count,
		       ARRAY_AGG(DISTINCT side) AS sides,
		       COUNT(DISTINCT CASE WHEN ab.pitches >= $1
		             THEN ab.game_id || '_' || ab.at_bat_number END) AS long_at_bats
		FROM pitches
		JOIN (
			SELECT game_id, at_bat_number, batter_id AS ab_batter, COUNT(*) AS pitches
			FROM pitches
			WHERE ($2 = 0 OR season = $2)
			GROUP BY game_id, at_bat_number, batter_id
		) ab ON ab.game_id = pitches.game_id
		    AND ab.at_bat_number = pitches.at_bat_number
		    AND ab.ab_batter = pitches.batter_id
		WHERE ($2 = 0 OR season = $2)
		GROUP BY batter_id
		ORDER BY pitch_count DESC, batter_id
		LIMIT $3`,
		pitch.MinSequencePitches, season, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list batters")
	}
	defer rows.Close()

	var out []pitch.BatterInfo
	for rows.Next() {
		var info pitch.BatterInfo
		if err := rows.Scan(&info.BatterID, &info.PitchCount, &info.Sides, &info.LongAtBats); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan batter row")
		}
		for i, s := range info.Sides {
			info.Sides[i] = strings.TrimSpace(s)
		}
		info.SwitchesBat = len(info.Sides) > 1
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read batter rows")
	}
	return out, nil
}

func (r *PitchRepository) ListUmpires(ctx context.Context, season, limit int) ([]pitch.UmpireInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT umpire_id, COUNT(*) AS pitch_count
		FROM pitches
		WHERE ($1 = 0 OR season = $1)
		GROUP BY umpire_id
		ORDER BY pitch_count DESC, umpire_id
		LIMIT $2`, season, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list umpires")
	}
	defer rows.Close()

	var out []pitch.UmpireInfo
	for rows.Next() {
		var info pitch.UmpireInfo
		if err := rows.Scan(&info.UmpireID, &info.PitchCount); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan umpire row")
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read umpire rows")
	}
	return out, nil
}

func (r *PitchRepository) Summary(ctx context.Context, season int) (pitch.SeasonSummary, error) {
	var sum pitch.SeasonSummary
	sum.Season = season
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE decision = 'take'),
		       COUNT(*) FILTER (WHERE decision = 'swing'),
		       COUNT(*) FILTER (WHERE call = 'called_strike'),
		       COUNT(*) FILTER (WHERE call = 'ball'),
		       COUNT(DISTINCT batter_id),
		       COUNT(DISTINCT umpire_id)
		FROM pitches
		WHERE ($1 = 0 OR season = $1)`, season).Scan(
		&sum.TotalPitches, &sum.Takes, &sum.Swings,
		&sum.CalledStrikes, &sum.Balls, &sum.Batters, &sum.Umpires)
	if err != nil {
		return pitch.SeasonSummary{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to summarize season")
	}
	if sum.TotalPitches == 0 {
		return pitch.SeasonSummary{}, errors.Newf(errors.ErrCodeDatasetMissing,
			"no pitch archive for season %d", season)
	}
	return sum, nil
}

func (r *PitchRepository) Seasons(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT season FROM pitches ORDER BY season`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list seasons")
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan season row")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read season rows")
	}
	return out, nil
}
