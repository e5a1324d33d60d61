// Package postgres implements the repository.Store contract on PostgreSQL
// via pgx. Per-player serialization uses a row lock inside a transaction;
// the version column is the observable write token.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "github.com/mindtrain/rankengine/internal/adapters/repository"
	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/internal/domain/types"
	"github.com/mindtrain/rankengine/pkg/metrics"
)

// pgUniqueViolation is the SQLSTATE for duplicate keys.
const pgUniqueViolation = "23505"

// Store is the PostgreSQL-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CreatePlayer registers a zeroed aggregate for a new player.
func (s *Store) CreatePlayer(ctx context.Context, playerID, displayName string, now time.Time) error {
	agg := model.NewPlayerAggregate(playerID, displayName, now)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players
			(id, display_name, active, total_score, games_played, average_score,
			 level, streak, composite_score, version, created_at, updated_at)
		VALUES ($1, $2, TRUE, 0, 0, 0, $3, 0, $4, 0, $5, $5)`,
		playerID, displayName, agg.Level, agg.CompositeScore, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrPlayerExists
		}
		return mapErr(err)
	}
	return nil
}

// SetPlayerActive flips the active flag without touching counters.
func (s *Store) SetPlayerActive(ctx context.Context, playerID string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE players SET active = $2, version = version + 1 WHERE id = $1`,
		playerID, active,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrPlayerNotFound
	}
	return nil
}

// Aggregate returns a snapshot of the player's aggregate.
func (s *Store) Aggregate(ctx context.Context, playerID string) (model.PlayerAggregate, error) {
	agg, err := s.loadAggregate(ctx, s.pool, playerID, false)
	if err != nil {
		return model.PlayerAggregate{}, err
	}
	return agg, nil
}

// UpdateAggregate applies a read-modify-write inside a transaction holding
// the player's row lock, so concurrent updates for the same player are
// strictly serialized while other players proceed in parallel.
func (s *Store) UpdateAggregate(ctx context.Context, playerID string, apply func(*model.PlayerAggregate) error) (model.PlayerAggregate, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("update_aggregate", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.PlayerAggregate{}, mapErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	agg, err := s.loadAggregate(ctx, tx, playerID, true)
	if err != nil {
		return model.PlayerAggregate{}, err
	}

	if err := apply(&agg); err != nil {
		// ErrNoop propagates after the rollback in the deferred call.
		return agg, err
	}
	agg.Version++

	_, err = tx.Exec(ctx, `
		UPDATE players SET
			display_name = $2, active = $3, total_score = $4, games_played = $5,
			average_score = $6, level = $7, streak = $8, composite_score = $9,
			version = $10, updated_at = $11
		WHERE id = $1`,
		playerID, agg.DisplayName, agg.Active, agg.TotalScore, agg.GamesPlayed,
		agg.AverageScore, agg.Level, agg.Streak, agg.CompositeScore,
		agg.Version, agg.UpdatedAt,
	)
	if err != nil {
		return model.PlayerAggregate{}, mapErr(err)
	}

	for gt, gs := range agg.PerGame {
		_, err = tx.Exec(ctx, `
			INSERT INTO per_game_stats
				(player_id, game_type, games_played, best, average, last_played_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (player_id, game_type) DO UPDATE SET
				games_played = EXCLUDED.games_played,
				best = EXCLUDED.best,
				average = EXCLUDED.average,
				last_played_at = EXCLUDED.last_played_at`,
			playerID, gt.String(), gs.GamesPlayed, gs.Best, gs.Average, nullTime(gs.LastPlayedAt),
		)
		if err != nil {
			return model.PlayerAggregate{}, mapErr(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.PlayerAggregate{}, mapErr(err)
	}
	return agg, nil
}

// ActivePlayerIDs lists active players ordered by id.
func (s *Store) ActivePlayerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM players WHERE active ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr(err)
		}
		ids = append(ids, id)
	}
	return ids, mapErr(rows.Err())
}

// AppendRecord persists one immutable score record.
func (s *Store) AppendRecord(ctx context.Context, rec model.ScoreRecord) error {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("append_record", float64(time.Since(start).Milliseconds()))
	}()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO score_records
			(id, player_id, game_type, score, level, duration_seconds,
			 correct_answers, total_questions, accuracy_pct, session_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.PlayerID, rec.GameType.String(), rec.Score, rec.Level,
		rec.DurationSeconds, rec.CorrectAnswers, rec.TotalQuestions,
		rec.AccuracyPct, rec.SessionScore, rec.CreatedAt,
	)
	return mapErr(err)
}

// PlayerHistory returns a player's records for one game type, newest first.
func (s *Store) PlayerHistory(ctx context.Context, playerID string, gameType game.Type, limit, offset int) ([]model.ScoreRecord, error) {
	if limit < 1 || offset < 0 {
		return nil, repository.ErrInvalidLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, player_id, game_type, score, level, duration_seconds,
		       correct_answers, total_questions, accuracy_pct, session_score, created_at
		FROM score_records
		WHERE player_id = $1 AND game_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		playerID, gameType.String(), limit, offset,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.ScoreRecord
	for rows.Next() {
		var rec model.ScoreRecord
		var gt string
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &gt, &rec.Score, &rec.Level,
			&rec.DurationSeconds, &rec.CorrectAnswers, &rec.TotalQuestions,
			&rec.AccuracyPct, &rec.SessionScore, &rec.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		rec.GameType = game.Type(gt)
		out = append(out, rec)
	}
	return out, mapErr(rows.Err())
}

// GlobalLeaderboard returns the requested page in canonical global order.
func (s *Store) GlobalLeaderboard(ctx context.Context, limit, offset int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("global_leaderboard", float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 || offset < 0 {
		return nil, repository.ErrInvalidLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, display_name, composite_score, total_score, level, games_played
		FROM players
		WHERE active
		ORDER BY composite_score DESC, total_score DESC, level DESC, games_played DESC, id ASC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	entries := make([]types.Entry, 0, limit)
	rank := offset
	for rows.Next() {
		var e types.Entry
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.CompositeScore,
			&e.TotalScore, &e.Level, &e.GamesPlayed); err != nil {
			return nil, mapErr(err)
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, mapErr(rows.Err())
}

// GlobalRank returns the 1-based global rank for an active player: one
// plus the number of active players ordering strictly before it.
func (s *Store) GlobalRank(ctx context.Context, playerID string) (int, error) {
	var rank int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 + count(*)
		FROM players p, players t
		WHERE t.id = $1 AND t.active AND p.active AND p.id <> t.id AND (
			p.composite_score > t.composite_score
			OR (p.composite_score = t.composite_score AND p.total_score > t.total_score)
			OR (p.composite_score = t.composite_score AND p.total_score = t.total_score
				AND p.level > t.level)
			OR (p.composite_score = t.composite_score AND p.total_score = t.total_score
				AND p.level = t.level AND p.games_played > t.games_played)
			OR (p.composite_score = t.composite_score AND p.total_score = t.total_score
				AND p.level = t.level AND p.games_played = t.games_played AND p.id < t.id)
		)`,
		playerID,
	).Scan(&rank)
	if err != nil {
		return 0, mapErr(err)
	}
	// The self-join yields zero rows for unknown or inactive players, which
	// a bare count would report as rank 1.
	var active bool
	if err := s.pool.QueryRow(ctx, `SELECT active FROM players WHERE id = $1`, playerID).Scan(&active); err != nil {
		return 0, mapErr(err)
	}
	if !active {
		return 0, repository.ErrPlayerNotFound
	}
	return rank, nil
}

// GameLeaderboard groups one game type's records by player and orders by
// best persisted session ranking score.
func (s *Store) GameLeaderboard(ctx context.Context, gameType game.Type, limit, offset int) ([]types.GameEntry, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("game_leaderboard", float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 || offset < 0 {
		return nil, repository.ErrInvalidLimit
	}
	if !gameType.Valid() {
		return nil, game.ErrUnknownType
	}

	bestValue := `max(r.score)`
	if gameType.TimeScored() {
		bestValue = `min(r.duration_seconds)`
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT r.player_id, p.display_name,
		       max(r.session_score) AS best_session,
		       %s AS best_value,
		       count(*) AS games_played,
		       max(r.created_at) AS last_played
		FROM score_records r
		JOIN players p ON p.id = r.player_id AND p.active
		WHERE r.game_type = $1
		GROUP BY r.player_id, p.display_name
		ORDER BY best_session DESC, games_played DESC, r.player_id ASC
		LIMIT $2 OFFSET $3`, bestValue),
		gameType.String(), limit, offset,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	entries := make([]types.GameEntry, 0, limit)
	rank := offset
	for rows.Next() {
		var e types.GameEntry
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.BestSessionScore,
			&e.BestValue, &e.GamesPlayed, &e.LastPlayedAt); err != nil {
			return nil, mapErr(err)
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, mapErr(rows.Err())
}

// GameAnalytics summarizes every record of one game type.
func (s *Store) GameAnalytics(ctx context.Context, gameType game.Type) (types.GameAnalytics, error) {
	if !gameType.Valid() {
		return types.GameAnalytics{}, game.ErrUnknownType
	}
	var out types.GameAnalytics
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(DISTINCT player_id),
		       coalesce(avg(score), 0),
		       coalesce(max(score), 0),
		       coalesce(min(score), 0),
		       coalesce(avg(duration_seconds), 0),
		       coalesce(avg(accuracy_pct), 0)
		FROM score_records
		WHERE game_type = $1`,
		gameType.String(),
	).Scan(&out.TotalGames, &out.UniquePlayers, &out.AverageScore,
		&out.MaxScore, &out.MinScore, &out.AverageDuration, &out.AverageAccuracy)
	if err != nil {
		return types.GameAnalytics{}, mapErr(err)
	}
	return out, nil
}

// Counts reports the number of tracked players and stored records.
func (s *Store) Counts(ctx context.Context) (players, records int64) {
	_ = s.pool.QueryRow(ctx, `SELECT count(*) FROM players`).Scan(&players)
	_ = s.pool.QueryRow(ctx, `SELECT count(*) FROM score_records`).Scan(&records)
	return players, records
}

// querier lets loadAggregate run against the pool or an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) loadAggregate(ctx context.Context, q querier, playerID string, forUpdate bool) (model.PlayerAggregate, error) {
	query := `
		SELECT id, display_name, active, total_score, games_played, average_score,
		       level, streak, composite_score, version, created_at, updated_at
		FROM players WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var agg model.PlayerAggregate
	err := q.QueryRow(ctx, query, playerID).Scan(
		&agg.PlayerID, &agg.DisplayName, &agg.Active, &agg.TotalScore,
		&agg.GamesPlayed, &agg.AverageScore, &agg.Level, &agg.Streak,
		&agg.CompositeScore, &agg.Version, &agg.CreatedAt, &agg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PlayerAggregate{}, repository.ErrPlayerNotFound
		}
		return model.PlayerAggregate{}, mapErr(err)
	}

	agg.PerGame = make(map[game.Type]model.PerGameStats)
	rows, err := q.Query(ctx, `
		SELECT game_type, games_played, best, average, last_played_at
		FROM per_game_stats WHERE player_id = $1`,
		playerID,
	)
	if err != nil {
		return model.PlayerAggregate{}, mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var gt string
		var gs model.PerGameStats
		var last *time.Time
		if err := rows.Scan(&gt, &gs.GamesPlayed, &gs.Best, &gs.Average, &last); err != nil {
			return model.PlayerAggregate{}, mapErr(err)
		}
		if last != nil {
			gs.LastPlayedAt = *last
		}
		agg.PerGame[game.Type(gt)] = gs
	}
	return mapErr2(agg, rows.Err())
}

func mapErr2(agg model.PlayerAggregate, err error) (model.PlayerAggregate, error) {
	if err != nil {
		return model.PlayerAggregate{}, mapErr(err)
	}
	return agg, nil
}

// mapErr translates driver errors onto the repository taxonomy.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", repository.ErrTimeout, err)
	case errors.Is(err, pgx.ErrNoRows):
		return repository.ErrPlayerNotFound
	default:
		return err
	}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
