package postgres

import (
	"context"
	"fmt"
)

// schema holds the idempotent DDL applied at startup. Statements run in
// order inside one transaction.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id              TEXT PRIMARY KEY,
		display_name    TEXT NOT NULL,
		active          BOOLEAN NOT NULL DEFAULT TRUE,
		total_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
		games_played    BIGINT NOT NULL DEFAULT 0,
		average_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
		level           INTEGER NOT NULL DEFAULT 1,
		streak          INTEGER NOT NULL DEFAULT 0,
		composite_score BIGINT NOT NULL DEFAULT 0,
		version         BIGINT NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS per_game_stats (
		player_id      TEXT NOT NULL REFERENCES players(id),
		game_type      TEXT NOT NULL,
		games_played   BIGINT NOT NULL DEFAULT 0,
		best           DOUBLE PRECISION NOT NULL DEFAULT 0,
		average        DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_played_at TIMESTAMPTZ,
		PRIMARY KEY (player_id, game_type)
	)`,

	`CREATE TABLE IF NOT EXISTS score_records (
		id               TEXT PRIMARY KEY,
		player_id        TEXT NOT NULL REFERENCES players(id),
		game_type        TEXT NOT NULL,
		score            DOUBLE PRECISION NOT NULL,
		level            INTEGER NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL,
		correct_answers  INTEGER NOT NULL,
		total_questions  INTEGER NOT NULL,
		accuracy_pct     DOUBLE PRECISION NOT NULL,
		session_score    BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,

	// Serves the canonical global ordering without a sort node.
	`CREATE INDEX IF NOT EXISTS idx_players_global_order
		ON players (composite_score DESC, total_score DESC, level DESC, games_played DESC, id ASC)
		WHERE active`,

	// Serves per-game grouping and player history scans.
	`CREATE INDEX IF NOT EXISTS idx_records_game_player
		ON score_records (game_type, player_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_player_game_time
		ON score_records (player_id, game_type, created_at DESC)`,
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
