// Package repository defines the durable stores backing the ranking engine
// and the deterministic leaderboard ordering they must honor.
package repository

import (
	"context"
	"time"

	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/internal/domain/types"
)

// Store provides access to player aggregates, the append-only score record
// collection, and the leaderboard projections over both.
//
// UpdateAggregate is the per-player serialization point: implementations
// must guarantee that concurrent updates for the same player never race,
// while updates for different players proceed in parallel.
type Store interface {
	// CreatePlayer registers a zeroed aggregate for a new player.
	// Returns ErrPlayerExists if the player is already known.
	CreatePlayer(ctx context.Context, playerID, displayName string, now time.Time) error

	// SetPlayerActive flips the active flag without touching counters.
	SetPlayerActive(ctx context.Context, playerID string, active bool) error

	// Aggregate returns a snapshot of the player's aggregate.
	// Returns ErrPlayerNotFound for unknown players.
	Aggregate(ctx context.Context, playerID string) (model.PlayerAggregate, error)

	// UpdateAggregate applies a read-modify-write under the player's update
	// serialization and returns the updated snapshot. If apply returns an
	// error the aggregate is left untouched. The version token is bumped on
	// every successful write.
	UpdateAggregate(ctx context.Context, playerID string, apply func(*model.PlayerAggregate) error) (model.PlayerAggregate, error)

	// ActivePlayerIDs lists every active player, ordered by id for
	// deterministic batch iteration.
	ActivePlayerIDs(ctx context.Context) ([]string, error)

	// AppendRecord persists one immutable score record.
	AppendRecord(ctx context.Context, rec model.ScoreRecord) error

	// PlayerHistory returns a player's records for one game type,
	// newest first.
	PlayerHistory(ctx context.Context, playerID string, gameType game.Type, limit, offset int) ([]model.ScoreRecord, error)

	// GlobalLeaderboard returns the requested page of active players in the
	// canonical global order, with ranks relative to the full ordered set.
	GlobalLeaderboard(ctx context.Context, limit, offset int) ([]types.Entry, error)

	// GlobalRank returns the 1-based global rank for a player.
	// Returns ErrPlayerNotFound for unknown or inactive players.
	GlobalRank(ctx context.Context, playerID string) (int, error)

	// GameLeaderboard groups records of one game type by player, takes each
	// player's best persisted session ranking score, and returns the
	// requested page in canonical per-game order.
	GameLeaderboard(ctx context.Context, gameType game.Type, limit, offset int) ([]types.GameEntry, error)

	// GameAnalytics summarizes every record of one game type.
	GameAnalytics(ctx context.Context, gameType game.Type) (types.GameAnalytics, error)

	// Counts reports the number of tracked players and stored records.
	Counts(ctx context.Context) (players, records int64)

	// Close releases store resources.
	Close() error
}

// EntryBefore reports whether aggregate a orders before b on the global
// leaderboard: composite desc, total score desc, level desc, games played
// desc, then player id asc. The final id tie-break makes the order total,
// so identical queries paginate identically even when every ranking field
// is equal.
func EntryBefore(a, b model.PlayerAggregate) bool {
	if a.CompositeScore != b.CompositeScore {
		return a.CompositeScore > b.CompositeScore
	}
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if a.Level != b.Level {
		return a.Level > b.Level
	}
	if a.GamesPlayed != b.GamesPlayed {
		return a.GamesPlayed > b.GamesPlayed
	}
	return a.PlayerID < b.PlayerID
}

// GameEntryBefore reports whether per-game row a orders before b: best
// session score desc, games played for that type desc, then player id asc.
func GameEntryBefore(a, b types.GameEntry) bool {
	if a.BestSessionScore != b.BestSessionScore {
		return a.BestSessionScore > b.BestSessionScore
	}
	if a.GamesPlayed != b.GamesPlayed {
		return a.GamesPlayed > b.GamesPlayed
	}
	return a.PlayerID < b.PlayerID
}
