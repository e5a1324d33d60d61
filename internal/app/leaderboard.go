package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/internal/domain/types"
	"github.com/mindtrain/rankengine/pkg/metrics"
)

// PlayerStats is the read-side snapshot returned for one player: the
// aggregate plus the current global rank position. Rank is zero for
// deactivated players.
type PlayerStats struct {
	PlayerID       string                          `json:"player_id"`
	DisplayName    string                          `json:"display_name"`
	Active         bool                            `json:"active"`
	TotalScore     float64                         `json:"total_score"`
	GamesPlayed    int64                           `json:"games_played"`
	AverageScore   float64                         `json:"average_score"`
	Level          int                             `json:"level"`
	Streak         int                             `json:"streak"`
	CompositeScore int                             `json:"composite_score"`
	Rank           int                             `json:"rank,omitempty"`
	PerGame        map[game.Type]model.PerGameStats `json:"per_game"`
}

// GlobalLeaderboard returns one page of the global leaderboard in the
// canonical order, with ranks relative to the full ordered set.
func (s *Service) GlobalLeaderboard(ctx context.Context, limit, offset int) ([]types.Entry, error) {
	limit, err := s.pageLimit(limit)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset %d: %w", offset, ErrLimitExceeded)
	}

	start := time.Now()
	metrics.RecordLeaderboardQuery("global")
	defer func() {
		metrics.ObserveLeaderboardLatency("global", float64(time.Since(start).Milliseconds()))
	}()

	if s.board != nil {
		if entries, ok := s.board.GetGlobalPage(ctx, limit, offset); ok {
			return entries, nil
		}
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	entries, err := s.store.GlobalLeaderboard(opCtx, limit, offset)
	if err != nil {
		return nil, s.storeErr(fmt.Errorf("global leaderboard: %w", err))
	}
	if s.board != nil {
		s.board.SetGlobalPage(ctx, limit, offset, entries)
	}
	return entries, nil
}

// GameLeaderboard returns one page of the per-game leaderboard for
// gameType. Ordering is by best persisted session ranking score; the
// grouping runs over the score record store, not the denormalized
// per-game stats.
func (s *Service) GameLeaderboard(ctx context.Context, gameType game.Type, limit, offset int) ([]types.GameEntry, error) {
	if !gameType.Valid() {
		return nil, fmt.Errorf("game %q: %w", gameType, game.ErrUnknownType)
	}
	limit, err := s.pageLimit(limit)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset %d: %w", offset, ErrLimitExceeded)
	}

	start := time.Now()
	metrics.RecordLeaderboardQuery("game")
	defer func() {
		metrics.ObserveLeaderboardLatency("game", float64(time.Since(start).Milliseconds()))
	}()

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	entries, err := s.store.GameLeaderboard(opCtx, gameType, limit, offset)
	if err != nil {
		return nil, s.storeErr(fmt.Errorf("game leaderboard %s: %w", gameType, err))
	}
	return entries, nil
}

// GetPlayerStats returns the aggregate snapshot plus the player's current
// global rank.
func (s *Service) GetPlayerStats(ctx context.Context, playerID string) (PlayerStats, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	agg, err := s.store.Aggregate(opCtx, playerID)
	if err != nil {
		return PlayerStats{}, s.storeErr(fmt.Errorf("player %s: %w", playerID, err))
	}

	stats := PlayerStats{
		PlayerID:       agg.PlayerID,
		DisplayName:    agg.DisplayName,
		Active:         agg.Active,
		TotalScore:     agg.TotalScore,
		GamesPlayed:    agg.GamesPlayed,
		AverageScore:   agg.AverageScore,
		Level:          agg.Level,
		Streak:         agg.Streak,
		CompositeScore: agg.CompositeScore,
		PerGame:        agg.PerGame,
	}
	if agg.Active {
		rank, err := s.store.GlobalRank(opCtx, playerID)
		if err != nil {
			return PlayerStats{}, s.storeErr(fmt.Errorf("rank for player %s: %w", playerID, err))
		}
		stats.Rank = rank
	}
	return stats, nil
}

// History returns a player's recent score records for one game type,
// newest first.
func (s *Service) History(ctx context.Context, playerID string, gameType game.Type, limit, offset int) ([]model.ScoreRecord, error) {
	if !gameType.Valid() {
		return nil, fmt.Errorf("game %q: %w", gameType, game.ErrUnknownType)
	}
	limit, err := s.pageLimit(limit)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset %d: %w", offset, ErrLimitExceeded)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if _, err := s.store.Aggregate(opCtx, playerID); err != nil {
		return nil, s.storeErr(fmt.Errorf("player %s: %w", playerID, err))
	}
	records, err := s.store.PlayerHistory(opCtx, playerID, gameType, limit, offset)
	if err != nil {
		return nil, s.storeErr(fmt.Errorf("history for player %s, game %s: %w", playerID, gameType, err))
	}
	return records, nil
}

// GameAnalytics summarizes every stored record of one game type.
func (s *Service) GameAnalytics(ctx context.Context, gameType game.Type) (types.GameAnalytics, error) {
	if !gameType.Valid() {
		return types.GameAnalytics{}, fmt.Errorf("game %q: %w", gameType, game.ErrUnknownType)
	}
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	analytics, err := s.store.GameAnalytics(opCtx, gameType)
	if err != nil {
		return types.GameAnalytics{}, s.storeErr(fmt.Errorf("analytics for game %s: %w", gameType, err))
	}
	return analytics, nil
}

// pageLimit applies the default and maximum page sizes.
func (s *Service) pageLimit(limit int) (int, error) {
	if limit <= 0 {
		return s.defaultLimit, nil
	}
	if limit > s.maxLimit {
		return 0, fmt.Errorf("limit %d exceeds maximum %d: %w", limit, s.maxLimit, ErrLimitExceeded)
	}
	return limit, nil
}
