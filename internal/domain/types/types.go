// Package types contains the read-side projections shared between the
// query engine, the stores, and the HTTP adapter.
package types

import "time"

// Entry is one row of the global leaderboard. Rank is assigned at query
// time, 1-based and relative to the full ordered set, never stored.
type Entry struct {
	Rank           int     `json:"rank"`
	PlayerID       string  `json:"player_id"`
	DisplayName    string  `json:"display_name"`
	CompositeScore int     `json:"composite_score"`
	TotalScore     float64 `json:"total_score"`
	Level          int     `json:"level"`
	GamesPlayed    int64   `json:"games_played"`
}

// GameEntry is one row of a per-game leaderboard. Ordering is by the best
// persisted session ranking score; BestValue carries the best raw score
// (or best time for time-scored games) for display.
type GameEntry struct {
	Rank             int       `json:"rank"`
	PlayerID         string    `json:"player_id"`
	DisplayName      string    `json:"display_name"`
	BestSessionScore int       `json:"best_session_score"`
	BestValue        float64   `json:"best_value"`
	GamesPlayed      int64     `json:"games_played"`
	LastPlayedAt     time.Time `json:"last_played_at"`
}

// GameAnalytics summarizes all recorded sessions of one game type.
type GameAnalytics struct {
	TotalGames      int64   `json:"total_games"`
	UniquePlayers   int64   `json:"unique_players"`
	AverageScore    float64 `json:"average_score"`
	MaxScore        float64 `json:"max_score"`
	MinScore        float64 `json:"min_score"`
	AverageDuration float64 `json:"average_duration"`
	AverageAccuracy float64 `json:"average_accuracy"`
}

// RecomputeReport is the outcome of one recomputation run.
type RecomputeReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
