// Package model contains the durable domain records passed between layers:
// the immutable per-session score record, the mutable per-player aggregate,
// and the submission payload accepted from the request tier.
package model

import (
	"fmt"
	"time"

	"github.com/mindtrain/rankengine/internal/domain/formula"
	"github.com/mindtrain/rankengine/internal/domain/game"
)

// ScoreRecord is one persisted outcome of a single game session.
// Immutable once written; SessionScore is computed at write time and never
// recomputed afterwards except by the recomputation job.
type ScoreRecord struct {
	ID              string    `json:"id"`
	PlayerID        string    `json:"player_id"`
	GameType        game.Type `json:"game_type"`
	Score           float64   `json:"score"`
	Level           int       `json:"level"`
	DurationSeconds float64   `json:"duration_seconds"`
	CorrectAnswers  int       `json:"correct_answers"`
	TotalQuestions  int       `json:"total_questions"`
	AccuracyPct     float64   `json:"accuracy_pct"`
	SessionScore    int       `json:"session_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// PerGameStats is the denormalized per-game-type rollup inside a player
// aggregate. Best holds the best score, or the best (lowest) time for
// time-scored game types.
type PerGameStats struct {
	GamesPlayed  int64     `json:"games_played"`
	Best         float64   `json:"best"`
	Average      float64   `json:"average"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// PlayerAggregate is the durable rollup of a player's lifetime performance.
// It is mutated exactly once per accepted score record, always under the
// player's update serialization, and never deleted except with the player.
type PlayerAggregate struct {
	PlayerID       string
	DisplayName    string
	Active         bool
	TotalScore     float64
	GamesPlayed    int64
	AverageScore   float64
	Level          int
	Streak         int
	CompositeScore int
	PerGame        map[game.Type]PerGameStats
	// Version is the optimistic-concurrency token bumped on every write.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPlayerAggregate returns a zeroed aggregate for a freshly registered
// player. All counters start at zero; the composite score of an empty
// aggregate still carries the level-1 floor.
func NewPlayerAggregate(playerID, displayName string, now time.Time) PlayerAggregate {
	agg := PlayerAggregate{
		PlayerID:    playerID,
		DisplayName: displayName,
		Active:      true,
		PerGame:     make(map[game.Type]PerGameStats),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	agg.Refresh()
	return agg
}

// Apply folds one accepted score record into the aggregate. The caller must
// hold the player's update serialization; Apply itself is pure bookkeeping.
func (a *PlayerAggregate) Apply(rec ScoreRecord) {
	a.GamesPlayed++
	a.TotalScore += rec.Score

	gs := a.PerGame[rec.GameType]
	value := rec.Score
	if rec.GameType.TimeScored() {
		value = rec.DurationSeconds
	}
	if gs.GamesPlayed == 0 {
		gs.Best = value
	} else if rec.GameType.TimeScored() {
		if value < gs.Best {
			gs.Best = value
		}
	} else if value > gs.Best {
		gs.Best = value
	}
	gs.Average = formula.IncrementalAverage(gs.Average, gs.GamesPlayed, value)
	gs.GamesPlayed++
	gs.LastPlayedAt = rec.CreatedAt
	if a.PerGame == nil {
		a.PerGame = make(map[game.Type]PerGameStats)
	}
	a.PerGame[rec.GameType] = gs

	a.Refresh()
	a.UpdatedAt = rec.CreatedAt
}

// Refresh recomputes every derived field (average score, level, composite
// ranking score) from the stored counters. This is the single code path for
// that arithmetic, shared by the incremental update protocol and the batch
// recomputation job. Returns true if any derived field changed.
func (a *PlayerAggregate) Refresh() bool {
	var avg float64
	if a.GamesPlayed > 0 {
		avg = a.TotalScore / float64(a.GamesPlayed)
	}
	level := formula.Level(a.TotalScore)
	composite := formula.CompositeScore(a.TotalScore, level, a.GamesPlayed, avg, a.Streak)

	changed := avg != a.AverageScore || level != a.Level || composite != a.CompositeScore
	a.AverageScore = avg
	a.Level = level
	a.CompositeScore = composite
	return changed
}

// Clone returns a deep copy, so store snapshots never alias the live map.
func (a PlayerAggregate) Clone() PlayerAggregate {
	out := a
	out.PerGame = make(map[game.Type]PerGameStats, len(a.PerGame))
	for k, v := range a.PerGame {
		out.PerGame[k] = v
	}
	return out
}

// Submission is the validated payload of one game session outcome,
// already authenticated to a player by the request tier.
type Submission struct {
	GameType        game.Type
	Score           float64
	Level           int
	DurationSeconds float64
	CorrectAnswers  int
	TotalQuestions  int
}

// Validate checks the submission shape before anything is persisted.
// Violations are reported as ErrValidation with the offending field.
func (s Submission) Validate() error {
	if !s.GameType.Valid() {
		return fmt.Errorf("%w: gameType %q: %s", ErrValidation, s.GameType, game.ErrUnknownType)
	}
	if s.Score < 0 {
		return fieldErr("score", "must be non-negative")
	}
	if s.Level < 1 {
		return fieldErr("level", "must be at least 1")
	}
	if s.DurationSeconds <= 0 {
		return fieldErr("durationSeconds", "must be positive")
	}
	if s.CorrectAnswers < 0 {
		return fieldErr("correctAnswers", "must be non-negative")
	}
	if s.TotalQuestions < 0 {
		return fieldErr("totalQuestions", "must be non-negative")
	}
	if s.CorrectAnswers > s.TotalQuestions {
		return fieldErr("correctAnswers", "must not exceed totalQuestions")
	}
	return nil
}

// Record materializes the immutable score record for this submission,
// deriving accuracy and the persisted session ranking score.
func (s Submission) Record(id, playerID string, now time.Time) ScoreRecord {
	accuracy := formula.AccuracyPct(s.CorrectAnswers, s.TotalQuestions)
	return ScoreRecord{
		ID:              id,
		PlayerID:        playerID,
		GameType:        s.GameType,
		Score:           s.Score,
		Level:           s.Level,
		DurationSeconds: s.DurationSeconds,
		CorrectAnswers:  s.CorrectAnswers,
		TotalQuestions:  s.TotalQuestions,
		AccuracyPct:     accuracy,
		SessionScore:    formula.SessionScore(s.Score, s.Level, s.DurationSeconds, accuracy),
		CreatedAt:       now,
	}
}

func fieldErr(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}
