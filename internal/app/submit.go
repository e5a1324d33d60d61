package service

import (
	"context"
	"fmt"

	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/pkg/logger"
	"github.com/mindtrain/rankengine/pkg/metrics"
)

// SubmitOutcome is returned to the caller after an accepted submission.
type SubmitOutcome struct {
	RecordID          string  `json:"record_id"`
	SessionScore      int     `json:"session_score"`
	AccuracyPct       float64 `json:"accuracy_pct"`
	NewTotalScore     float64 `json:"new_total_score"`
	NewLevel          int     `json:"new_level"`
	NewCompositeScore int     `json:"new_composite_score"`
	NewGamesPlayed    int64   `json:"new_games_played"`
	PersonalBest      bool    `json:"personal_best"`
}

// SubmitResult runs the aggregate update protocol for one game session
// outcome: validate, persist the immutable score record with its session
// ranking score, then fold it into the player aggregate under the player's
// update serialization. The record write happens before the aggregate
// update becomes observable, so leaderboard reads never see an aggregate
// ahead of its records.
func (s *Service) SubmitResult(ctx context.Context, playerID string, sub model.Submission) (SubmitOutcome, error) {
	if err := sub.Validate(); err != nil {
		metrics.RecordSubmissionRejected("validation")
		return SubmitOutcome{}, fmt.Errorf("player %s, game %s: %w", playerID, sub.GameType, err)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	agg, err := s.store.Aggregate(opCtx, playerID)
	if err != nil {
		metrics.RecordSubmissionRejected("unknown_player")
		return SubmitOutcome{}, s.storeErr(fmt.Errorf("player %s: %w", playerID, err))
	}
	if !agg.Active {
		metrics.RecordSubmissionRejected("inactive_player")
		return SubmitOutcome{}, fmt.Errorf("player %s: %w", playerID, ErrPlayerInactive)
	}

	rec := sub.Record(s.newID(), playerID, s.now().UTC())
	if err := s.store.AppendRecord(opCtx, rec); err != nil {
		metrics.RecordSubmissionRejected("store")
		return SubmitOutcome{}, s.storeErr(fmt.Errorf("append record for player %s, game %s: %w", playerID, rec.GameType, err))
	}

	var prev model.PerGameStats
	updated, err := s.store.UpdateAggregate(opCtx, playerID, func(a *model.PlayerAggregate) error {
		prev = a.PerGame[rec.GameType]
		a.Apply(rec)
		return nil
	})
	if err != nil {
		// The record is already durable; the aggregate stayed untouched.
		s.logger.Error(ctx, "aggregate update failed after record write",
			logger.String("playerID", playerID),
			logger.String("gameType", rec.GameType.String()),
			logger.String("recordID", rec.ID),
			logger.Error(err),
		)
		metrics.RecordSubmissionRejected("store")
		return SubmitOutcome{}, s.storeErr(fmt.Errorf("update aggregate for player %s, game %s: %w", playerID, rec.GameType, err))
	}

	metrics.RecordSubmissionAccepted(rec.GameType.String())
	metrics.ObserveSessionScore(float64(rec.SessionScore))
	metrics.RecordAggregateUpdate()

	s.logger.Debug(ctx, "submission accepted",
		logger.String("playerID", playerID),
		logger.String("gameType", rec.GameType.String()),
		logger.Int("sessionScore", rec.SessionScore),
		logger.Int("newComposite", updated.CompositeScore),
	)

	return SubmitOutcome{
		RecordID:          rec.ID,
		SessionScore:      rec.SessionScore,
		AccuracyPct:       rec.AccuracyPct,
		NewTotalScore:     updated.TotalScore,
		NewLevel:          updated.Level,
		NewCompositeScore: updated.CompositeScore,
		NewGamesPlayed:    updated.GamesPlayed,
		PersonalBest:      personalBest(prev, rec),
	}, nil
}

// personalBest reports whether rec improved the player's best for its game
// type, honoring the per-type comparison direction.
func personalBest(prev model.PerGameStats, rec model.ScoreRecord) bool {
	if prev.GamesPlayed == 0 {
		return true
	}
	if rec.GameType.TimeScored() {
		return rec.DurationSeconds < prev.Best
	}
	return rec.Score > prev.Best
}
