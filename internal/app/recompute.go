package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	repository "github.com/mindtrain/rankengine/internal/adapters/repository"
	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/internal/domain/types"
	"github.com/mindtrain/rankengine/pkg/logger"
	"github.com/mindtrain/rankengine/pkg/metrics"
)

// recomputing guards against overlapping batch runs.
var recomputing atomic.Bool //nolint:gochecknoglobals // single-flight guard for the batch job

// Recompute rebuilds every active player's derived aggregate fields from
// the stored counters: average score, level, and the composite ranking
// score under the current authoritative weights. It also backfills zeroed
// per-game stats for game types introduced after a player's last activity.
//
// The job is idempotent: a second run with no intervening submissions
// performs zero writes. Per-player failures are logged, counted, and
// skipped; they never abort the batch. Cancellation is honored between
// players, so a stopped run leaves no partially updated aggregate.
func (s *Service) Recompute(ctx context.Context) (types.RecomputeReport, error) {
	if !recomputing.CompareAndSwap(false, true) {
		return types.RecomputeReport{}, ErrAlreadyRunning
	}
	defer recomputing.Store(false)

	report := types.RecomputeReport{}

	listCtx, cancel := s.opCtx(ctx)
	ids, err := s.store.ActivePlayerIDs(listCtx)
	cancel()
	if err != nil {
		return report, s.storeErr(fmt.Errorf("list active players: %w", err))
	}

	s.logger.Info(ctx, "recomputation started", logger.Int("players", len(ids)))

	for _, id := range ids {
		// Checkpoint between players: a cancelled batch stops cleanly.
		if err := ctx.Err(); err != nil {
			s.logger.Warn(ctx, "recomputation cancelled",
				logger.Int("scanned", report.Scanned),
				logger.Int("updated", report.Updated),
			)
			metrics.RecordRecomputeRun(report.Updated, report.Failed)
			return report, err
		}

		report.Scanned++
		changed, err := s.recomputePlayer(ctx, id)
		if err != nil {
			report.Failed++
			s.logger.Error(ctx, "recomputation failed for player",
				logger.String("playerID", id),
				logger.Error(err),
			)
			continue
		}
		if changed {
			report.Updated++
		}
	}

	metrics.RecordRecomputeRun(report.Updated, report.Failed)
	s.logger.Info(ctx, "recomputation finished",
		logger.Int("scanned", report.Scanned),
		logger.Int("updated", report.Updated),
		logger.Int("failed", report.Failed),
	)

	if s.board != nil {
		s.board.Invalidate(ctx)
	}
	return report, nil
}

// recomputePlayer rewrites one player's derived fields, using the same
// per-player serialization as the live update protocol so a concurrent
// submission is never clobbered. The write is abandoned when nothing
// changed.
func (s *Service) recomputePlayer(ctx context.Context, playerID string) (bool, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.store.UpdateAggregate(opCtx, playerID, func(a *model.PlayerAggregate) error {
		changed := a.Refresh()

		for _, t := range game.All() {
			if _, ok := a.PerGame[t]; !ok {
				a.PerGame[t] = model.PerGameStats{}
				changed = true
			}
		}

		if !changed {
			return repository.ErrNoop
		}
		return nil
	})
	if errors.Is(err, repository.ErrNoop) {
		return false, nil
	}
	if err != nil {
		return false, s.storeErr(err)
	}
	return true, nil
}
