package loadtest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mindtrain/rankengine/pkg/logger"
)

// Run executes the complete load test: register players, submit results
// concurrently, then verify server aggregates against a local
// recomputation.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting ranking load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
	)

	client := newHTTPClient(cfg.Timeout)

	if err := client.getJSON(ctx, cfg.BaseURL+"/healthz", nil); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	players := generatePlayers(cfg.Players)
	if err := registerPlayers(ctx, cfg, client, players, stats); err != nil {
		return fmt.Errorf("player registration failed: %w", err)
	}

	subs := generateSubmissions(players, cfg.Submissions)
	stats.SubmissionsAttempted = len(subs)
	submitResults(ctx, cfg, client, subs, stats)

	if err := verifyAggregates(ctx, cfg, client, subs, stats); err != nil {
		return fmt.Errorf("aggregate verification failed: %w", err)
	}
	if err := verifyLeaderboard(ctx, cfg, client); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	stats.Duration = time.Since(stats.StartTime)
	logger.Get().Info(ctx, "load test completed",
		logger.Int("playersRegistered", stats.PlayersRegistered),
		logger.Int64("accepted", stats.SubmissionsAccepted),
		logger.Int64("failed", stats.SubmissionsFailed),
		logger.Int("verified", stats.PlayersVerified),
		logger.Int("mismatched", stats.PlayersMismatched),
		logger.Duration("duration", stats.Duration),
	)
	if stats.PlayersMismatched > 0 {
		return fmt.Errorf("%d players reported aggregates that differ from the local recomputation", stats.PlayersMismatched)
	}
	return nil
}

func registerPlayers(ctx context.Context, cfg *Config, client *httpClient, players []registerRequest, stats *Stats) error {
	url := cfg.BaseURL + "/api/v1/players"
	for _, p := range players {
		status, err := client.postJSON(ctx, url, p)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return fmt.Errorf("register %s: status %d", p.PlayerID, status)
		}
		stats.PlayersRegistered++
	}
	return nil
}

// submitResults pushes submissions through a bounded worker pool. Workers
// share one channel; per-player ordering is the service's problem, not
// ours, which is exactly the contention the test is after.
func submitResults(ctx context.Context, cfg *Config, client *httpClient, subs []resultRequest, stats *Stats) {
	url := cfg.BaseURL + "/api/v1/results"
	work := make(chan resultRequest, cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range work {
				status, err := client.postJSON(ctx, url, sub)
				if err != nil || status != http.StatusCreated {
					atomic.AddInt64(&stats.SubmissionsFailed, 1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "submission rejected",
							logger.String("playerID", sub.PlayerID),
							logger.Int("status", status),
							logger.Error(err),
						)
					}
					continue
				}
				atomic.AddInt64(&stats.SubmissionsAccepted, 1)
			}
		}()
	}

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return
		case work <- sub:
		}
	}
	close(work)
	wg.Wait()
}
