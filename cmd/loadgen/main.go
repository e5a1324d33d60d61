// Command loadgen drives a running rankengine instance with synthetic
// players and score submissions, then verifies the reported aggregates.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/mindtrain/rankengine/internal/loadtest"
	"github.com/mindtrain/rankengine/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers     = 200
	defaultSubmissions = 10000
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players     = flag.Int("players", defaultPlayers, "Number of synthetic players to register")
		submissions = flag.Int("submissions", defaultSubmissions, "Number of score submissions")
		topN        = flag.Int("top", defaultTopN, "Leaderboard page size to verify")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:     *baseURL,
		Players:     *players,
		Submissions: *submissions,
		Workers:     *workers,
		Timeout:     *timeout,
		TopN:        *topN,
		Verbose:     *verbose,
	}
	if err := loadtest.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
