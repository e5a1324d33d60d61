package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/mindtrain/rankengine/internal/adapters/http/api"
	"github.com/mindtrain/rankengine/internal/adapters/http/swagger"
	repository "github.com/mindtrain/rankengine/internal/adapters/repository"
	"github.com/mindtrain/rankengine/internal/adapters/repository/postgres"
	"github.com/mindtrain/rankengine/internal/adapters/repository/redisboard"
	app "github.com/mindtrain/rankengine/internal/app"
	"github.com/mindtrain/rankengine/internal/config"
	"github.com/mindtrain/rankengine/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "store initialization failed", logger.Error(err))
		return
	}

	opts := []app.Option{
		app.WithStore(store),
		app.WithLogger(log),
		app.WithStoreTimeout(time.Duration(cfg.StoreTimeoutMS) * time.Millisecond),
		app.WithLeaderboardLimits(cfg.MaxLeaderboardLimit, cfg.DefaultLeaderboardLimit),
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache := redisboard.New(client,
			redisboard.WithTTL(time.Duration(cfg.RedisLeaderboardTTLSeconds)*time.Second),
		)
		opts = append(opts, app.WithBoardCache(cache))
		log.Info(ctx, "leaderboard cache enabled", logger.String("redis_addr", cfg.RedisAddr))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	router := api.NewServer(svc).Router()
	swagger.Register(router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// buildStore selects the durable backend from configuration.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		log.Info(ctx, "using postgres store")
		return postgres.New(ctx, cfg.PostgresDSN)
	default:
		log.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(ctx), nil
	}
}

// startServiceMetricsUpdater periodically refreshes the population gauges;
// Stats itself pushes the counts into the metrics package.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.Stats()
		}
	}
}
