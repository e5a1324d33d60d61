// Package service provides the core ranking service that implements the
// dependencies required by the HTTP API: the submission protocol, the
// leaderboard query engine, and the batch recomputation job.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	repository "github.com/mindtrain/rankengine/internal/adapters/repository"
	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/internal/domain/types"
	"github.com/mindtrain/rankengine/pkg/logger"
	"github.com/mindtrain/rankengine/pkg/metrics"
)

// BoardCache is the optional read-through cache for global leaderboard
// pages. Implementations bound staleness with a TTL; the engine treats a
// miss the same as no cache at all.
type BoardCache interface {
	GetGlobalPage(ctx context.Context, limit, offset int) ([]types.Entry, bool)
	SetGlobalPage(ctx context.Context, limit, offset int, entries []types.Entry)
	Invalidate(ctx context.Context)
}

// Service implements the ranking and leaderboard aggregation engine.
type Service struct {
	mu sync.RWMutex

	store repository.Store
	board BoardCache

	storeTimeout time.Duration
	maxLimit     int
	defaultLimit int

	now   func() time.Time
	newID func() string

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the durable store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithBoardCache enables the leaderboard page cache.
func WithBoardCache(cache BoardCache) Option {
	return func(s *Service) {
		s.board = cache
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreTimeout bounds every store operation.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithLeaderboardLimits sets the maximum and default page sizes.
func WithLeaderboardLimits(maxLimit, defaultLimit int) Option {
	return func(s *Service) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides record id generation. Used by tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeTimeout: 2 * time.Second,
		maxLimit:     100,
		defaultLimit: 50,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("maxLeaderboardLimit", s.maxLimit),
		logger.Duration("storeTimeout", s.storeTimeout),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "store close failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// RegisterPlayer creates a zeroed aggregate for a player known to the
// account collaborator. DisplayName is the engine's read-side projection
// of the player's identity.
func (s *Service) RegisterPlayer(ctx context.Context, playerID, displayName string) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.CreatePlayer(opCtx, playerID, displayName, s.now().UTC()); err != nil {
		return s.storeErr(fmt.Errorf("register player %s: %w", playerID, err))
	}
	return nil
}

// DeactivatePlayer hides a player from every leaderboard without touching
// counters.
func (s *Service) DeactivatePlayer(ctx context.Context, playerID string) error {
	return s.setActive(ctx, playerID, false)
}

// ReactivatePlayer restores a previously deactivated player.
func (s *Service) ReactivatePlayer(ctx context.Context, playerID string) error {
	return s.setActive(ctx, playerID, true)
}

func (s *Service) setActive(ctx context.Context, playerID string, active bool) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.SetPlayerActive(opCtx, playerID, active); err != nil {
		return s.storeErr(fmt.Errorf("set player %s active=%t: %w", playerID, active, err))
	}
	return nil
}

// SetStreak records the collaborator-owned streak signal and refreshes the
// composite ranking score that depends on it.
func (s *Service) SetStreak(ctx context.Context, playerID string, streak int) error {
	if streak < 0 {
		return fmt.Errorf("player %s: %w: streak must be non-negative", playerID, model.ErrValidation)
	}
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	_, err := s.store.UpdateAggregate(opCtx, playerID, func(a *model.PlayerAggregate) error {
		a.Streak = streak
		a.Refresh()
		a.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return s.storeErr(fmt.Errorf("set streak for player %s: %w", playerID, err))
	}
	return nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":             s.started,
		"maxLeaderboardLimit": s.maxLimit,
		"storeTimeoutMs":      s.storeTimeout.Milliseconds(),
	}
	if s.started {
		players, records := s.store.Counts(context.Background())
		stats["players"] = players
		stats["records"] = records
		metrics.UpdateTotalPlayers(players)
		metrics.UpdateTotalRecords(records)
	}
	return stats
}

// opCtx bounds a store operation with the configured timeout.
func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// storeErr maps context deadline expiry onto the retryable timeout kind so
// callers see one storage-timeout error regardless of backend.
func (s *Service) storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", repository.ErrTimeout, err)
	}
	return err
}
