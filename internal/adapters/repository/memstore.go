package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/internal/domain/types"
	"github.com/mindtrain/rankengine/pkg/metrics"
)

// MemoryStore is the in-memory Store implementation used as the default
// backend and in tests.
//
// Serialization model: the outer RWMutex only guards map membership; every
// player owns a slot with its own mutex, so concurrent updates for
// different players never contend while updates for the same player are
// strictly serialized.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]*playerSlot

	recMu    sync.RWMutex
	byGame   map[game.Type][]model.ScoreRecord
	history  map[historyKey][]model.ScoreRecord
	records  int64
	capacity int

	closed bool
}

type playerSlot struct {
	mu  sync.Mutex
	agg model.PlayerAggregate
}

type historyKey struct {
	playerID string
	gameType game.Type
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCapacityHint pre-sizes the internal maps for an expected player count.
func WithCapacityHint(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(_ context.Context, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{capacity: 1024}
	for _, opt := range opts {
		opt(s)
	}
	s.players = make(map[string]*playerSlot, s.capacity)
	s.byGame = make(map[game.Type][]model.ScoreRecord)
	s.history = make(map[historyKey][]model.ScoreRecord)
	return s
}

// CreatePlayer registers a zeroed aggregate for a new player.
func (s *MemoryStore) CreatePlayer(_ context.Context, playerID, displayName string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.players[playerID]; ok {
		return ErrPlayerExists
	}
	s.players[playerID] = &playerSlot{agg: model.NewPlayerAggregate(playerID, displayName, now)}
	return nil
}

// SetPlayerActive flips the active flag without touching counters.
func (s *MemoryStore) SetPlayerActive(ctx context.Context, playerID string, active bool) error {
	_, err := s.UpdateAggregate(ctx, playerID, func(a *model.PlayerAggregate) error {
		a.Active = active
		return nil
	})
	return err
}

// Aggregate returns a snapshot of the player's aggregate.
func (s *MemoryStore) Aggregate(_ context.Context, playerID string) (model.PlayerAggregate, error) {
	slot, err := s.slot(playerID)
	if err != nil {
		return model.PlayerAggregate{}, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.agg.Clone(), nil
}

// UpdateAggregate applies a read-modify-write under the player's slot lock.
func (s *MemoryStore) UpdateAggregate(ctx context.Context, playerID string, apply func(*model.PlayerAggregate) error) (model.PlayerAggregate, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("update_aggregate", float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return model.PlayerAggregate{}, ErrTimeout
	}
	slot, err := s.slot(playerID)
	if err != nil {
		return model.PlayerAggregate{}, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	next := slot.agg.Clone()
	if err := apply(&next); err != nil {
		if errors.Is(err, ErrNoop) {
			return slot.agg.Clone(), ErrNoop
		}
		return model.PlayerAggregate{}, err
	}
	next.Version = slot.agg.Version + 1
	slot.agg = next
	return next.Clone(), nil
}

// ActivePlayerIDs lists active players ordered by id.
func (s *MemoryStore) ActivePlayerIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	ids := make([]string, 0, len(s.players))
	for id, slot := range s.players {
		slot.mu.Lock()
		active := slot.agg.Active
		slot.mu.Unlock()
		if active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AppendRecord persists one immutable score record.
func (s *MemoryStore) AppendRecord(ctx context.Context, rec model.ScoreRecord) error {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("append_record", float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return ErrTimeout
	}
	if s.isClosed() {
		return ErrClosed
	}
	s.recMu.Lock()
	defer s.recMu.Unlock()
	s.byGame[rec.GameType] = append(s.byGame[rec.GameType], rec)
	key := historyKey{playerID: rec.PlayerID, gameType: rec.GameType}
	s.history[key] = append(s.history[key], rec)
	s.records++
	return nil
}

// PlayerHistory returns a player's records for one game type, newest first.
func (s *MemoryStore) PlayerHistory(_ context.Context, playerID string, gameType game.Type, limit, offset int) ([]model.ScoreRecord, error) {
	if limit < 1 || offset < 0 {
		return nil, ErrInvalidLimit
	}
	s.recMu.RLock()
	defer s.recMu.RUnlock()
	all := s.history[historyKey{playerID: playerID, gameType: gameType}]
	// Stored in append order; serve newest first.
	out := make([]model.ScoreRecord, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// GlobalLeaderboard returns the requested page in canonical global order.
func (s *MemoryStore) GlobalLeaderboard(_ context.Context, limit, offset int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("global_leaderboard", float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 || offset < 0 {
		return nil, ErrInvalidLimit
	}
	ordered := s.orderedAggregates()
	entries := make([]types.Entry, 0, limit)
	for i := offset; i < len(ordered) && len(entries) < limit; i++ {
		agg := ordered[i]
		entries = append(entries, types.Entry{
			Rank:           i + 1,
			PlayerID:       agg.PlayerID,
			DisplayName:    agg.DisplayName,
			CompositeScore: agg.CompositeScore,
			TotalScore:     agg.TotalScore,
			Level:          agg.Level,
			GamesPlayed:    agg.GamesPlayed,
		})
	}
	return entries, nil
}

// GlobalRank returns the 1-based global rank for an active player.
func (s *MemoryStore) GlobalRank(_ context.Context, playerID string) (int, error) {
	for i, agg := range s.orderedAggregates() {
		if agg.PlayerID == playerID {
			return i + 1, nil
		}
	}
	return 0, ErrPlayerNotFound
}

// GameLeaderboard groups one game type's records by player and orders by
// best persisted session ranking score.
func (s *MemoryStore) GameLeaderboard(_ context.Context, gameType game.Type, limit, offset int) ([]types.GameEntry, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("game_leaderboard", float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 || offset < 0 {
		return nil, ErrInvalidLimit
	}
	if !gameType.Valid() {
		return nil, game.ErrUnknownType
	}

	s.recMu.RLock()
	best := make(map[string]types.GameEntry)
	lower := gameType.TimeScored()
	for _, rec := range s.byGame[gameType] {
		entry, seen := best[rec.PlayerID]
		value := rec.Score
		if lower {
			value = rec.DurationSeconds
		}
		if !seen {
			entry = types.GameEntry{
				PlayerID:         rec.PlayerID,
				BestSessionScore: rec.SessionScore,
				BestValue:        value,
			}
		} else {
			if rec.SessionScore > entry.BestSessionScore {
				entry.BestSessionScore = rec.SessionScore
			}
			if (lower && value < entry.BestValue) || (!lower && value > entry.BestValue) {
				entry.BestValue = value
			}
		}
		entry.GamesPlayed++
		if rec.CreatedAt.After(entry.LastPlayedAt) {
			entry.LastPlayedAt = rec.CreatedAt
		}
		best[rec.PlayerID] = entry
	}
	s.recMu.RUnlock()

	rows := make([]types.GameEntry, 0, len(best))
	s.mu.RLock()
	for playerID, entry := range best {
		slot, ok := s.players[playerID]
		if !ok {
			continue
		}
		slot.mu.Lock()
		active := slot.agg.Active
		entry.DisplayName = slot.agg.DisplayName
		slot.mu.Unlock()
		if !active {
			continue
		}
		rows = append(rows, entry)
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return GameEntryBefore(rows[i], rows[j]) })
	out := make([]types.GameEntry, 0, limit)
	for i := offset; i < len(rows) && len(out) < limit; i++ {
		row := rows[i]
		row.Rank = i + 1
		out = append(out, row)
	}
	return out, nil
}

// GameAnalytics summarizes every record of one game type.
func (s *MemoryStore) GameAnalytics(_ context.Context, gameType game.Type) (types.GameAnalytics, error) {
	if !gameType.Valid() {
		return types.GameAnalytics{}, game.ErrUnknownType
	}
	s.recMu.RLock()
	defer s.recMu.RUnlock()

	recs := s.byGame[gameType]
	out := types.GameAnalytics{TotalGames: int64(len(recs))}
	if len(recs) == 0 {
		return out, nil
	}
	players := make(map[string]struct{})
	var sumScore, sumDuration, sumAccuracy float64
	out.MaxScore = recs[0].Score
	out.MinScore = recs[0].Score
	for _, rec := range recs {
		players[rec.PlayerID] = struct{}{}
		sumScore += rec.Score
		sumDuration += rec.DurationSeconds
		sumAccuracy += rec.AccuracyPct
		if rec.Score > out.MaxScore {
			out.MaxScore = rec.Score
		}
		if rec.Score < out.MinScore {
			out.MinScore = rec.Score
		}
	}
	n := float64(len(recs))
	out.UniquePlayers = int64(len(players))
	out.AverageScore = sumScore / n
	out.AverageDuration = sumDuration / n
	out.AverageAccuracy = sumAccuracy / n
	return out, nil
}

// Counts reports the number of tracked players and stored records.
func (s *MemoryStore) Counts(_ context.Context) (players, records int64) {
	s.mu.RLock()
	players = int64(len(s.players))
	s.mu.RUnlock()
	s.recMu.RLock()
	records = s.records
	s.recMu.RUnlock()
	return players, records
}

// Close marks the store closed; subsequent writes fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *MemoryStore) slot(playerID string) (*playerSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	slot, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return slot, nil
}

// orderedAggregates snapshots every active aggregate and sorts it into the
// canonical global order. Leaderboard reads are lock-free with respect to
// in-flight updates beyond the brief per-slot copy.
func (s *MemoryStore) orderedAggregates() []model.PlayerAggregate {
	s.mu.RLock()
	snapshot := make([]model.PlayerAggregate, 0, len(s.players))
	for _, slot := range s.players {
		slot.mu.Lock()
		if slot.agg.Active {
			snapshot = append(snapshot, slot.agg.Clone())
		}
		slot.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return EntryBefore(snapshot[i], snapshot[j]) })
	return snapshot
}
