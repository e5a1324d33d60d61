package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
)

// floatEqual compares two float64 values with a small tolerance for
// floating-point precision.
func floatEqual(a, b float64) bool {
	const tolerance = 1e-9
	return math.Abs(a-b) < tolerance
}

func mustCreate(t *testing.T, s *MemoryStore, id string) {
	t.Helper()
	if err := s.CreatePlayer(context.Background(), id, "name-"+id, time.Now().UTC()); err != nil {
		t.Fatalf("create player %s: %v", id, err)
	}
}

func submitRecord(t *testing.T, s *MemoryStore, playerID string, sub model.Submission, at time.Time) {
	t.Helper()
	ctx := context.Background()
	rec := sub.Record(fmt.Sprintf("%s-%d", playerID, at.UnixNano()), playerID, at)
	if err := s.AppendRecord(ctx, rec); err != nil {
		t.Fatalf("append record: %v", err)
	}
	if _, err := s.UpdateAggregate(ctx, playerID, func(a *model.PlayerAggregate) error {
		a.Apply(rec)
		return nil
	}); err != nil {
		t.Fatalf("update aggregate: %v", err)
	}
}

func TestMemoryStore_PlayerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)

	mustCreate(t, store, "p1")

	if err := store.CreatePlayer(ctx, "p1", "again", time.Now()); !errors.Is(err, ErrPlayerExists) {
		t.Errorf("expected ErrPlayerExists, got %v", err)
	}

	agg, err := store.Aggregate(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !agg.Active || agg.Level != 1 || agg.GamesPlayed != 0 {
		t.Errorf("unexpected fresh aggregate: %+v", agg)
	}

	if _, err := store.Aggregate(ctx, "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}

	if err := store.SetPlayerActive(ctx, "p1", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	ids, err := store.ActivePlayerIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("deactivated player still listed: %v", ids)
	}
}

func TestMemoryStore_UpdateAggregate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	mustCreate(t, store, "p1")

	updated, err := store.UpdateAggregate(ctx, "p1", func(a *model.PlayerAggregate) error {
		a.TotalScore = 500
		a.GamesPlayed = 1
		a.Refresh()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("expected version 1, got %d", updated.Version)
	}

	// An apply returning ErrNoop abandons the write entirely.
	same, err := store.UpdateAggregate(ctx, "p1", func(a *model.PlayerAggregate) error {
		return ErrNoop
	})
	if !errors.Is(err, ErrNoop) {
		t.Fatalf("expected ErrNoop, got %v", err)
	}
	if same.Version != 1 {
		t.Errorf("noop bumped version to %d", same.Version)
	}

	// An apply returning any other error leaves the aggregate untouched.
	boom := errors.New("boom")
	if _, err := store.UpdateAggregate(ctx, "p1", func(a *model.PlayerAggregate) error {
		a.TotalScore = 999999
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected apply error, got %v", err)
	}
	agg, _ := store.Aggregate(ctx, "p1")
	if agg.TotalScore != 500 || agg.Version != 1 {
		t.Errorf("failed apply leaked state: %+v", agg)
	}
}

func TestMemoryStore_ConcurrentUpdatesExact(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	mustCreate(t, store, "p1")

	sub := model.Submission{
		GameType:        game.NumberMemory,
		Score:           10,
		Level:           1,
		DurationSeconds: 60,
		CorrectAnswers:  1,
		TotalQuestions:  1,
	}

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := sub.Record(fmt.Sprintf("r%d", i), "p1", time.Now().UTC())
			if err := store.AppendRecord(ctx, rec); err != nil {
				t.Errorf("append: %v", err)
				return
			}
			if _, err := store.UpdateAggregate(ctx, "p1", func(a *model.PlayerAggregate) error {
				a.Apply(rec)
				return nil
			}); err != nil {
				t.Errorf("update: %v", err)
			}
		}(i)
	}
	wg.Wait()

	agg, err := store.Aggregate(ctx, "p1")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.GamesPlayed != n {
		t.Errorf("expected gamesPlayed %d, got %d", n, agg.GamesPlayed)
	}
	if agg.TotalScore != float64(n)*10 {
		t.Errorf("expected totalScore %v exactly, got %v", float64(n)*10, agg.TotalScore)
	}
	if agg.Version != n {
		t.Errorf("expected version %d, got %d", n, agg.Version)
	}
	if !floatEqual(agg.AverageScore, 10) {
		t.Errorf("expected averageScore 10, got %v", agg.AverageScore)
	}
}

func TestMemoryStore_GlobalOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)

	// Three players engineered into a composite tie so the later
	// tie-breaks decide, plus one clear leader.
	seed := []struct {
		id        string
		total     float64
		games     int64
		composite int
		level     int
	}{
		{"leader", 9000, 10, 6000, 10},
		{"tie-b", 4000, 10, 3000, 5},
		{"tie-a", 4000, 10, 3000, 5},
		{"lowtotal", 3000, 40, 3000, 4},
	}
	for _, p := range seed {
		mustCreate(t, store, p.id)
		p := p
		if _, err := store.UpdateAggregate(ctx, p.id, func(a *model.PlayerAggregate) error {
			a.TotalScore = p.total
			a.GamesPlayed = p.games
			a.AverageScore = p.total / float64(p.games)
			a.Level = p.level
			a.CompositeScore = p.composite
			return nil
		}); err != nil {
			t.Fatalf("seed %s: %v", p.id, err)
		}
	}

	entries, err := store.GlobalLeaderboard(ctx, 10, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []string{"leader", "tie-a", "tie-b", "lowtotal"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, id := range want {
		if entries[i].PlayerID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, entries[i].PlayerID)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, entries[i].Rank)
		}
	}

	// Ranks stay relative to the full set across pages.
	page, err := store.GlobalLeaderboard(ctx, 2, 2)
	if err != nil {
		t.Fatalf("paged leaderboard: %v", err)
	}
	if len(page) != 2 || page[0].Rank != 3 || page[1].Rank != 4 {
		t.Errorf("unexpected page ranks: %+v", page)
	}

	// Offset past the end yields an empty page, not an error.
	empty, err := store.GlobalLeaderboard(ctx, 10, 50)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty page, got %v entries, err %v", len(empty), err)
	}

	rank, err := store.GlobalRank(ctx, "tie-b")
	if err != nil || rank != 3 {
		t.Errorf("expected rank 3 for tie-b, got %d, err %v", rank, err)
	}
}

func TestMemoryStore_OrderingDeterministic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)

	// All ranking fields equal; only the player id breaks the tie.
	for _, id := range []string{"zeta", "alpha", "mike"} {
		mustCreate(t, store, id)
	}
	first, err := store.GlobalLeaderboard(ctx, 10, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	second, _ := store.GlobalLeaderboard(ctx, 10, 0)

	want := []string{"alpha", "mike", "zeta"}
	for i, id := range want {
		if first[i].PlayerID != id || second[i].PlayerID != id {
			t.Errorf("position %d: expected %s, got %s / %s", i, id, first[i].PlayerID, second[i].PlayerID)
		}
	}
}

func TestMemoryStore_GameLeaderboard(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	now := time.Now().UTC()

	for _, id := range []string{"p1", "p2", "p3"} {
		mustCreate(t, store, id)
	}

	sub := model.Submission{GameType: game.NumberMemory, Level: 1, DurationSeconds: 60, CorrectAnswers: 5, TotalQuestions: 10}

	// p1 plays twice, best raw 800; p2 once with 900; p3 plays a
	// different game entirely.
	sub.Score = 500
	submitRecord(t, store, "p1", sub, now)
	sub.Score = 800
	submitRecord(t, store, "p1", sub, now.Add(time.Minute))
	sub.Score = 900
	submitRecord(t, store, "p2", sub, now)
	other := sub
	other.GameType = game.Fractions
	submitRecord(t, store, "p3", other, now)

	entries, err := store.GameLeaderboard(ctx, game.NumberMemory, 10, 0)
	if err != nil {
		t.Fatalf("game leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "p2" || entries[1].PlayerID != "p1" {
		t.Errorf("unexpected order: %s, %s", entries[0].PlayerID, entries[1].PlayerID)
	}
	if entries[1].GamesPlayed != 2 || entries[1].BestValue != 800 {
		t.Errorf("grouping lost records: %+v", entries[1])
	}

	// Deactivated players disappear from the board.
	if err := store.SetPlayerActive(ctx, "p2", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	entries, _ = store.GameLeaderboard(ctx, game.NumberMemory, 10, 0)
	if len(entries) != 1 || entries[0].PlayerID != "p1" || entries[0].Rank != 1 {
		t.Errorf("expected only p1 at rank 1, got %+v", entries)
	}

	if _, err := store.GameLeaderboard(ctx, "pinball", 10, 0); !errors.Is(err, game.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestMemoryStore_GameLeaderboardTimeScored(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	now := time.Now().UTC()

	mustCreate(t, store, "fast")
	mustCreate(t, store, "slow")

	sub := model.Submission{GameType: game.SchulteTable, Score: 100, Level: 1, CorrectAnswers: 1, TotalQuestions: 1}
	sub.DurationSeconds = 90
	submitRecord(t, store, "fast", sub, now)
	sub.DurationSeconds = 30
	submitRecord(t, store, "fast", sub, now.Add(time.Minute))
	sub.DurationSeconds = 60
	submitRecord(t, store, "slow", sub, now)

	entries, err := store.GameLeaderboard(ctx, game.SchulteTable, 10, 0)
	if err != nil {
		t.Fatalf("game leaderboard: %v", err)
	}
	for _, e := range entries {
		if e.PlayerID == "fast" && e.BestValue != 30 {
			t.Errorf("expected best time 30, got %v", e.BestValue)
		}
		if e.PlayerID == "slow" && e.BestValue != 60 {
			t.Errorf("expected best time 60, got %v", e.BestValue)
		}
	}
}

func TestMemoryStore_PlayerHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	now := time.Now().UTC()
	mustCreate(t, store, "p1")

	sub := model.Submission{GameType: game.FlashAnzan, Level: 1, DurationSeconds: 60, CorrectAnswers: 1, TotalQuestions: 1}
	for i := 0; i < 5; i++ {
		sub.Score = float64(100 * (i + 1))
		submitRecord(t, store, "p1", sub, now.Add(time.Duration(i)*time.Minute))
	}

	recs, err := store.PlayerHistory(ctx, "p1", game.FlashAnzan, 3, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(recs) != 3 || recs[0].Score != 500 || recs[2].Score != 300 {
		t.Errorf("expected newest-first page [500 400 300], got %+v", recs)
	}

	recs, _ = store.PlayerHistory(ctx, "p1", game.FlashAnzan, 3, 3)
	if len(recs) != 2 || recs[0].Score != 200 {
		t.Errorf("expected offset page [200 100], got %+v", recs)
	}

	if _, err := store.PlayerHistory(ctx, "p1", game.FlashAnzan, 0, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestMemoryStore_GameAnalytics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	now := time.Now().UTC()
	mustCreate(t, store, "p1")
	mustCreate(t, store, "p2")

	sub := model.Submission{GameType: game.Percentages, Level: 1, DurationSeconds: 100, CorrectAnswers: 8, TotalQuestions: 10}
	sub.Score = 200
	submitRecord(t, store, "p1", sub, now)
	sub.Score = 400
	submitRecord(t, store, "p2", sub, now)

	out, err := store.GameAnalytics(ctx, game.Percentages)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if out.TotalGames != 2 || out.UniquePlayers != 2 {
		t.Errorf("unexpected counts: %+v", out)
	}
	if !floatEqual(out.AverageScore, 300) || out.MaxScore != 400 || out.MinScore != 200 {
		t.Errorf("unexpected score stats: %+v", out)
	}
	if !floatEqual(out.AverageAccuracy, 80) {
		t.Errorf("unexpected accuracy: %v", out.AverageAccuracy)
	}

	empty, err := store.GameAnalytics(ctx, game.GcdLcm)
	if err != nil || empty.TotalGames != 0 {
		t.Errorf("expected zeroed analytics, got %+v, err %v", empty, err)
	}
}

func TestMemoryStore_Close(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	mustCreate(t, store, "p1")

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.CreatePlayer(ctx, "p2", "too late", time.Now()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := store.Aggregate(ctx, "p1"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
