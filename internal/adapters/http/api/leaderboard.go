package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard queries.
type LeaderboardDependencies interface {
	GlobalLeaderboard(ctx context.Context, limit, offset int) ([]types.Entry, error)
	GameLeaderboard(ctx context.Context, gameType game.Type, limit, offset int) ([]types.GameEntry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGlobal handles GET /api/v1/leaderboard?limit=N&offset=M requests.
func (h *LeaderboardHandler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"

	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.GlobalLeaderboard(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[types.Entry]{
		Entries: entries,
		Limit:   limit,
		Offset:  offset,
	})
}

// HandleGame handles GET /api/v1/leaderboard/{gameType} requests.
func (h *LeaderboardHandler) HandleGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game_leaderboard"

	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	gameType, err := game.Parse(chi.URLParam(r, "gameType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_game_type", Wrap(op, err))
		return
	}
	entries, err := h.deps.GameLeaderboard(r.Context(), gameType, limit, offset)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, gamePageResponse{
		GameType: gameType.String(),
		Entries:  entries,
		Limit:    limit,
		Offset:   offset,
	})
}

type pageResponse[T any] struct {
	Entries []T `json:"entries"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}

type gamePageResponse struct {
	GameType string            `json:"game_type"`
	Entries  []types.GameEntry `json:"entries"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// pageParams reads limit and offset query parameters. Zero limit defers to
// the service default.
func pageParams(r *http.Request) (limit, offset int, err error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, ErrBadRequest
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, ErrBadRequest
		}
	}
	return limit, offset, nil
}
