package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/types"
)

// GameDependencies defines the interface for game catalog analytics.
type GameDependencies interface {
	GameAnalytics(ctx context.Context, gameType game.Type) (types.GameAnalytics, error)
}

// GamesHandler serves the static game catalog and per-game analytics.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

type gameInfoResponse struct {
	GameType string `json:"game_type"`
	game.Info
}

// HandleList handles GET /api/v1/games requests.
func (h *GamesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out := make([]gameInfoResponse, 0, len(game.All()))
	for _, t := range game.All() {
		info, _ := t.Metadata()
		out = append(out, gameInfoResponse{GameType: t.String(), Info: info})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/v1/games/{gameType} requests.
func (h *GamesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	gameType, err := game.Parse(chi.URLParam(r, "gameType"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_game_type", WrapKind(op, ErrNotFound, err))
		return
	}
	info, _ := gameType.Metadata()
	writeJSON(w, http.StatusOK, gameInfoResponse{GameType: gameType.String(), Info: info})
}

// HandleAnalytics handles GET /api/v1/games/{gameType}/analytics requests.
func (h *GamesHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.game_analytics"
	gameType, err := game.Parse(chi.URLParam(r, "gameType"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_game_type", WrapKind(op, ErrNotFound, err))
		return
	}
	analytics, err := h.deps.GameAnalytics(r.Context(), gameType)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
