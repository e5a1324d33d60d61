package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/mindtrain/rankengine/internal/app"
	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
)

// PlayerDependencies defines the interface for player operations.
type PlayerDependencies interface {
	RegisterPlayer(ctx context.Context, playerID, displayName string) error
	DeactivatePlayer(ctx context.Context, playerID string) error
	ReactivatePlayer(ctx context.Context, playerID string) error
	GetPlayerStats(ctx context.Context, playerID string) (service.PlayerStats, error)
	History(ctx context.Context, playerID string, gameType game.Type, limit, offset int) ([]model.ScoreRecord, error)
}

// PlayersHandler handles player lifecycle and read requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// registerRequest mirrors the JSON schema for POST /api/v1/players.
type registerRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// HandleRegister handles POST /api/v1/players requests.
func (h *PlayersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_player"

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" || strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.RegisterPlayer(r.Context(), req.PlayerID, req.DisplayName); err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"player_id": req.PlayerID})
}

// HandleActivate handles POST /api/v1/players/{playerID}/activate requests.
func (h *PlayersHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	const op = "api.activate_player"
	playerID := chi.URLParam(r, "playerID")
	if err := h.deps.ReactivatePlayer(r.Context(), playerID); err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player_id": playerID, "active": true})
}

// HandleDeactivate handles POST /api/v1/players/{playerID}/deactivate requests.
func (h *PlayersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	const op = "api.deactivate_player"
	playerID := chi.URLParam(r, "playerID")
	if err := h.deps.DeactivatePlayer(r.Context(), playerID); err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player_id": playerID, "active": false})
}

// HandleStats handles GET /api/v1/players/{playerID}/stats requests.
func (h *PlayersHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_stats"
	stats, err := h.deps.GetPlayerStats(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleHistory handles GET /api/v1/players/{playerID}/history/{gameType}
// requests.
func (h *PlayersHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_history"

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
	records, err := h.deps.History(r.Context(), chi.URLParam(r, "playerID"), gameType, limit, offset)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[model.ScoreRecord]{
		Entries: records,
		Limit:   limit,
		Offset:  offset,
	})
}
