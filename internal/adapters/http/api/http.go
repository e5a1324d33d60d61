// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	repository "github.com/mindtrain/rankengine/internal/adapters/repository"
	service "github.com/mindtrain/rankengine/internal/app"
	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
	"github.com/mindtrain/rankengine/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the application service.
type Dependencies interface {
	SubmitResult(ctx context.Context, playerID string, sub model.Submission) (service.SubmitOutcome, error)
	GlobalLeaderboard(ctx context.Context, limit, offset int) ([]types.Entry, error)
	GameLeaderboard(ctx context.Context, gameType game.Type, limit, offset int) ([]types.GameEntry, error)
	GetPlayerStats(ctx context.Context, playerID string) (service.PlayerStats, error)
	History(ctx context.Context, playerID string, gameType game.Type, limit, offset int) ([]model.ScoreRecord, error)
	GameAnalytics(ctx context.Context, gameType game.Type) (types.GameAnalytics, error)
	RegisterPlayer(ctx context.Context, playerID, displayName string) error
	DeactivatePlayer(ctx context.Context, playerID string) error
	ReactivatePlayer(ctx context.Context, playerID string) error
	Recompute(ctx context.Context) (types.RecomputeReport, error)
	Stats() map[string]any
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	resultsHandler     *ResultsHandler
	leaderboardHandler *LeaderboardHandler
	playersHandler     *PlayersHandler
	gamesHandler       *GamesHandler
	adminHandler       *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		resultsHandler:     NewResultsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		playersHandler:     NewPlayersHandler(deps),
		gamesHandler:       NewGamesHandler(deps),
		adminHandler:       NewAdminHandler(deps),
	}
}

// Router builds the chi routing tree for the API surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/results", MetricsMiddleware(s.resultsHandler.HandlePostResult, "results"))

		r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGlobal, "leaderboard"))
		r.Get("/leaderboard/{gameType}", MetricsMiddleware(s.leaderboardHandler.HandleGame, "leaderboard_game"))

		r.Post("/players", MetricsMiddleware(s.playersHandler.HandleRegister, "players"))
		r.Post("/players/{playerID}/activate", MetricsMiddleware(s.playersHandler.HandleActivate, "players_activate"))
		r.Post("/players/{playerID}/deactivate", MetricsMiddleware(s.playersHandler.HandleDeactivate, "players_deactivate"))
		r.Get("/players/{playerID}/stats", MetricsMiddleware(s.playersHandler.HandleStats, "players_stats"))
		r.Get("/players/{playerID}/history/{gameType}", MetricsMiddleware(s.playersHandler.HandleHistory, "players_history"))

		r.Get("/games", MetricsMiddleware(s.gamesHandler.HandleList, "games"))
		r.Get("/games/{gameType}", MetricsMiddleware(s.gamesHandler.HandleGet, "games_get"))
		r.Get("/games/{gameType}/analytics", MetricsMiddleware(s.gamesHandler.HandleAnalytics, "games_analytics"))

		r.Post("/admin/recompute", MetricsMiddleware(s.adminHandler.HandleRecompute, "admin_recompute"))
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Retryable storage timeouts carry a Retry-After hint.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, game.ErrUnknownType),
		errors.Is(err, service.ErrLimitExceeded),
		errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrPlayerExists):
		writeError(w, http.StatusConflict, "player_exists", err)
	case errors.Is(err, service.ErrPlayerInactive):
		writeError(w, http.StatusConflict, "player_inactive", err)
	case errors.Is(err, service.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "already_running", err)
	case errors.Is(err, repository.ErrTimeout):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "storage_timeout", err)
	case errors.Is(err, context.Canceled):
		writeError(w, statusClientClosedRequest, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
