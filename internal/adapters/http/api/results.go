package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/mindtrain/rankengine/internal/app"
	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
)

// ResultDependencies defines the interface for result submission.
type ResultDependencies interface {
	SubmitResult(ctx context.Context, playerID string, sub model.Submission) (service.SubmitOutcome, error)
}

// resultRequest mirrors the JSON schema for POST /api/v1/results.
type resultRequest struct {
	PlayerID        string  `json:"player_id"`
	GameType        string  `json:"game_type"`
	Score           float64 `json:"score"`
	Level           int     `json:"level"`
	DurationSeconds float64 `json:"duration_seconds"`
	CorrectAnswers  int     `json:"correct_answers"`
	TotalQuestions  int     `json:"total_questions"`
}

func (r resultRequest) validate() error {
	if strings.TrimSpace(r.PlayerID) == "" {
		return NewKind("api.post_result", ErrBadRequest)
	}
	return nil
}

// ResultsHandler handles score submissions.
type ResultsHandler struct {
	deps ResultDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandlePostResult handles POST /api/v1/results requests.
func (h *ResultsHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_result"

	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	outcome, err := h.deps.SubmitResult(r.Context(), req.PlayerID, model.Submission{
		GameType:        game.Type(req.GameType),
		Score:           req.Score,
		Level:           req.Level,
		DurationSeconds: req.DurationSeconds,
		CorrectAnswers:  req.CorrectAnswers,
		TotalQuestions:  req.TotalQuestions,
	})
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}
