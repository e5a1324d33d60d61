package api

import (
	"context"
	"net/http"

	"github.com/mindtrain/rankengine/internal/domain/types"
)

// AdminDependencies defines the interface for administrative operations.
type AdminDependencies interface {
	Recompute(ctx context.Context) (types.RecomputeReport, error)
}

// AdminHandler handles administrative requests.
type AdminHandler struct {
	deps AdminDependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// HandleRecompute handles POST /api/v1/admin/recompute requests. The job
// runs synchronously; the response carries the full report. A cancelled
// run still reports the players it covered.
func (h *AdminHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.recompute"
	report, err := h.deps.Recompute(r.Context())
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
