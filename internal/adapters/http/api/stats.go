package api

import "net/http"

// StatsProvider exposes service counters for operational introspection.
type StatsProvider interface {
	Stats() map[string]any
}

// StatsHandler handles service statistics requests.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Stats())
}
