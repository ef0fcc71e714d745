package handler

import (
	"encoding/json"
	"net/http"

	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/service"

	"github.com/go-chi/chi/v5"
)

// SweepHandler exposes a manual sweep trigger. The server mounts it only
// outside production; the scheduled sweeper covers production on its own.
type SweepHandler struct {
	sweeper *service.Sweeper
	logger  *logger.Logger
}

func NewSweepHandler(sweeper *service.Sweeper, logger *logger.Logger) *SweepHandler {
	return &SweepHandler{
		sweeper: sweeper,
		logger:  logger.Component("handler/sweep"),
	}
}

func (h *SweepHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/run", h.Run)

	return r
}

func (h *SweepHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("manual sweep triggered")
	h.sweeper.SweepOnce(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(map[string]string{"status": "swept"}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
