package handler

import (
	"encoding/json"
	"net/http"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/service"

	"github.com/go-chi/chi/v5"
)

type ReviewerHandler struct {
	pool   *service.PoolService
	logger *logger.Logger
}

func NewReviewerHandler(pool *service.PoolService, logger *logger.Logger) *ReviewerHandler {
	return &ReviewerHandler{
		pool:   pool,
		logger: logger.Component("handler/reviewer"),
	}
}

func (h *ReviewerHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/join", h.Join)
	r.Post("/leave", h.Leave)
	r.Get("/", h.List)

	return r
}

type JoinRequest struct {
	ReviewerID string   `json:"reviewer_id"`
	Languages  []string `json:"languages"`
}

type JoinResponse struct {
	Reviewer *domain.Reviewer `json:"reviewer"`
}

func (h *ReviewerHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ReviewerID == "" || len(req.Languages) == 0 {
		h.logger.Warn("missing required fields")
		http.Error(w, "reviewer_id and languages are required", http.StatusBadRequest)
		return
	}

	reviewer, err := h.pool.Join(r.Context(), req.ReviewerID, req.Languages)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(JoinResponse{Reviewer: reviewer}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type LeaveRequest struct {
	ReviewerID string `json:"reviewer_id"`
}

func (h *ReviewerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ReviewerID == "" {
		h.logger.Warn("reviewer_id is required")
		http.Error(w, "reviewer_id is required", http.StatusBadRequest)
		return
	}

	if err := h.pool.Leave(r.Context(), req.ReviewerID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ListReviewersResponse struct {
	Reviewers []*domain.Reviewer `json:"reviewers"`
}

func (h *ReviewerHandler) List(w http.ResponseWriter, r *http.Request) {
	reviewers, err := h.pool.List(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(ListReviewersResponse{Reviewers: reviewers}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
