package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/service"

	"github.com/go-chi/chi/v5"
)

type ReviewHandler struct {
	engine *service.Engine
	logger *logger.Logger
}

func NewReviewHandler(engine *service.Engine, logger *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		engine: engine,
		logger: logger.Component("handler/review"),
	}
}

func (h *ReviewHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthCheck)
	r.Post("/create", h.CreateReview)
	r.Post("/accept", h.Accept)
	r.Post("/decline", h.Decline)
	r.Get("/{reviewID}", h.GetReview)

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

type CreateReviewRequest struct {
	ThreadID    string   `json:"thread_id"`
	RequestorID string   `json:"requestor_id"`
	Languages   []string `json:"languages"`
	DueBy       string   `json:"due_by"`
	NeededCount int      `json:"needed_count"`
	CandidateID string   `json:"candidate_id"`
	FileRef     string   `json:"file_ref"`
	ReportURL   string   `json:"report_url"`
}

type CreateReviewResponse struct {
	Review *domain.ReviewRequest `json:"review"`
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ThreadID == "" || req.RequestorID == "" {
		h.logger.Warn("missing required fields")
		http.Error(w, "thread_id and requestor_id are required", http.StatusBadRequest)
		return
	}

	review, err := h.engine.CreateReview(r.Context(), service.CreateParams{
		ThreadID:    req.ThreadID,
		RequestorID: req.RequestorID,
		Languages:   req.Languages,
		DueBy:       domain.DueBy(req.DueBy),
		NeededCount: req.NeededCount,
		CandidateID: req.CandidateID,
		FileRef:     req.FileRef,
		ReportURL:   req.ReportURL,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(CreateReviewResponse{Review: review}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type ReviewActionRequest struct {
	ThreadID   string `json:"thread_id"`
	ReviewerID string `json:"reviewer_id"`
}

type ReviewActionResponse struct {
	Status string `json:"status"`
}

// Accept handles a reviewer's accept click. Duplicate or stale clicks come
// back as plain success: the race already resolved and the reviewer should
// never see an error for it.
func (h *ReviewHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.engine.Accept)
}

// Decline handles a reviewer's decline click.
func (h *ReviewHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.engine.Decline)
}

func (h *ReviewHandler) action(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, reviewID, reviewerID string) error) {
	var req ReviewActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ThreadID == "" || req.ReviewerID == "" {
		h.logger.Warn("missing required fields")
		http.Error(w, "thread_id and reviewer_id are required", http.StatusBadRequest)
		return
	}

	if err := transition(r.Context(), req.ThreadID, req.ReviewerID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(ReviewActionResponse{Status: "ok"}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type GetReviewResponse struct {
	Review *domain.ReviewRequest `json:"review"`
}

func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	review, err := h.engine.GetReview(r.Context(), reviewID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(GetReviewResponse{Review: review}); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
