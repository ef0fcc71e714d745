package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"
)

type ErrorCode string

const (
	CodeReviewExists     ErrorCode = "REVIEW_EXISTS"
	CodeNoCandidate      ErrorCode = "NO_CANDIDATE"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	CodeReviewerNotFound ErrorCode = "REVIEWER_NOT_FOUND"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func WriteError(w http.ResponseWriter, err error, logger *logger.Logger) {
	status, response := mapError(err)

	if isDomainError(err) {
		logger.Warn("domain error",
			"error", err.Error(),
			"code", response.Error.Code,
		)
	} else {
		logger.Error("unexpected error",
			"error", err.Error(),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func mapError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrReviewExists):
		return http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeReviewExists,
				Message: err.Error(),
			},
		}

	case errors.Is(err, domain.ErrNoCandidate):
		return http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeNoCandidate,
				Message: err.Error(),
			},
		}

	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeInvalidRequest,
				Message: err.Error(),
			},
		}

	case errors.Is(err, domain.ErrReviewerNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeReviewerNotFound,
				Message: err.Error(),
			},
		}

	case errors.Is(err, domain.ErrReviewNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeNotFound,
				Message: err.Error(),
			},
		}

	default:
		// internal races and backend failures are never exposed as such
		return http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "something went wrong",
			},
		}
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrReviewExists) ||
		errors.Is(err, domain.ErrReviewNotFound) ||
		errors.Is(err, domain.ErrReviewerNotFound) ||
		errors.Is(err, domain.ErrNoCandidate) ||
		errors.Is(err, domain.ErrInvalidRequest)
}
