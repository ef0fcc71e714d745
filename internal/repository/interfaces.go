package repository

import (
	"context"
	"time"

	"reviewrota/internal/domain"
)

// ReviewStore - хранилище активных ревью-запросов
type ReviewStore interface {
	Create(ctx context.Context, req *domain.ReviewRequest) error
	// GetByID returns domain.ErrReviewNotFound when the request does not
	// exist; any other error is a backend failure.
	GetByID(ctx context.Context, reviewID string) (*domain.ReviewRequest, error)
	// Update replaces the stored request wholesale. Returns
	// domain.ErrReviewNotFound when the row vanished underneath the caller.
	Update(ctx context.Context, req *domain.ReviewRequest) error
	Remove(ctx context.Context, reviewID string) error
	ListAll(ctx context.Context) ([]*domain.ReviewRequest, error)
}

// ReviewerDirectory - очередь ревьюверов
type ReviewerDirectory interface {
	Upsert(ctx context.Context, reviewer *domain.Reviewer) error
	GetByID(ctx context.Context, reviewerID string) (*domain.Reviewer, error)
	Delete(ctx context.Context, reviewerID string) error
	ListAll(ctx context.Context) ([]*domain.Reviewer, error)
	TouchLastReviewed(ctx context.Context, reviewerID string, at time.Time) error
}
