package service

import (
	"context"
	"fmt"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/repository"
)

// PoolService manages queue membership: who is in the rotation and which
// languages they cover.
type PoolService struct {
	directory repository.ReviewerDirectory
	logger    *logger.Logger
}

func NewPoolService(directory repository.ReviewerDirectory, logger *logger.Logger) *PoolService {
	return &PoolService{
		directory: directory,
		logger:    logger.Component("service/pool"),
	}
}

// Join adds a reviewer to the queue. Joining again replaces the language set
// but keeps the rotation position.
func (s *PoolService) Join(ctx context.Context, reviewerID string, languages []string) (*domain.Reviewer, error) {
	if reviewerID == "" || len(languages) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	if err := s.directory.Upsert(ctx, &domain.Reviewer{
		ID:        reviewerID,
		Languages: languages,
	}); err != nil {
		return nil, fmt.Errorf("join pool: %w", err)
	}

	reviewer, err := s.directory.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("get joined reviewer: %w", err)
	}

	s.logger.Info("reviewer joined pool",
		"reviewer_id", reviewerID,
		"languages", languages,
	)

	return reviewer, nil
}

func (s *PoolService) Leave(ctx context.Context, reviewerID string) error {
	if err := s.directory.Delete(ctx, reviewerID); err != nil {
		return fmt.Errorf("leave pool: %w", err)
	}

	s.logger.Info("reviewer left pool", "reviewer_id", reviewerID)
	return nil
}

func (s *PoolService) List(ctx context.Context) ([]*domain.Reviewer, error) {
	reviewers, err := s.directory.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pool: %w", err)
	}
	return reviewers, nil
}
