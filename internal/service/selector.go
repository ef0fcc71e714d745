package service

import (
	"context"
	"fmt"
	"sort"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/repository"
)

// Selector picks review candidates round-robin style: whoever reviewed
// longest ago goes first, and reviewers who never reviewed go before anyone
// with a date.
type Selector struct {
	directory repository.ReviewerDirectory
	logger    *logger.Logger
}

func NewSelector(directory repository.ReviewerDirectory, logger *logger.Logger) *Selector {
	return &Selector{
		directory: directory,
		logger:    logger.Component("service/selector"),
	}
}

// SelectCandidates returns up to limit reviewers covering every requested
// language, skipping excluded ids. An empty result is a normal outcome, not
// an error: the pool may simply be exhausted.
func (s *Selector) SelectCandidates(ctx context.Context, languages []string, excluded []string, limit int) ([]*domain.Reviewer, error) {
	if limit <= 0 {
		return []*domain.Reviewer{}, nil
	}

	pool, err := s.directory.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}

	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	eligible := make([]*domain.Reviewer, 0, len(pool))
	for _, reviewer := range pool {
		if skip[reviewer.ID] {
			continue
		}
		if !reviewer.CanReview(languages) {
			continue
		}
		eligible = append(eligible, reviewer)
	}

	// stable: never-reviewed members keep their pool order among themselves
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i].LastReviewedAt, eligible[j].LastReviewedAt
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	s.logger.Debug("candidates selected",
		"languages", languages,
		"excluded", len(excluded),
		"selected", len(eligible),
	)

	return eligible, nil
}
