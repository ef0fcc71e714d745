package service

import (
	"context"
	"time"

	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/repository"
)

// Sweeper periodically walks every active review and expires pending slots
// whose deadline passed. Each expiry goes through the engine, so it takes the
// same per-request lock as the accept and decline handlers.
type Sweeper struct {
	store    repository.ReviewStore
	engine   *Engine
	reporter Reporter
	logger   *logger.Logger
	interval time.Duration

	now func() time.Time
}

func NewSweeper(store repository.ReviewStore, engine *Engine, reporter Reporter, interval time.Duration, logger *logger.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		engine:   engine,
		reporter: reporter,
		logger:   logger.Component("service/sweeper"),
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping on a fixed ticker.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

type expiredPair struct {
	reviewID   string
	reviewerID string
}

// SweepOnce takes one snapshot of the active reviews and expires every slot
// strictly past its deadline. A slot expiring at exactly now is not yet
// expired: the reviewer gets the benefit of the tie. The engine re-reads each
// review fresh under its lock, so slots resolved since the snapshot turn into
// silent no-ops. One failed pair never aborts the rest of the sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	started := s.now()

	reviews, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list active reviews", "error", err)
		s.reporter.Report(ctx, "sweep listing failed", nil, err)
		return
	}

	var expired []expiredPair
	for _, req := range reviews {
		for _, slot := range req.Pending {
			if slot.ExpiresAt.Before(started) {
				expired = append(expired, expiredPair{
					reviewID:   req.ID,
					reviewerID: slot.ReviewerID,
				})
			}
		}
	}

	if len(expired) == 0 {
		s.logger.Debug("sweep found nothing to expire", "reviews", len(reviews))
		return
	}

	failures := 0
	for _, pair := range expired {
		if err := s.engine.Expire(ctx, pair.reviewID, pair.reviewerID); err != nil {
			failures++
			s.logger.Error("failed to expire pending slot",
				"review_id", pair.reviewID,
				"reviewer_id", pair.reviewerID,
				"error", err,
			)
			s.reporter.Report(ctx, "slot expiration failed", map[string]string{
				"review_id":   pair.reviewID,
				"reviewer_id": pair.reviewerID,
			}, err)
		}
	}

	s.logger.Info("sweep finished",
		"reviews", len(reviews),
		"expired", len(expired)-failures,
		"failed", failures,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}
