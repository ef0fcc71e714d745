package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/repository"
)

const (
	reasonDeclined = "declined"
	reasonExpired  = "expired"
)

// Engine drives a review request through its lifecycle: creation, reviewer
// accept/decline/expire transitions and closure. Every mutation of a request
// runs inside that request's lock, so transitions for one review are strictly
// serialized while different reviews proceed concurrently.
type Engine struct {
	store     repository.ReviewStore
	directory repository.ReviewerDirectory
	selector  *Selector
	locks     *RequestLocks
	expiry    *ExpiryCalc
	notifier  Notifier
	reporter  Reporter
	logger    *logger.Logger

	now func() time.Time
}

func NewEngine(
	store repository.ReviewStore,
	directory repository.ReviewerDirectory,
	selector *Selector,
	locks *RequestLocks,
	expiry *ExpiryCalc,
	notifier Notifier,
	reporter Reporter,
	logger *logger.Logger,
) *Engine {
	return &Engine{
		store:     store,
		directory: directory,
		selector:  selector,
		locks:     locks,
		expiry:    expiry,
		notifier:  notifier,
		reporter:  reporter,
		logger:    logger.Component("service/engine"),
		now:       time.Now,
	}
}

// CreateParams is the intake payload for a new review request.
type CreateParams struct {
	ThreadID    string
	RequestorID string
	Languages   []string
	DueBy       domain.DueBy
	NeededCount int

	CandidateID string
	FileRef     string
	ReportURL   string
}

func (p *CreateParams) validate() error {
	if p.ThreadID == "" || p.RequestorID == "" {
		return domain.ErrInvalidRequest
	}
	if len(p.Languages) == 0 || p.NeededCount < 1 {
		return domain.ErrInvalidRequest
	}
	if p.DueBy == "" {
		p.DueBy = domain.DueByNone
	}
	if !p.DueBy.Valid() {
		return domain.ErrInvalidRequest
	}
	return nil
}

// CreateReview opens a new request and offers it to the stillest part of the
// pool. No record is written when not a single candidate matches.
func (e *Engine) CreateReview(ctx context.Context, params CreateParams) (*domain.ReviewRequest, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if _, err := e.store.GetByID(ctx, params.ThreadID); err == nil {
		return nil, domain.ErrReviewExists
	} else if !errors.Is(err, domain.ErrReviewNotFound) {
		return nil, fmt.Errorf("check review exists: %w", err)
	}

	candidates, err := e.selector.SelectCandidates(ctx, params.Languages, []string{params.RequestorID}, params.NeededCount)
	if err != nil {
		return nil, fmt.Errorf("select initial candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidate
	}

	now := e.now()
	req := &domain.ReviewRequest{
		ID:          params.ThreadID,
		RequestorID: params.RequestorID,
		Languages:   params.Languages,
		RequestedAt: now,
		DueBy:       params.DueBy,
		NeededCount: params.NeededCount,
		CandidateID: params.CandidateID,
		FileRef:     params.FileRef,
		ReportURL:   params.ReportURL,
	}

	for _, candidate := range candidates {
		req.Pending = append(req.Pending, e.openSlot(ctx, req, candidate.ID, now))
	}

	if err := e.store.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	log := e.logger.WithReview(req.ID)
	if len(req.Pending) < req.NeededCount {
		if err := e.notifier.PostToThread(ctx, req.ID, threadShortfallMessage(len(req.Pending), req.NeededCount)); err != nil {
			log.Warn("failed to post shortfall warning", "error", err)
		}
	}

	log.Info("review created",
		"requestor_id", req.RequestorID,
		"languages", req.Languages,
		"needed", req.NeededCount,
		"asked", len(req.Pending),
	)

	return req, nil
}

// Accept moves a pending reviewer into the accepted set. Stale or duplicate
// accepts are silent no-ops: concurrent clicks race harmlessly.
func (e *Engine) Accept(ctx context.Context, reviewID, reviewerID string) error {
	unlock := e.locks.Lock(reviewID)
	closed, err := e.accept(ctx, reviewID, reviewerID)
	unlock()
	if closed {
		e.locks.Forget(reviewID)
	}
	return err
}

// Decline moves a pending reviewer into the declined set and backfills the
// slot from the pool when a candidate remains.
func (e *Engine) Decline(ctx context.Context, reviewID, reviewerID string) error {
	return e.resolve(ctx, reviewID, reviewerID, reasonDeclined)
}

// Expire is Decline driven by the sweeper instead of the reviewer: same
// transition, different wording, and the reviewer keeps their rotation spot.
func (e *Engine) Expire(ctx context.Context, reviewID, reviewerID string) error {
	return e.resolve(ctx, reviewID, reviewerID, reasonExpired)
}

func (e *Engine) resolve(ctx context.Context, reviewID, reviewerID, reason string) error {
	unlock := e.locks.Lock(reviewID)
	closed, err := e.stepAside(ctx, reviewID, reviewerID, reason)
	unlock()
	if closed {
		e.locks.Forget(reviewID)
	}
	return err
}

func (e *Engine) accept(ctx context.Context, reviewID, reviewerID string) (bool, error) {
	log := e.logger.WithReview(reviewID)

	req, slot, ok, err := e.takePending(ctx, log, reviewID, reviewerID, "accept")
	if err != nil || !ok {
		return false, err
	}

	now := e.now()
	req.Accepted = append(req.Accepted, domain.AcceptedReviewer{
		ReviewerID: reviewerID,
		AcceptedAt: now,
	})

	if err := e.store.Update(ctx, req); err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			log.Debug("review closed mid-accept, ignoring", "reviewer_id", reviewerID)
			return false, nil
		}
		return false, fmt.Errorf("persist accept: %w", err)
	}

	// acceptance is the only event that moves a reviewer back in the rotation
	if err := e.directory.TouchLastReviewed(ctx, reviewerID, now); err != nil {
		log.Warn("failed to update reviewer rotation position",
			"reviewer_id", reviewerID,
			"error", err,
		)
	}

	if slot.NotificationHandle != "" {
		if err := e.notifier.UpdateOffer(ctx, reviewerID, slot.NotificationHandle, msgAccepted); err != nil {
			log.Warn("failed to update reviewer notification",
				"reviewer_id", reviewerID,
				"error", err,
			)
		}
	}
	if err := e.notifier.PostToThread(ctx, reviewID, threadAcceptedMessage(reviewerID, len(req.Accepted), req.NeededCount)); err != nil {
		log.Warn("failed to post acceptance to thread", "error", err)
	}

	log.Info("reviewer accepted",
		"reviewer_id", reviewerID,
		"accepted", len(req.Accepted),
		"needed", req.NeededCount,
	)

	return e.finalize(ctx, log, req)
}

func (e *Engine) stepAside(ctx context.Context, reviewID, reviewerID, reason string) (bool, error) {
	log := e.logger.WithReview(reviewID)

	req, slot, ok, err := e.takePending(ctx, log, reviewID, reviewerID, reason)
	if err != nil || !ok {
		return false, err
	}

	now := e.now()
	req.Declined = append(req.Declined, domain.DeclinedReviewer{
		ReviewerID: reviewerID,
		DeclinedAt: now,
	})

	// backfill: offer the freed slot to the next candidate in the rotation
	excluded := append(req.InvolvedReviewers(), req.RequestorID)
	candidates, err := e.selector.SelectCandidates(ctx, req.Languages, excluded, 1)
	if err != nil {
		return false, fmt.Errorf("select replacement: %w", err)
	}
	if len(candidates) > 0 {
		req.Pending = append(req.Pending, e.openSlot(ctx, req, candidates[0].ID, now))
	}

	closingText := msgDeclined
	if reason == reasonExpired {
		closingText = msgExpired
	}
	if slot.NotificationHandle != "" {
		if err := e.notifier.UpdateOffer(ctx, reviewerID, slot.NotificationHandle, closingText); err != nil {
			log.Warn("failed to update reviewer notification",
				"reviewer_id", reviewerID,
				"error", err,
			)
		}
	}

	if err := e.store.Update(ctx, req); err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			log.Debug("review closed mid-transition, ignoring",
				"reviewer_id", reviewerID,
				"reason", reason,
			)
			return false, nil
		}
		return false, fmt.Errorf("persist %s: %w", reason, err)
	}

	log.Info("pending slot released",
		"reviewer_id", reviewerID,
		"reason", reason,
		"backfilled", len(candidates) > 0,
	)

	return e.finalize(ctx, log, req)
}

// takePending loads the request and removes reviewerID's pending slot from
// it. ok=false means the action was stale (closed review or no pending
// offer) and must be ignored without an error.
func (e *Engine) takePending(ctx context.Context, log *logger.Logger, reviewID, reviewerID, action string) (*domain.ReviewRequest, domain.PendingSlot, bool, error) {
	var none domain.PendingSlot

	req, err := e.store.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			log.Debug("action on closed review, ignoring",
				"reviewer_id", reviewerID,
				"action", action,
			)
			return nil, none, false, nil
		}
		return nil, none, false, fmt.Errorf("load review: %w", err)
	}

	idx := req.PendingIndex(reviewerID)
	if idx < 0 {
		log.Debug("reviewer has no pending offer, ignoring",
			"reviewer_id", reviewerID,
			"action", action,
		)
		return nil, none, false, nil
	}

	slot := req.Pending[idx]
	req.Pending = append(req.Pending[:idx], req.Pending[idx+1:]...)
	return req, slot, true, nil
}

// openSlot computes the respond-by deadline and messages the reviewer. A
// failed delivery still opens the slot: the offer will sit unanswered until
// the sweeper expires it and moves to the next candidate.
func (e *Engine) openSlot(ctx context.Context, req *domain.ReviewRequest, reviewerID string, now time.Time) domain.PendingSlot {
	deadline := e.expiry.Deadline(now)

	handle, err := e.notifier.SendOffer(ctx, reviewerID, Offer{
		ReviewID:    req.ID,
		RequestorID: req.RequestorID,
		Languages:   req.Languages,
		DueBy:       req.DueBy,
		RespondBy:   deadline,
	})
	if err != nil {
		e.reporter.Report(ctx, "review offer delivery failed", map[string]string{
			"review_id":   req.ID,
			"reviewer_id": reviewerID,
		}, err)
	}

	return domain.PendingSlot{
		ReviewerID:         reviewerID,
		ExpiresAt:          deadline,
		NotificationHandle: handle,
	}
}

// finalize decides whether the request just reached a terminal state.
// Complete wins over unfulfillable. Returns true when the record was removed
// from the store.
func (e *Engine) finalize(ctx context.Context, log *logger.Logger, req *domain.ReviewRequest) (bool, error) {
	switch {
	case req.Complete():
		// retract outstanding offers before announcing completion
		for _, slot := range req.Pending {
			if slot.NotificationHandle == "" {
				continue
			}
			if err := e.notifier.UpdateOffer(ctx, slot.ReviewerID, slot.NotificationHandle, msgRetracted); err != nil {
				log.Warn("failed to retract offer",
					"reviewer_id", slot.ReviewerID,
					"error", err,
				)
			}
		}
		return e.close(ctx, log, req, threadCompleteMessage(len(req.Accepted)))

	case req.Unfulfillable():
		return e.close(ctx, log, req, threadUnfulfillableMessage(len(req.Accepted), req.NeededCount))

	default:
		return false, nil
	}
}

func (e *Engine) close(ctx context.Context, log *logger.Logger, req *domain.ReviewRequest, text string) (bool, error) {
	if err := e.store.Remove(ctx, req.ID); err != nil && !errors.Is(err, domain.ErrReviewNotFound) {
		// record stays in place so the next click or sweep retries closure
		e.reporter.Report(ctx, "review closure failed", map[string]string{
			"review_id": req.ID,
		}, err)
		return false, nil
	}

	// delete-before-notify: losing this one message beats resurrecting a
	// finished review
	if err := e.notifier.PostToThread(ctx, req.ID, text); err != nil {
		e.reporter.Report(ctx, "closure notification failed", map[string]string{
			"review_id": req.ID,
		}, err)
	}

	log.Info("review closed",
		"accepted", len(req.Accepted),
		"needed", req.NeededCount,
	)

	return true, nil
}

// GetReview is a read-only status lookup for the API.
func (e *Engine) GetReview(ctx context.Context, reviewID string) (*domain.ReviewRequest, error) {
	req, err := e.store.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return req, nil
}
