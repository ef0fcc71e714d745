package service

import (
	"context"
	"time"

	"reviewrota/internal/domain"
)

// Offer is the reviewer-facing content of a pending slot notification.
type Offer struct {
	ReviewID    string
	RequestorID string
	Languages   []string
	DueBy       domain.DueBy
	RespondBy   time.Time
}

// Notifier delivers messages to reviewers and to the originating thread.
// Implementations talk to the chat platform; the engine treats failures as
// non-fatal wherever the state transition can still proceed.
type Notifier interface {
	// SendOffer messages a reviewer about a new pending slot and returns a
	// handle the engine can later use to update that message.
	SendOffer(ctx context.Context, reviewerID string, offer Offer) (handle string, err error)
	UpdateOffer(ctx context.Context, reviewerID, handle, text string) error
	PostToThread(ctx context.Context, reviewID, text string) error
}

// Reporter is the operator-visible error channel. Fire-and-forget.
type Reporter interface {
	Report(ctx context.Context, title string, details map[string]string, err error)
}
