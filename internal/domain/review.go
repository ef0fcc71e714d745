package domain

import "time"

// DueBy is the coarse urgency label the requestor attaches to a review.
// It is shown to reviewers but never drives engine decisions.
type DueBy string

const (
	DueByNone      DueBy = "none"
	DueByToday     DueBy = "today"
	DueByMonday    DueBy = "monday"
	DueByTuesday   DueBy = "tuesday"
	DueByWednesday DueBy = "wednesday"
	DueByThursday  DueBy = "thursday"
	DueByFriday    DueBy = "friday"
)

func (d DueBy) Valid() bool {
	switch d {
	case DueByNone, DueByToday, DueByMonday, DueByTuesday,
		DueByWednesday, DueByThursday, DueByFriday:
		return true
	}
	return false
}

// ReviewRequest is one active review. The ID is the chat thread the request
// was opened in. A reviewer id appears in at most one of Accepted, Declined
// or Pending at any time.
type ReviewRequest struct {
	ID          string
	RequestorID string
	Languages   []string
	RequestedAt time.Time
	DueBy       DueBy
	NeededCount int

	Accepted []AcceptedReviewer
	Declined []DeclinedReviewer
	Pending  []PendingSlot

	// opaque attachments carried through unchanged
	CandidateID string
	FileRef     string
	ReportURL   string
}

type AcceptedReviewer struct {
	ReviewerID string
	AcceptedAt time.Time
}

type DeclinedReviewer struct {
	ReviewerID string
	DeclinedAt time.Time
}

// PendingSlot is one outstanding offer. NotificationHandle identifies the
// message sent to the reviewer so it can be updated when the slot resolves.
type PendingSlot struct {
	ReviewerID         string
	ExpiresAt          time.Time
	NotificationHandle string
}

// Complete reports whether enough reviewers accepted. Checked before
// Unfulfillable: a request is never both.
func (r *ReviewRequest) Complete() bool {
	return len(r.Accepted) >= r.NeededCount
}

// Unfulfillable reports whether the pool is exhausted with no outstanding
// offers and the request still short of reviewers.
func (r *ReviewRequest) Unfulfillable() bool {
	return !r.Complete() && len(r.Pending) == 0
}

// PendingIndex returns the position of reviewerID in Pending, or -1.
func (r *ReviewRequest) PendingIndex(reviewerID string) int {
	for i, slot := range r.Pending {
		if slot.ReviewerID == reviewerID {
			return i
		}
	}
	return -1
}

// InvolvedReviewers returns every reviewer id currently attached to the
// request across all three partitions.
func (r *ReviewRequest) InvolvedReviewers() []string {
	ids := make([]string, 0, len(r.Accepted)+len(r.Declined)+len(r.Pending))
	for _, a := range r.Accepted {
		ids = append(ids, a.ReviewerID)
	}
	for _, d := range r.Declined {
		ids = append(ids, d.ReviewerID)
	}
	for _, p := range r.Pending {
		ids = append(ids, p.ReviewerID)
	}
	return ids
}
