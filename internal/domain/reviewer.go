package domain

import "time"

// Reviewer is a member of the review queue.
type Reviewer struct {
	ID        string
	Languages []string
	// LastReviewedAt is nil for reviewers who never accepted a review;
	// they sort ahead of everyone else in candidate selection.
	LastReviewedAt *time.Time
}

// CanReview reports whether the reviewer covers every requested language.
func (rv *Reviewer) CanReview(languages []string) bool {
	for _, want := range languages {
		found := false
		for _, have := range rv.Languages {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
