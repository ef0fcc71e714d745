package service

import "fmt"

// Reviewer-facing offer updates. Wording is the only difference between a
// decline and an expiry from the reviewer's point of view.
const (
	msgAccepted  = "you accepted this review"
	msgDeclined  = "you declined this review"
	msgExpired   = "time ran out on this review offer"
	msgRetracted = "offer withdrawn: enough reviewers accepted"
)

func threadAcceptedMessage(reviewerID string, acceptedCount, neededCount int) string {
	return fmt.Sprintf("%s accepted the review (%d/%d)", reviewerID, acceptedCount, neededCount)
}

func threadCompleteMessage(acceptedCount int) string {
	return fmt.Sprintf("review complete: %d reviewer(s) found", acceptedCount)
}

func threadUnfulfillableMessage(acceptedCount, neededCount int) string {
	return fmt.Sprintf("%d of %d needed reviewers found, no more candidates available", acceptedCount, neededCount)
}

func threadShortfallMessage(pendingCount, neededCount int) string {
	return fmt.Sprintf("only %d of %d requested reviewers could be asked right now", pendingCount, neededCount)
}
