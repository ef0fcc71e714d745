package domain

import "errors"

var (
	ErrReviewExists     = errors.New("review request already exists")
	ErrReviewNotFound   = errors.New("review request not found")
	ErrReviewerNotFound = errors.New("reviewer not found")
	ErrNoCandidate      = errors.New("no available reviewers for requested languages")
	ErrInvalidRequest   = errors.New("invalid review request")
)
