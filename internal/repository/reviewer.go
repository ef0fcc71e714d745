package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewerRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewReviewerRepo(db *pgxpool.Pool, logger *logger.Logger) *ReviewerRepo {
	return &ReviewerRepo{
		db:     db,
		logger: logger.Component("repository/reviewer"),
	}
}

// Upsert adds a reviewer to the queue or updates their languages if they
// joined before. LastReviewedAt is preserved on re-join.
func (r *ReviewerRepo) Upsert(ctx context.Context, reviewer *domain.Reviewer) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO reviewers (reviewer_id, languages)
        VALUES ($1, $2)
        ON CONFLICT (reviewer_id) DO UPDATE SET languages = $2
    `, reviewer.ID, reviewer.Languages)
	if err != nil {
		return fmt.Errorf("upsert reviewer: %w", err)
	}

	return nil
}

func (r *ReviewerRepo) GetByID(ctx context.Context, reviewerID string) (*domain.Reviewer, error) {
	var reviewer domain.Reviewer
	err := r.db.QueryRow(ctx, `
        SELECT reviewer_id, languages, last_reviewed_at
        FROM reviewers
        WHERE reviewer_id = $1
    `, reviewerID).Scan(
		&reviewer.ID,
		&reviewer.Languages,
		&reviewer.LastReviewedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReviewerNotFound
		}
		return nil, fmt.Errorf("get reviewer: %w", err)
	}

	return &reviewer, nil
}

func (r *ReviewerRepo) Delete(ctx context.Context, reviewerID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviewers WHERE reviewer_id = $1`, reviewerID)
	if err != nil {
		return fmt.Errorf("delete reviewer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrReviewerNotFound
	}

	return nil
}

// ListAll returns the whole queue in join order; the selector relies on this
// order being stable for its tie-break among never-reviewed members.
func (r *ReviewerRepo) ListAll(ctx context.Context) ([]*domain.Reviewer, error) {
	rows, err := r.db.Query(ctx, `
        SELECT reviewer_id, languages, last_reviewed_at
        FROM reviewers
        ORDER BY joined_at, reviewer_id
    `)
	if err != nil {
		return nil, fmt.Errorf("query reviewers: %w", err)
	}
	defer rows.Close()

	var reviewers []*domain.Reviewer
	for rows.Next() {
		var reviewer domain.Reviewer
		if err := rows.Scan(&reviewer.ID, &reviewer.Languages, &reviewer.LastReviewedAt); err != nil {
			return nil, fmt.Errorf("scan reviewer: %w", err)
		}
		reviewers = append(reviewers, &reviewer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if reviewers == nil {
		reviewers = []*domain.Reviewer{}
	}

	return reviewers, nil
}

// TouchLastReviewed records an acceptance. Declines and expiries never call
// this, so they do not move the reviewer back in the rotation.
func (r *ReviewerRepo) TouchLastReviewed(ctx context.Context, reviewerID string, at time.Time) error {
	result, err := r.db.Exec(ctx, `
        UPDATE reviewers
        SET last_reviewed_at = $1
        WHERE reviewer_id = $2
    `, at, reviewerID)
	if err != nil {
		return fmt.Errorf("touch reviewer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrReviewerNotFound
	}

	return nil
}
