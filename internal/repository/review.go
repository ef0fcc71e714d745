package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewReviewRepo(db *pgxpool.Pool, logger *logger.Logger) *ReviewRepo {
	return &ReviewRepo{
		db:     db,
		logger: logger.Component("repository/review"),
	}
}

// Create persists a new review request with its initial pending slots.
// Uses transaction to ensure atomicity.
func (r *ReviewRepo) Create(ctx context.Context, req *domain.ReviewRequest) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO review_requests
                (review_id, requestor_id, languages, requested_at, due_by,
                 needed_count, candidate_id, file_ref, report_url)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        `, req.ID, req.RequestorID, req.Languages, req.RequestedAt, req.DueBy,
			req.NeededCount, req.CandidateID, req.FileRef, req.ReportURL)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}

		return insertMembers(ctx, tx, req)
	})
}

// GetByID assembles a review request from its head row and the three member
// tables. Returns ErrReviewNotFound if the request doesn't exist.
func (r *ReviewRepo) GetByID(ctx context.Context, reviewID string) (*domain.ReviewRequest, error) {
	req := &domain.ReviewRequest{}
	err := r.db.QueryRow(ctx, `
        SELECT review_id, requestor_id, languages, requested_at, due_by,
               needed_count, candidate_id, file_ref, report_url
        FROM review_requests
        WHERE review_id = $1
    `, reviewID).Scan(
		&req.ID,
		&req.RequestorID,
		&req.Languages,
		&req.RequestedAt,
		&req.DueBy,
		&req.NeededCount,
		&req.CandidateID,
		&req.FileRef,
		&req.ReportURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	if err := r.loadMembers(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

// Update replaces the stored request wholesale: head row update plus
// delete-and-reinsert of the member tables in one transaction.
// Returns ErrReviewNotFound if a concurrent closure already removed the row.
func (r *ReviewRepo) Update(ctx context.Context, req *domain.ReviewRequest) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
            UPDATE review_requests
            SET requestor_id = $2, languages = $3, requested_at = $4,
                due_by = $5, needed_count = $6, candidate_id = $7,
                file_ref = $8, report_url = $9
            WHERE review_id = $1
        `, req.ID, req.RequestorID, req.Languages, req.RequestedAt, req.DueBy,
			req.NeededCount, req.CandidateID, req.FileRef, req.ReportURL)
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}

		if result.RowsAffected() == 0 {
			return domain.ErrReviewNotFound
		}

		for _, table := range []string{"review_accepted", "review_declined", "review_pending"} {
			if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE review_id = $1`, table), req.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		return insertMembers(ctx, tx, req)
	})
}

// Remove deletes the request; member rows go with it via ON DELETE CASCADE.
func (r *ReviewRepo) Remove(ctx context.Context, reviewID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM review_requests WHERE review_id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

// ListAll returns every active review request with members loaded.
// Returns empty slice if none exist.
func (r *ReviewRepo) ListAll(ctx context.Context) ([]*domain.ReviewRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT review_id, requestor_id, languages, requested_at, due_by,
               needed_count, candidate_id, file_ref, report_url
        FROM review_requests
        ORDER BY requested_at
    `)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reqs []*domain.ReviewRequest
	for rows.Next() {
		req := &domain.ReviewRequest{}
		if err := rows.Scan(
			&req.ID,
			&req.RequestorID,
			&req.Languages,
			&req.RequestedAt,
			&req.DueBy,
			&req.NeededCount,
			&req.CandidateID,
			&req.FileRef,
			&req.ReportURL,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	for _, req := range reqs {
		if err := r.loadMembers(ctx, req); err != nil {
			return nil, err
		}
	}

	if reqs == nil {
		reqs = []*domain.ReviewRequest{}
	}

	return reqs, nil
}

func (r *ReviewRepo) loadMembers(ctx context.Context, req *domain.ReviewRequest) error {
	rows, err := r.db.Query(ctx, `
        SELECT reviewer_id, accepted_at FROM review_accepted
        WHERE review_id = $1 ORDER BY accepted_at
    `, req.ID)
	if err != nil {
		return fmt.Errorf("query accepted: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.AcceptedReviewer
		if err := rows.Scan(&a.ReviewerID, &a.AcceptedAt); err != nil {
			return fmt.Errorf("scan accepted: %w", err)
		}
		req.Accepted = append(req.Accepted, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate accepted: %w", err)
	}

	rows, err = r.db.Query(ctx, `
        SELECT reviewer_id, declined_at FROM review_declined
        WHERE review_id = $1 ORDER BY declined_at
    `, req.ID)
	if err != nil {
		return fmt.Errorf("query declined: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d domain.DeclinedReviewer
		if err := rows.Scan(&d.ReviewerID, &d.DeclinedAt); err != nil {
			return fmt.Errorf("scan declined: %w", err)
		}
		req.Declined = append(req.Declined, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate declined: %w", err)
	}

	// position preserves offer order across the replace-style update
	rows, err = r.db.Query(ctx, `
        SELECT reviewer_id, expires_at, notification_handle FROM review_pending
        WHERE review_id = $1 ORDER BY position
    `, req.ID)
	if err != nil {
		return fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.PendingSlot
		if err := rows.Scan(&p.ReviewerID, &p.ExpiresAt, &p.NotificationHandle); err != nil {
			return fmt.Errorf("scan pending: %w", err)
		}
		req.Pending = append(req.Pending, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate pending: %w", err)
	}

	return nil
}

func insertMembers(ctx context.Context, tx pgx.Tx, req *domain.ReviewRequest) error {
	for _, a := range req.Accepted {
		_, err := tx.Exec(ctx, `
            INSERT INTO review_accepted (review_id, reviewer_id, accepted_at)
            VALUES ($1, $2, $3)
        `, req.ID, a.ReviewerID, a.AcceptedAt)
		if err != nil {
			return fmt.Errorf("insert accepted %s: %w", a.ReviewerID, err)
		}
	}

	for _, d := range req.Declined {
		_, err := tx.Exec(ctx, `
            INSERT INTO review_declined (review_id, reviewer_id, declined_at)
            VALUES ($1, $2, $3)
        `, req.ID, d.ReviewerID, d.DeclinedAt)
		if err != nil {
			return fmt.Errorf("insert declined %s: %w", d.ReviewerID, err)
		}
	}

	for i, p := range req.Pending {
		_, err := tx.Exec(ctx, `
            INSERT INTO review_pending (review_id, reviewer_id, expires_at, notification_handle, position)
            VALUES ($1, $2, $3, $4, $5)
        `, req.ID, p.ReviewerID, p.ExpiresAt, p.NotificationHandle, i)
		if err != nil {
			return fmt.Errorf("insert pending %s: %w", p.ReviewerID, err)
		}
	}

	return nil
}

// withTx executes a function within a database transaction.
// Automatically handles commit/rollback based on error status.
func (r *ReviewRepo) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error("failed to rollback transaction",
					"error", rbErr,
					"original_error", err,
				)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
