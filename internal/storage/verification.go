package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unimeeting/unimeetbot/internal/domain"
)

const pendingSelect = `SELECT vr.id, vr.user_id, vr.photo_id, vr.status, vr.admin_id, vr.created_at, vr.processed_at,
	u.telegram_id, u.username, u.name, u.age, u.course, u.major, u.description, u.photo_id AS profile_photo_id
	FROM verification_requests vr
	JOIN users u ON u.id = vr.user_id`

// CreateVerificationRequest opens a request for the user and marks the user
// pending. A second open request yields domain.ErrPendingExists.
func (s *Store) CreateVerificationRequest(ctx context.Context, userID int64, photoID string) (*domain.VerificationRequest, error) {
	now := s.ts()
	req := &domain.VerificationRequest{
		UserID:    userID,
		PhotoID:   photoID,
		Status:    domain.RequestPending,
		CreatedAt: now,
	}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		q := tx.Rebind(`INSERT INTO verification_requests (user_id, photo_id, status, created_at)
			VALUES (?, ?, ?, ?) RETURNING id`)
		if err := tx.GetContext(ctx, &req.ID, q, userID, photoID, domain.RequestPending, now); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrPendingExists
			}
			return err
		}
		uq := tx.Rebind(`UPDATE users SET verification_status = ?, updated_at = ? WHERE id = ?`)
		_, err := tx.ExecContext(ctx, uq, domain.StatusPending, now, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create verification request: %w", err)
	}
	return req, nil
}

// PendingRequests lists open requests, oldest first.
func (s *Store) PendingRequests(ctx context.Context) ([]domain.PendingRequest, error) {
	q := s.db.Rebind(pendingSelect + ` WHERE vr.status = ? ORDER BY vr.created_at, vr.id`)
	var out []domain.PendingRequest
	if err := s.db.SelectContext(ctx, &out, q, domain.RequestPending); err != nil {
		return nil, fmt.Errorf("storage: pending requests: %w", err)
	}
	return out, nil
}

// VerificationRequest loads one request with its user.
func (s *Store) VerificationRequest(ctx context.Context, id int64) (*domain.PendingRequest, error) {
	var r domain.PendingRequest
	q := s.db.Rebind(pendingSelect + ` WHERE vr.id = ?`)
	if err := s.db.GetContext(ctx, &r, q, id); err != nil {
		return nil, fmt.Errorf("storage: verification request: %w", notFound(err, domain.ErrNotFound))
	}
	return &r, nil
}

// MarkVerificationProcessed records the decision on a pending request and
// mirrors it onto the user in the same transaction. A request that is
// missing or already decided yields domain.ErrNotPending and changes nothing.
func (s *Store) MarkVerificationProcessed(ctx context.Context, id int64, outcome domain.RequestStatus, adminID int64) (*domain.PendingRequest, error) {
	if !outcome.Decision() {
		return nil, fmt.Errorf("storage: invalid decision %q", outcome)
	}
	now := s.ts()
	var out domain.PendingRequest
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		q := tx.Rebind(`UPDATE verification_requests SET status = ?, admin_id = ?, processed_at = ?
			WHERE id = ? AND status = ?`)
		res, err := tx.ExecContext(ctx, q, outcome, adminID, now, id, domain.RequestPending)
		if err != nil {
			return err
		}
		n, err := affected(res)
		if err != nil {
			return err
		}
		if n != 1 {
			return domain.ErrNotPending
		}
		uq := tx.Rebind(`UPDATE users SET verification_status = ?, updated_at = ?
			WHERE id = (SELECT user_id FROM verification_requests WHERE id = ?)`)
		if _, err := tx.ExecContext(ctx, uq, domain.VerificationStatus(outcome), now, id); err != nil {
			return err
		}
		return tx.GetContext(ctx, &out, tx.Rebind(pendingSelect+` WHERE vr.id = ?`), id)
	})
	if err != nil {
		return nil, fmt.Errorf("storage: mark verification processed: %w", err)
	}
	return &out, nil
}
