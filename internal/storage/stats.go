package storage

import (
	"context"
	"fmt"

	"github.com/unimeeting/unimeetbot/internal/domain"
)

// Stats aggregates dashboard counters. Users without a profile are not counted.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	uq := s.db.Rebind(`SELECT
		COUNT(*) AS total_users,
		COALESCE(SUM(CASE WHEN verification_status = ? THEN 1 ELSE 0 END), 0) AS approved_users,
		COALESCE(SUM(CASE WHEN verification_status = ? THEN 1 ELSE 0 END), 0) AS pending_users,
		COALESCE(SUM(CASE WHEN verification_status = ? THEN 1 ELSE 0 END), 0) AS rejected_users
		FROM users WHERE name IS NOT NULL`)
	var users struct {
		Total    int `db:"total_users"`
		Approved int `db:"approved_users"`
		Pending  int `db:"pending_users"`
		Rejected int `db:"rejected_users"`
	}
	if err := s.db.GetContext(ctx, &users, uq, domain.StatusApproved, domain.StatusPending, domain.StatusRejected); err != nil {
		return st, fmt.Errorf("storage: user stats: %w", err)
	}

	eq := s.db.Rebind(`SELECT
		COUNT(*) AS total_events,
		COALESCE(SUM(CASE WHEN is_active = ? THEN 1 ELSE 0 END), 0) AS active_events
		FROM events`)
	var events struct {
		Total  int `db:"total_events"`
		Active int `db:"active_events"`
	}
	if err := s.db.GetContext(ctx, &events, eq, true); err != nil {
		return st, fmt.Errorf("storage: event stats: %w", err)
	}

	var pending int
	pq := s.db.Rebind(`SELECT COUNT(*) FROM verification_requests WHERE status = ?`)
	if err := s.db.GetContext(ctx, &pending, pq, domain.RequestPending); err != nil {
		return st, fmt.Errorf("storage: request stats: %w", err)
	}

	return domain.Stats{
		TotalUsers:      users.Total,
		ApprovedUsers:   users.Approved,
		PendingUsers:    users.Pending,
		RejectedUsers:   users.Rejected,
		TotalEvents:     events.Total,
		ActiveEvents:    events.Active,
		PendingRequests: pending,
	}, nil
}
