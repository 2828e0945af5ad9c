package storage

import (
	"context"
	"fmt"

	"github.com/unimeeting/unimeetbot/internal/domain"
)

// AddAdmin inserts or refreshes an admin row.
func (s *Store) AddAdmin(ctx context.Context, telegramID int64, username *string, superAdmin bool) error {
	q := s.db.Rebind(`INSERT INTO admins (telegram_id, username, is_super_admin, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = COALESCE(excluded.username, admins.username),
			is_super_admin = excluded.is_super_admin`)
	if _, err := s.db.ExecContext(ctx, q, telegramID, username, superAdmin, s.ts()); err != nil {
		return fmt.Errorf("storage: add admin: %w", err)
	}
	return nil
}

// IsAdmin reports whether an admin row exists.
func (s *Store) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM admins WHERE telegram_id = ?`)
	if err := s.db.GetContext(ctx, &n, q, telegramID); err != nil {
		return false, fmt.Errorf("storage: is admin: %w", err)
	}
	return n > 0, nil
}

// ListAdmins returns every admin, oldest first.
func (s *Store) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	var out []domain.Admin
	q := `SELECT telegram_id, username, is_super_admin, created_at FROM admins ORDER BY created_at, telegram_id`
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("storage: list admins: %w", err)
	}
	return out, nil
}
