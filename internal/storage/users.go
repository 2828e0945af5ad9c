package storage

import (
	"context"
	"fmt"

	"github.com/AlekSi/pointer"

	"github.com/unimeeting/unimeetbot/internal/domain"
)

const userColumns = `id, telegram_id, username, name, age, course, major, description, photo_id,
	verification_status, created_at, updated_at`

// UserByTelegramID loads a user by platform id.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	q := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`)
	if err := s.db.GetContext(ctx, &u, q, telegramID); err != nil {
		return nil, fmt.Errorf("storage: user by telegram id: %w", notFound(err, domain.ErrNotFound))
	}
	return &u, nil
}

// UserByID loads a user by row id.
func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	q := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, fmt.Errorf("storage: user by id: %w", notFound(err, domain.ErrNotFound))
	}
	return &u, nil
}

// CreateUser inserts the user on first contact. An existing row is kept and
// only its username refreshed.
func (s *Store) CreateUser(ctx context.Context, telegramID int64, username string) (*domain.User, error) {
	now := s.ts()
	q := s.db.Rebind(`INSERT INTO users (telegram_id, username, verification_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET username = COALESCE(excluded.username, users.username)`)
	var uname *string
	if username != "" {
		uname = pointer.ToString(username)
	}
	if _, err := s.db.ExecContext(ctx, q, telegramID, uname, domain.StatusNotRequested, now, now); err != nil {
		return nil, fmt.Errorf("storage: create user: %w", err)
	}
	return s.UserByTelegramID(ctx, telegramID)
}

// UpdateProfile stores the fields collected by the registration wizard.
func (s *Store) UpdateProfile(ctx context.Context, telegramID int64, p domain.Profile) error {
	q := s.db.Rebind(`UPDATE users SET name = ?, age = ?, course = ?, major = ?, description = ?,
		photo_id = ?, updated_at = ? WHERE telegram_id = ?`)
	res, err := s.db.ExecContext(ctx, q,
		p.Name, p.Age, p.Course, p.Major, p.Description, pointer.ToStringOrNil(p.PhotoID), s.ts(), telegramID)
	if err != nil {
		return fmt.Errorf("storage: update profile: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("storage: update profile: %w", domain.ErrNotFound)
	}
	return nil
}

// SetVerificationStatus overwrites the user's review status.
func (s *Store) SetVerificationStatus(ctx context.Context, telegramID int64, status domain.VerificationStatus) error {
	q := s.db.Rebind(`UPDATE users SET verification_status = ?, updated_at = ? WHERE telegram_id = ?`)
	res, err := s.db.ExecContext(ctx, q, status, s.ts(), telegramID)
	if err != nil {
		return fmt.Errorf("storage: set verification status: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("storage: set verification status: %w", domain.ErrNotFound)
	}
	return nil
}

// EventMates lists approved users sharing at least one event with userID.
func (s *Store) EventMates(ctx context.Context, userID int64, limit int) ([]domain.User, error) {
	q := s.db.Rebind(`SELECT ` + prefixed("u", userColumns) + `
		FROM users u
		WHERE u.id <> ? AND u.verification_status = ?
		  AND EXISTS (
			SELECT 1 FROM event_participants mine
			JOIN event_participants theirs ON theirs.event_id = mine.event_id
			WHERE mine.user_id = ? AND theirs.user_id = u.id)
		ORDER BY u.name, u.id
		LIMIT ?`)
	var out []domain.User
	if err := s.db.SelectContext(ctx, &out, q, userID, domain.StatusApproved, userID, limit); err != nil {
		return nil, fmt.Errorf("storage: event mates: %w", err)
	}
	return out, nil
}
