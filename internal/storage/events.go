package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/unimeeting/unimeetbot/internal/domain"
)

const eventSelect = `SELECT e.id, e.name, e.description, e.is_active, e.created_by, e.created_at,
	(SELECT COUNT(*) FROM event_participants p WHERE p.event_id = e.id) AS participant_count
	FROM events e`

// CreateEvent inserts an active event.
func (s *Store) CreateEvent(ctx context.Context, name, description string, createdBy int64) (*domain.Event, error) {
	ev := &domain.Event{
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   s.ts(),
	}
	q := s.db.Rebind(`INSERT INTO events (name, description, is_active, created_by, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.GetContext(ctx, &ev.ID, q, ev.Name, ev.Description, ev.IsActive, ev.CreatedBy, ev.CreatedAt); err != nil {
		return nil, fmt.Errorf("storage: create event: %w", err)
	}
	return ev, nil
}

// Event loads one event with its participant count.
func (s *Store) Event(ctx context.Context, id int64) (*domain.Event, error) {
	var ev domain.Event
	if err := s.db.GetContext(ctx, &ev, s.db.Rebind(eventSelect+` WHERE e.id = ?`), id); err != nil {
		return nil, fmt.Errorf("storage: event: %w", notFound(err, domain.ErrNotFound))
	}
	return &ev, nil
}

// ActiveEvents lists open events, newest first.
func (s *Store) ActiveEvents(ctx context.Context) ([]domain.Event, error) {
	var out []domain.Event
	q := s.db.Rebind(eventSelect + ` WHERE e.is_active = ? ORDER BY e.created_at DESC, e.id DESC`)
	if err := s.db.SelectContext(ctx, &out, q, true); err != nil {
		return nil, fmt.Errorf("storage: active events: %w", err)
	}
	return out, nil
}

// AllEvents lists every event, newest first.
func (s *Store) AllEvents(ctx context.Context) ([]domain.Event, error) {
	var out []domain.Event
	if err := s.db.SelectContext(ctx, &out, eventSelect+` ORDER BY e.created_at DESC, e.id DESC`); err != nil {
		return nil, fmt.Errorf("storage: all events: %w", err)
	}
	return out, nil
}

// UpdateEvent applies the non-nil fields of upd.
func (s *Store) UpdateEvent(ctx context.Context, id int64, upd domain.EventUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *upd.Description)
	}
	if upd.IsActive != nil {
		sets, args = append(sets, "is_active = ?"), append(args, *upd.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := s.db.Rebind(`UPDATE events SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("storage: update event: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("storage: update event: %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteEvent removes the event; memberships cascade.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("storage: delete event: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("storage: delete event: %w", domain.ErrNotFound)
	}
	return nil
}

// JoinEvent adds a membership. An existing one yields domain.ErrAlreadyJoined.
func (s *Store) JoinEvent(ctx context.Context, eventID, userID int64) error {
	q := s.db.Rebind(`INSERT INTO event_participants (event_id, user_id, joined_at) VALUES (?, ?, ?)
		ON CONFLICT (event_id, user_id) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, q, eventID, userID, s.ts())
	if err != nil {
		return fmt.Errorf("storage: join event: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("storage: join event: %w", domain.ErrAlreadyJoined)
	}
	return nil
}

// LeaveEvent removes a membership.
func (s *Store) LeaveEvent(ctx context.Context, eventID, userID int64) error {
	q := s.db.Rebind(`DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, q, eventID, userID)
	if err != nil {
		return fmt.Errorf("storage: leave event: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("storage: leave event: %w", domain.ErrNotFound)
	}
	return nil
}

// IsJoined reports whether the user joined the event.
func (s *Store) IsJoined(ctx context.Context, eventID, userID int64) (bool, error) {
	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM event_participants WHERE event_id = ? AND user_id = ?`)
	if err := s.db.GetContext(ctx, &n, q, eventID, userID); err != nil {
		return false, fmt.Errorf("storage: is joined: %w", err)
	}
	return n > 0, nil
}

// UserEvents lists the user's memberships, latest join first.
func (s *Store) UserEvents(ctx context.Context, userID int64) ([]domain.JoinedEvent, error) {
	q := s.db.Rebind(`SELECT e.id, e.name, e.description, e.is_active, e.created_by, e.created_at,
		(SELECT COUNT(*) FROM event_participants c WHERE c.event_id = e.id) AS participant_count,
		p.joined_at
		FROM event_participants p
		JOIN events e ON e.id = p.event_id
		WHERE p.user_id = ?
		ORDER BY p.joined_at DESC, e.id DESC`)
	var out []domain.JoinedEvent
	if err := s.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, fmt.Errorf("storage: user events: %w", err)
	}
	return out, nil
}

// CountUserEvents counts the user's memberships.
func (s *Store) CountUserEvents(ctx context.Context, userID int64) (int, error) {
	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM event_participants WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &n, q, userID); err != nil {
		return 0, fmt.Errorf("storage: count user events: %w", err)
	}
	return n, nil
}
