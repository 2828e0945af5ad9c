// Package events lets approved users browse and join meetups and lets
// admins curate them.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AlekSi/pointer"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/internal/domain"
)

// ErrNoMemberships means the user joined no events yet.
var ErrNoMemberships = errors.New("events: no memberships")

// Store is the persistence the service needs.
type Store interface {
	UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	CreateEvent(ctx context.Context, name, description string, createdBy int64) (*domain.Event, error)
	Event(ctx context.Context, id int64) (*domain.Event, error)
	ActiveEvents(ctx context.Context) ([]domain.Event, error)
	AllEvents(ctx context.Context) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, id int64, upd domain.EventUpdate) error
	DeleteEvent(ctx context.Context, id int64) error
	JoinEvent(ctx context.Context, eventID, userID int64) error
	LeaveEvent(ctx context.Context, eventID, userID int64) error
	IsJoined(ctx context.Context, eventID, userID int64) (bool, error)
	UserEvents(ctx context.Context, userID int64) ([]domain.JoinedEvent, error)
	CountUserEvents(ctx context.Context, userID int64) (int, error)
	EventMates(ctx context.Context, userID int64, limit int) ([]domain.User, error)
}

// View is an event as seen by one user.
type View struct {
	Event  domain.Event
	Joined bool
}

// Service implements the event operations.
type Service struct {
	store Store
}

// New creates a Service.
func New(store Store) *Service {
	return &Service{store: store}
}

// member loads the user and requires an approved verification.
func (s *Service) member(ctx context.Context, telegramID int64) (*domain.User, error) {
	u, err := s.store.UserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if u.VerificationStatus != domain.StatusApproved {
		return nil, domain.ErrForbidden
	}
	return u, nil
}

// List returns the active events.
func (s *Service) List(ctx context.Context, telegramID int64) ([]domain.Event, error) {
	if _, err := s.member(ctx, telegramID); err != nil {
		return nil, err
	}
	return s.store.ActiveEvents(ctx)
}

// View loads an active event. Inactive events read as not found.
func (s *Service) View(ctx context.Context, telegramID, eventID int64) (*View, error) {
	u, err := s.member(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	ev, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.IsActive {
		return nil, domain.ErrNotFound
	}
	joined, err := s.store.IsJoined(ctx, eventID, u.ID)
	if err != nil {
		return nil, err
	}
	return &View{Event: *ev, Joined: joined}, nil
}

// Join adds the user to an active event.
func (s *Service) Join(ctx context.Context, telegramID, eventID int64) (*View, error) {
	u, err := s.member(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	ev, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.IsActive {
		return nil, domain.ErrEventInactive
	}
	if err := s.store.JoinEvent(ctx, eventID, u.ID); err != nil && !errors.Is(err, domain.ErrAlreadyJoined) {
		return nil, err
	}
	logger.LogEvent(ctx, logger.Events, slog.LevelInfo, "events.joined",
		slog.Int64("event_id", eventID),
		slog.Int64("user_id", u.ID),
	)
	return s.reload(ctx, eventID, true)
}

// Leave removes the user from an event.
func (s *Service) Leave(ctx context.Context, telegramID, eventID int64) (*View, error) {
	u, err := s.member(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if err := s.store.LeaveEvent(ctx, eventID, u.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	logger.LogEvent(ctx, logger.Events, slog.LevelInfo, "events.left",
		slog.Int64("event_id", eventID),
		slog.Int64("user_id", u.ID),
	)
	return s.reload(ctx, eventID, false)
}

func (s *Service) reload(ctx context.Context, eventID int64, joined bool) (*View, error) {
	ev, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &View{Event: *ev, Joined: joined}, nil
}

// Mine lists the user's memberships.
func (s *Service) Mine(ctx context.Context, telegramID int64) ([]domain.JoinedEvent, error) {
	u, err := s.member(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.store.UserEvents(ctx, u.ID)
}

// Mates returns how many events the user joined and up to limit approved
// users sharing one of them. Without memberships it yields ErrNoMemberships.
func (s *Service) Mates(ctx context.Context, telegramID int64, limit int) (int, []domain.User, error) {
	u, err := s.member(ctx, telegramID)
	if err != nil {
		return 0, nil, err
	}
	n, err := s.store.CountUserEvents(ctx, u.ID)
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, ErrNoMemberships
	}
	mates, err := s.store.EventMates(ctx, u.ID, limit)
	if err != nil {
		return n, nil, err
	}
	return n, mates, nil
}

// All lists every event for admins.
func (s *Service) All(ctx context.Context) ([]domain.Event, error) {
	return s.store.AllEvents(ctx)
}

// Get loads any event, active or not.
func (s *Service) Get(ctx context.Context, eventID int64) (*domain.Event, error) {
	return s.store.Event(ctx, eventID)
}

// Create stores an active event authored by adminID.
func (s *Service) Create(ctx context.Context, adminID int64, name, description string) (*domain.Event, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" || description == "" {
		return nil, fmt.Errorf("events: name and description are required")
	}
	ev, err := s.store.CreateEvent(ctx, name, description, adminID)
	if err != nil {
		return nil, err
	}
	logger.LogEvent(ctx, logger.Events, slog.LevelInfo, "events.created",
		slog.Int64("event_id", ev.ID),
		slog.Int64("admin_id", adminID),
	)
	return ev, nil
}

// SetActive opens or closes an event.
func (s *Service) SetActive(ctx context.Context, eventID int64, active bool) (*domain.Event, error) {
	return s.update(ctx, eventID, domain.EventUpdate{IsActive: pointer.ToBool(active)})
}

// Rename changes an event's name.
func (s *Service) Rename(ctx context.Context, eventID int64, name string) (*domain.Event, error) {
	return s.update(ctx, eventID, domain.EventUpdate{Name: pointer.ToString(strings.TrimSpace(name))})
}

// Redescribe changes an event's description.
func (s *Service) Redescribe(ctx context.Context, eventID int64, description string) (*domain.Event, error) {
	return s.update(ctx, eventID, domain.EventUpdate{Description: pointer.ToString(strings.TrimSpace(description))})
}

func (s *Service) update(ctx context.Context, eventID int64, upd domain.EventUpdate) (*domain.Event, error) {
	if err := s.store.UpdateEvent(ctx, eventID, upd); err != nil {
		return nil, err
	}
	logger.LogEvent(ctx, logger.Events, slog.LevelInfo, "events.updated",
		slog.Int64("event_id", eventID),
	)
	return s.store.Event(ctx, eventID)
}

// Delete removes an event and its memberships.
func (s *Service) Delete(ctx context.Context, eventID int64) error {
	if err := s.store.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Events, slog.LevelInfo, "events.deleted",
		slog.Int64("event_id", eventID),
	)
	return nil
}
