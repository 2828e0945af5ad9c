// Package review runs the verification workflow: users submit a student-card
// photo, admins approve or reject the oldest requests first.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/metrics"
	"github.com/unimeeting/unimeetbot/internal/domain"
)

// Store is the persistence the engine needs.
type Store interface {
	UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	CreateVerificationRequest(ctx context.Context, userID int64, photoID string) (*domain.VerificationRequest, error)
	PendingRequests(ctx context.Context) ([]domain.PendingRequest, error)
	VerificationRequest(ctx context.Context, id int64) (*domain.PendingRequest, error)
	MarkVerificationProcessed(ctx context.Context, id int64, outcome domain.RequestStatus, adminID int64) (*domain.PendingRequest, error)
}

// Notifier delivers review messages. Failures are logged by the engine and
// never undo the stored result.
type Notifier interface {
	NewRequest(ctx context.Context, user *domain.User, req *domain.VerificationRequest) error
	Decided(ctx context.Context, req *domain.PendingRequest) error
}

// Engine implements the review operations.
type Engine struct {
	store    Store
	notifier Notifier
	metrics  *metrics.Metrics
}

// New creates an Engine. notifier and m may be nil.
func New(store Store, notifier Notifier, m *metrics.Metrics) *Engine {
	return &Engine{store: store, notifier: notifier, metrics: m}
}

// ListPending returns open requests, oldest first.
func (e *Engine) ListPending(ctx context.Context) ([]domain.PendingRequest, error) {
	return e.store.PendingRequests(ctx)
}

// Request loads one request with its user.
func (e *Engine) Request(ctx context.Context, id int64) (*domain.PendingRequest, error) {
	return e.store.VerificationRequest(ctx, id)
}

// Submit opens a request for the user identified by telegramID. The user
// must have a profile; a second open request yields domain.ErrPendingExists.
func (e *Engine) Submit(ctx context.Context, telegramID int64, photoID string) (*domain.VerificationRequest, error) {
	u, err := e.store.UserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if !u.HasProfile() {
		return nil, fmt.Errorf("review: submit without profile: %w", domain.ErrForbidden)
	}
	req, err := e.store.CreateVerificationRequest(ctx, u.ID, photoID)
	if err != nil {
		return nil, err
	}
	logger.LogEvent(ctx, logger.Review, slog.LevelInfo, "review.submitted",
		slog.Int64("request_id", req.ID),
		slog.Int64("user_id", u.ID),
	)
	if e.notifier != nil {
		if err := e.notifier.NewRequest(ctx, u, req); err != nil {
			e.notifyFailed(ctx, "new_request", req.ID, err)
		}
	}
	return req, nil
}

// Decide applies outcome to a pending request on behalf of adminID. A
// request that is gone or already decided yields domain.ErrNotPending.
func (e *Engine) Decide(ctx context.Context, id int64, outcome domain.RequestStatus, adminID int64) (*domain.PendingRequest, error) {
	if !outcome.Decision() {
		return nil, fmt.Errorf("review: invalid outcome %q", outcome)
	}
	req, err := e.store.MarkVerificationProcessed(ctx, id, outcome, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotPending) {
			e.metrics.ObserveDecision("stale")
			logger.LogEvent(ctx, logger.Review, slog.LevelInfo, "review.stale",
				slog.Int64("request_id", id),
				slog.Int64("admin_id", adminID),
			)
			return nil, domain.ErrNotPending
		}
		return nil, err
	}
	e.metrics.ObserveDecision(string(outcome))
	logger.LogEvent(ctx, logger.Review, slog.LevelInfo, "review.decided",
		slog.Int64("request_id", id),
		slog.String("outcome", string(outcome)),
		slog.Int64("admin_id", adminID),
	)
	if e.notifier != nil {
		if err := e.notifier.Decided(ctx, req); err != nil {
			e.notifyFailed(ctx, "decided", id, err)
		}
	}
	return req, nil
}

func (e *Engine) notifyFailed(ctx context.Context, kind string, id int64, err error) {
	logger.LogEvent(ctx, logger.Review, slog.LevelWarn, "review.notify_failed",
		slog.String("kind", kind),
		slog.Int64("request_id", id),
		slog.String("err", logger.SanitizeLimit(err.Error(), 200)),
	)
}
