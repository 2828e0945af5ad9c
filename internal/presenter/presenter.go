// Package presenter keeps one rolling bot screen per user. Each new screen
// either edits the previous bot message in place or replaces it.
package presenter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/metrics"
	tghelpers "github.com/unimeeting/unimeetbot/core/telegram/helpers"
	"github.com/unimeeting/unimeetbot/core/telegram/keyboard"
	"github.com/unimeeting/unimeetbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Render paths reported to metrics.
const (
	PathSend     = "send"
	PathEdit     = "edit"
	PathReplace  = "replace"
	PathFallback = "fallback"
)

// Screen is one rendered bot message.
type Screen struct {
	Text    string
	PhotoID string
	Markup  *tele.ReplyMarkup
	// CaptionOnly marks a photo screen that shows the same photo as the
	// previous one, so only the caption and keyboard need to change.
	CaptionOnly bool
}

// HasPhoto reports whether the screen is sent as photo + caption.
func (s Screen) HasPhoto() bool { return s.PhotoID != "" }

// Target identifies the chat a screen goes to.
type Target struct {
	UserID int64
	ChatID int64
	// InputMessageID is the user message that triggered the render; it is
	// deleted best-effort. Zero skips the deletion.
	InputMessageID int
}

// Transport is the narrow slice of the bot API the presenter drives.
type Transport interface {
	Send(ctx context.Context, chatID int64, s Screen) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, s Screen) error
	EditCaption(ctx context.Context, chatID int64, messageID int, s Screen) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Presenter renders screens and tracks the last one per user.
type Presenter struct {
	tr      Transport
	store   state.Store
	metrics *metrics.Metrics
}

// New creates a Presenter. m may be nil.
func New(tr Transport, store state.Store, m *metrics.Metrics) *Presenter {
	return &Presenter{tr: tr, store: store, metrics: m}
}

// Show delivers s as the user's current screen. Edit and delete failures
// degrade to sending fresh; only a failed fresh send is returned.
func (p *Presenter) Show(ctx context.Context, to Target, s Screen) error {
	if to.InputMessageID != 0 {
		if err := p.tr.Delete(ctx, to.ChatID, to.InputMessageID); err != nil {
			p.debug(ctx, "presenter.input_delete_failed", to, err)
		}
	}

	last, ok, err := p.store.LastMessage(ctx, to.UserID)
	if err != nil {
		p.debug(ctx, "presenter.last_read_failed", to, err)
		ok = false
	}
	if !ok || last.ChatID != to.ChatID {
		return p.send(ctx, to, s, PathSend)
	}

	// A reply keyboard can only be attached to a new message.
	if keyboard.IsReply(s.Markup) {
		p.drop(ctx, to, last)
		return p.send(ctx, to, s, PathReplace)
	}

	switch {
	case !last.HasPhoto && !s.HasPhoto():
		if err := p.tr.Edit(ctx, to.ChatID, last.MessageID, s); err != nil {
			return p.fallback(ctx, to, last, s, err)
		}
		p.edited(ctx, s)
		return nil
	case last.HasPhoto && s.HasPhoto() && s.CaptionOnly:
		if err := p.tr.EditCaption(ctx, to.ChatID, last.MessageID, s); err != nil {
			return p.fallback(ctx, to, last, s, err)
		}
		p.edited(ctx, s)
		return nil
	default:
		p.drop(ctx, to, last)
		return p.send(ctx, to, s, PathReplace)
	}
}

// Adopt records msg as the current screen when none is tracked, so a
// button pressed on a screen from before a restart edits that screen.
func (p *Presenter) Adopt(ctx context.Context, userID int64, msg state.LastMessage) {
	if _, ok, err := p.store.LastMessage(ctx, userID); err != nil || ok {
		return
	}
	if err := p.store.SetLastMessage(ctx, userID, msg); err != nil {
		p.debug(ctx, "presenter.adopt_failed", Target{UserID: userID}, err)
	}
}

// Forget clears the recorded screen so the next render is sent fresh.
func (p *Presenter) Forget(ctx context.Context, userID int64) {
	if err := p.store.ClearLastMessage(ctx, userID); err != nil {
		p.debug(ctx, "presenter.forget_failed", Target{UserID: userID}, err)
	}
}

func (p *Presenter) fallback(ctx context.Context, to Target, last state.LastMessage, s Screen, cause error) error {
	logger.LogEvent(ctx, logger.Presenter, slog.LevelDebug, "presenter.edit_failed",
		slog.Int64("user_id", to.UserID),
		slog.Int("message_id", last.MessageID),
		slog.String("err", logger.SanitizeLimit(cause.Error(), 160)),
	)
	p.drop(ctx, to, last)
	return p.send(ctx, to, s, PathFallback)
}

// drop deletes the previous screen and its record, ignoring failures.
func (p *Presenter) drop(ctx context.Context, to Target, last state.LastMessage) {
	if err := p.tr.Delete(ctx, last.ChatID, last.MessageID); err != nil {
		p.debug(ctx, "presenter.delete_failed", to, err)
	}
	if err := p.store.ClearLastMessage(ctx, to.UserID); err != nil {
		p.debug(ctx, "presenter.record_clear_failed", to, err)
	}
}

func (p *Presenter) send(ctx context.Context, to Target, s Screen, path string) error {
	id, err := p.tr.Send(ctx, to.ChatID, s)
	if err != nil {
		logger.LogEvent(ctx, logger.Presenter, slog.LevelWarn, "presenter.send_failed",
			slog.Int64("user_id", to.UserID),
			slog.String("path", path),
			slog.String("err", logger.SanitizeLimit(err.Error(), 160)),
		)
		return fmt.Errorf("presenter: send: %w", err)
	}
	rec := state.LastMessage{ChatID: to.ChatID, MessageID: id, HasPhoto: s.HasPhoto()}
	if err := p.store.SetLastMessage(ctx, to.UserID, rec); err != nil {
		p.debug(ctx, "presenter.record_failed", to, err)
	}
	p.metrics.ObserveScreen(path)
	tghelpers.NoteSent(ctx, s.Markup != nil)
	return nil
}

func (p *Presenter) edited(ctx context.Context, s Screen) {
	p.metrics.ObserveScreen(PathEdit)
	tghelpers.NoteSent(ctx, s.Markup != nil)
}

func (p *Presenter) debug(ctx context.Context, event string, to Target, err error) {
	logger.LogEvent(ctx, logger.Presenter, slog.LevelDebug, event,
		slog.Int64("user_id", to.UserID),
		slog.String("err", logger.SanitizeLimit(err.Error(), 160)),
	)
}
