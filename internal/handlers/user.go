package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/events"
	"github.com/unimeeting/unimeetbot/internal/presenter"
)

// start creates the user on first contact. Users without a profile go
// straight into registration; the rest get their menu.
func (h *Handlers) start(ctx context.Context, in Input) error {
	u, err := h.Store.CreateUser(ctx, in.UserID, in.Username)
	if err != nil {
		return err
	}
	if !u.HasProfile() {
		logger.LogEvent(ctx, logger.Users, slog.LevelInfo, "user.start", slog.Int64("user_id", in.UserID))
		return h.begin(ctx, in, flowRegistration, nil, txtWelcomeNew)
	}
	h.Mode.StartUserOperation(ctx, in.UserID)
	return h.show(ctx, in, presenter.Screen{Text: txtWelcomeBack, Markup: h.menuMarkup(ctx, in, u)})
}

func (h *Handlers) showMenu(ctx context.Context, in Input) error {
	return h.menuScreen(ctx, in, "📋 *Menu*")
}

func (h *Handlers) help(ctx context.Context, in Input) error {
	text := txtHelp
	if h.Access.IsAdmin(ctx, in.UserID, in.Username) {
		text += txtAdminHelp
	}
	return h.menuScreen(ctx, in, text)
}

func (h *Handlers) about(ctx context.Context, in Input) error {
	return h.menuScreen(ctx, in, txtAbout)
}

func (h *Handlers) profile(ctx context.Context, in Input) error {
	u, err := h.user(ctx, in)
	if err != nil {
		return err
	}
	if !u.HasProfile() {
		return h.notice(ctx, in, txtNoProfile)
	}
	return h.show(ctx, in, presenter.Screen{
		PhotoID: profileOf(u).PhotoID,
		Text:    myProfileText(u),
		Markup:  h.menuMarkup(ctx, in, u),
	})
}

func (h *Handlers) edit(ctx context.Context, in Input) error {
	return h.restartProfile(ctx, in)
}

// verify starts the student-card step for a saved profile.
func (h *Handlers) verify(ctx context.Context, in Input) error {
	u, err := h.user(ctx, in)
	if err != nil {
		return err
	}
	switch domain.StateOf(u) {
	case domain.UserNew:
		return h.notice(ctx, in, txtNoProfile)
	case domain.UserPending:
		return h.notice(ctx, in, txtAlreadySent)
	case domain.UserApproved:
		return h.notice(ctx, in, txtVerifyApproved)
	}
	if h.Mode.IsBusy(ctx, in.UserID) {
		return h.notice(ctx, in, txtBusy)
	}
	return h.begin(ctx, in, flowVerification, nil, "")
}

func (h *Handlers) status(ctx context.Context, in Input) error {
	u, err := h.user(ctx, in)
	if err != nil {
		return err
	}
	text := txtVerifyNone
	if u != nil {
		switch u.VerificationStatus {
		case domain.StatusPending:
			text = txtVerifyPending
		case domain.StatusApproved:
			text = txtVerifyApproved
		case domain.StatusRejected:
			text = txtVerifyRejected
		}
	}
	return h.menuScreen(ctx, in, text)
}

func (h *Handlers) findPeople(ctx context.Context, in Input) error {
	n, mates, err := h.Events.Mates(ctx, in.UserID, h.MatesLimit)
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return h.notice(ctx, in, txtNotApproved)
	case errors.Is(err, events.ErrNoMemberships):
		return h.notice(ctx, in, txtNoMates)
	case err != nil:
		return err
	case len(mates) == 0:
		return h.menuScreen(ctx, in, txtMatesEmpty)
	}
	return h.menuScreen(ctx, in, matesText(n, mates))
}

func (h *Handlers) eventList(ctx context.Context, in Input) error {
	list, err := h.Events.List(ctx, in.UserID)
	if errors.Is(err, domain.ErrForbidden) {
		return h.notice(ctx, in, txtNotApproved)
	}
	if err != nil {
		return err
	}
	text := txtEvents
	if len(list) == 0 {
		text = txtNoEvents
	}
	return h.show(ctx, in, presenter.Screen{Text: text, Markup: eventsKeyboard(list)})
}

func (h *Handlers) myEvents(ctx context.Context, in Input) error {
	list, err := h.Events.Mine(ctx, in.UserID)
	if errors.Is(err, domain.ErrForbidden) {
		return h.notice(ctx, in, txtNotApproved)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return h.menuScreen(ctx, in, txtMyEventsEmpty)
	}
	return h.menuScreen(ctx, in, myEventsText(list))
}

func (h *Handlers) eventView(ctx context.Context, in Input, id int64) error {
	v, err := h.Events.View(ctx, in.UserID, id)
	if err != nil {
		return h.eventFailed(ctx, in, err)
	}
	return h.showEvent(ctx, in, v)
}

func (h *Handlers) eventJoin(ctx context.Context, in Input, id int64) error {
	v, err := h.Events.Join(ctx, in.UserID, id)
	if err != nil {
		return h.eventFailed(ctx, in, err)
	}
	h.toast(in, "✅ You joined the event")
	return h.showEvent(ctx, in, v)
}

func (h *Handlers) eventLeave(ctx context.Context, in Input, id int64) error {
	v, err := h.Events.Leave(ctx, in.UserID, id)
	if err != nil {
		return h.eventFailed(ctx, in, err)
	}
	h.toast(in, "🚪 You left the event")
	return h.showEvent(ctx, in, v)
}

func (h *Handlers) showEvent(ctx context.Context, in Input, v *events.View) error {
	return h.show(ctx, in, presenter.Screen{Text: eventText(&v.Event, v.Joined), Markup: eventKeyboard(&v.Event, v.Joined)})
}

// eventFailed reports a stale event and refreshes the list.
func (h *Handlers) eventFailed(ctx context.Context, in Input, err error) error {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return h.notice(ctx, in, txtNotApproved)
	case errors.Is(err, domain.ErrNotFound):
		h.toast(in, txtEventMissing)
	case errors.Is(err, domain.ErrEventInactive):
		h.toast(in, txtEventClosed)
	default:
		return err
	}
	return h.eventList(ctx, in)
}
