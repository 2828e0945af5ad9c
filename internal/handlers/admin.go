package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/presenter"
)

func (h *Handlers) pendingCount(ctx context.Context) (int, error) {
	list, err := h.Review.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// adminPanel enters admin mode and swaps in the admin reply keyboard.
func (h *Handlers) adminPanel(ctx context.Context, in Input) error {
	h.Mode.EnterAdminMode(ctx, in.UserID)
	n, err := h.pendingCount(ctx)
	if err != nil {
		return err
	}
	return h.menuScreen(ctx, in, fmt.Sprintf(txtAdminPanel, n))
}

// adminPanelInline is the inline hub the admin screens link back to.
func (h *Handlers) adminPanelInline(ctx context.Context, in Input) error {
	n, err := h.pendingCount(ctx)
	if err != nil {
		return err
	}
	return h.show(ctx, in, presenter.Screen{Text: fmt.Sprintf(txtAdminPanel, n), Markup: adminPanelKeyboard(n)})
}

func (h *Handlers) exitAdmin(ctx context.Context, in Input) error {
	h.Mode.ExitAdminMode(ctx, in.UserID)
	return h.menuScreen(ctx, in, txtAdminClosed)
}

func (h *Handlers) stats(ctx context.Context, in Input) error {
	s, err := h.Store.Stats(ctx)
	if err != nil {
		return err
	}
	return h.show(ctx, in, presenter.Screen{Text: statsText(s), Markup: statsKeyboard()})
}

func (h *Handlers) pendingList(ctx context.Context, in Input) error {
	list, err := h.Review.ListPending(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(txtPendingList, len(list))
	if len(list) == 0 {
		text = txtPendingEmpty
	}
	return h.show(ctx, in, presenter.Screen{Text: text, Markup: pendingKeyboard(list)})
}

// pending loads a request that still awaits a decision. A stale one is
// reported and the list is shown again.
func (h *Handlers) pending(ctx context.Context, in Input, id int64) (*domain.PendingRequest, bool, error) {
	r, err := h.Review.Request(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && r.Status != domain.RequestPending) {
		h.toast(in, txtStale)
		return nil, false, h.pendingList(ctx, in)
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func (h *Handlers) requestView(ctx context.Context, in Input, id int64) error {
	r, ok, err := h.pending(ctx, in, id)
	if !ok {
		return err
	}
	return h.show(ctx, in, presenter.Screen{PhotoID: r.PhotoID, Text: requestHeader(r), Markup: requestKeyboard(id, false)})
}

func (h *Handlers) requestProfile(ctx context.Context, in Input, id int64) error {
	r, ok, err := h.pending(ctx, in, id)
	if !ok {
		return err
	}
	return h.show(ctx, in, presenter.Screen{
		PhotoID: r.PhotoID, Text: requestProfile(r), Markup: requestKeyboard(id, true), CaptionOnly: true,
	})
}

func (h *Handlers) requestHideProfile(ctx context.Context, in Input, id int64) error {
	r, ok, err := h.pending(ctx, in, id)
	if !ok {
		return err
	}
	return h.show(ctx, in, presenter.Screen{
		PhotoID: r.PhotoID, Text: requestHeader(r), Markup: requestKeyboard(id, false), CaptionOnly: true,
	})
}

func (h *Handlers) approve(ctx context.Context, in Input, id int64) error {
	return h.decide(ctx, in, id, domain.RequestApproved)
}

func (h *Handlers) reject(ctx context.Context, in Input, id int64) error {
	return h.decide(ctx, in, id, domain.RequestRejected)
}

func (h *Handlers) decide(ctx context.Context, in Input, id int64, outcome domain.RequestStatus) error {
	r, err := h.Review.Decide(ctx, id, outcome, in.UserID)
	if errors.Is(err, domain.ErrNotPending) {
		h.toast(in, txtStale)
		return h.pendingList(ctx, in)
	}
	if err != nil {
		return err
	}
	h.toast(in, "Done")
	return h.show(ctx, in, presenter.Screen{
		PhotoID: r.PhotoID, Text: decidedText(r, in.DisplayName), Markup: decidedKeyboard(), CaptionOnly: true,
	})
}

func (h *Handlers) adminEvents(ctx context.Context, in Input) error {
	return h.adminEventsWith(ctx, in, "")
}

// adminEventsWith shows every event; notice, when set, heads the list.
func (h *Handlers) adminEventsWith(ctx context.Context, in Input, notice string) error {
	list, err := h.Events.All(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(txtAdminEvents, len(list))
	if len(list) == 0 {
		text = txtAdminEventsNone
	}
	if notice != "" {
		text = notice + "\n\n" + text
	}
	return h.show(ctx, in, presenter.Screen{Text: text, Markup: adminEventsKeyboard(list)})
}

// createEvent starts the event wizard. An admin in admin mode gets it back
// once the event is stored.
func (h *Handlers) createEvent(ctx context.Context, in Input) error {
	if h.inStep(ctx, in.UserID) {
		return h.notice(ctx, in, txtBusy)
	}
	return h.begin(ctx, in, flowEventCreate, h.returnSeed(ctx, in, 0), "")
}

func (h *Handlers) returnSeed(ctx context.Context, in Input, eventID int64) map[string]string {
	seed := map[string]string{}
	if h.Mode.InAdminMode(ctx, in.UserID) {
		seed[draftReturnAdmin] = "1"
	}
	if eventID > 0 {
		seed[draftEventID] = itoa(eventID)
	}
	return seed
}

func (h *Handlers) manageEvent(ctx context.Context, in Input, id int64) error {
	ev, err := h.Events.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		h.toast(in, txtEventMissing)
		return h.adminEvents(ctx, in)
	}
	if err != nil {
		return err
	}
	return h.showManaged(ctx, in, ev)
}

func (h *Handlers) showManaged(ctx context.Context, in Input, ev *domain.Event) error {
	return h.show(ctx, in, presenter.Screen{Text: adminEventText(ev), Markup: manageKeyboard(ev)})
}

func (h *Handlers) activateEvent(ctx context.Context, in Input, id int64) error {
	return h.setActive(ctx, in, id, true)
}

func (h *Handlers) deactivateEvent(ctx context.Context, in Input, id int64) error {
	return h.setActive(ctx, in, id, false)
}

func (h *Handlers) setActive(ctx context.Context, in Input, id int64, active bool) error {
	ev, err := h.Events.SetActive(ctx, id, active)
	if errors.Is(err, domain.ErrNotFound) {
		h.toast(in, txtEventMissing)
		return h.adminEvents(ctx, in)
	}
	if err != nil {
		return err
	}
	return h.showManaged(ctx, in, ev)
}

func (h *Handlers) editEventName(ctx context.Context, in Input, id int64) error {
	return h.editEvent(ctx, in, id, flowEventEditName)
}

func (h *Handlers) editEventDescription(ctx context.Context, in Input, id int64) error {
	return h.editEvent(ctx, in, id, flowEventEditDesc)
}

func (h *Handlers) editEvent(ctx context.Context, in Input, id int64, flow string) error {
	if _, err := h.Events.Get(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.toast(in, txtEventMissing)
			return h.adminEvents(ctx, in)
		}
		return err
	}
	return h.begin(ctx, in, flow, h.returnSeed(ctx, in, id), "")
}

func (h *Handlers) deleteEvent(ctx context.Context, in Input, id int64) error {
	err := h.Events.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	h.toast(in, txtEventDeleted)
	return h.adminEvents(ctx, in)
}
