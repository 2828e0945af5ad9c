package handlers

import (
	"context"
	"errors"

	tghelpers "github.com/unimeeting/unimeetbot/core/telegram/helpers"
	"github.com/unimeeting/unimeetbot/core/telegram/keyboard"
	"github.com/unimeeting/unimeetbot/core/telegram/sender"
	"github.com/unimeeting/unimeetbot/internal/access"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/menu"
	"github.com/unimeeting/unimeetbot/internal/review"

	tele "gopkg.in/telebot.v4"
)

// Sender is the part of the bot used for out-of-band notifications.
type Sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Notifier tells admins about new requests and users about decisions. The
// messages are plain sends outside the rolling screen.
type Notifier struct {
	bot        Sender
	dispatcher *sender.Dispatcher
	access     *access.Authorizer
}

var _ review.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier. dispatcher may be nil to send inline.
func NewNotifier(bot Sender, dispatcher *sender.Dispatcher, a *access.Authorizer) *Notifier {
	return &Notifier{bot: bot, dispatcher: dispatcher, access: a}
}

// NewRequest notifies every known admin with a button opening the request.
func (n *Notifier) NewRequest(ctx context.Context, u *domain.User, req *domain.VerificationRequest) error {
	text := newRequestText(u, req)
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{keyboard.Token("🔎 Open request", token(cbVerifyView, req.ID))})
	var errs []error
	for _, id := range n.access.Recipients(ctx) {
		chat := tele.ChatID(id)
		err := tghelpers.Deliver(ctx, n.dispatcher, "notify.new_request", "sendMessage", func() error {
			_, err := n.bot.Send(chat, text, markup)
			return err
		})
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Decided sends the outcome to the affected user together with the menu
// for their new stage.
func (n *Notifier) Decided(ctx context.Context, r *domain.PendingRequest) error {
	text := txtRejectedNote
	status := domain.StatusRejected
	if r.Status == domain.RequestApproved {
		text, status = txtApprovedNote, domain.StatusApproved
	}
	username := ""
	if r.Username != nil {
		username = *r.Username
	}
	u := &domain.User{Name: r.Name, VerificationStatus: status}
	markup := menu.Render(domain.StateOf(u), n.access.IsAdmin(ctx, r.TelegramID, username), false)
	chat := tele.ChatID(r.TelegramID)
	return tghelpers.Deliver(ctx, n.dispatcher, "notify.decided", "sendMessage", func() error {
		_, err := n.bot.Send(chat, text, markup)
		return err
	})
}
