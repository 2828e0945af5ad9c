// Package handlers turns inbound bot updates into calls on the mode,
// wizard, review and events services and renders the resulting screens.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/unimeeting/unimeetbot/core/logger"
	tg "github.com/unimeeting/unimeetbot/core/telegram"
	"github.com/unimeeting/unimeetbot/core/telegram/callbacks"
	"github.com/unimeeting/unimeetbot/core/telegram/commands"
	tghelpers "github.com/unimeeting/unimeetbot/core/telegram/helpers"
	"github.com/unimeeting/unimeetbot/core/telegram/middleware"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
	"github.com/unimeeting/unimeetbot/core/telegram/ui"
	"github.com/unimeeting/unimeetbot/internal/access"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/events"
	"github.com/unimeeting/unimeetbot/internal/menu"
	"github.com/unimeeting/unimeetbot/internal/mode"
	"github.com/unimeeting/unimeetbot/internal/presenter"
	"github.com/unimeeting/unimeetbot/internal/review"
	"github.com/unimeeting/unimeetbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// DefaultMatesLimit caps the "find people" list.
const DefaultMatesLimit = 10

// Store is the persistence the handlers call directly.
type Store interface {
	UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	CreateUser(ctx context.Context, telegramID int64, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, telegramID int64, p domain.Profile) error
	Stats(ctx context.Context) (domain.Stats, error)
}

// Deps are the collaborators of Handlers.
type Deps struct {
	Store     Store
	Sessions  state.Store
	Mode      *mode.Controller
	Presenter *presenter.Presenter
	Wizard    *wizard.Engine
	Review    *review.Engine
	Events    *events.Service
	Access    *access.Authorizer

	MatesLimit int
}

// Handlers implements every command, label, callback and conversation step.
type Handlers struct {
	Deps
}

var _ ui.FallbackProvider = (*Handlers)(nil)

// New validates deps and registers the conversation flows on the wizard engine.
func New(d Deps) (*Handlers, error) {
	if d.Store == nil || d.Sessions == nil || d.Mode == nil || d.Presenter == nil ||
		d.Wizard == nil || d.Review == nil || d.Events == nil || d.Access == nil {
		return nil, errors.New("handlers: missing dependency")
	}
	if d.MatesLimit <= 0 {
		d.MatesLimit = DefaultMatesLimit
	}
	h := &Handlers{Deps: d}
	for _, f := range h.flows() {
		if err := h.Wizard.Register(f); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Register binds commands, callbacks and conversation steps.
func (h *Handlers) Register(reg *tg.Registry, machine *state.Machine) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.wrap(h.start), Description: "Main menu", Aliases: []string{menu.CreateProfile}}},
		{"/profile", commands.Command{Handler: h.wrap(h.profile), Description: "Your profile", Aliases: []string{menu.MyProfile}}},
		{"/edit", commands.Command{Handler: h.wrap(h.edit), Description: "Edit your profile", Aliases: []string{menu.EditProfile}}},
		{"/events", commands.Command{Handler: h.wrap(h.eventList), Description: "Upcoming events", Aliases: []string{menu.Events}}},
		{"/my_events", commands.Command{Handler: h.wrap(h.myEvents), Description: "Events you joined"}},
		{"/menu", commands.Command{Handler: h.wrap(h.showMenu), Description: "Show the menu"}},
		{"/cancel", commands.Command{Handler: h.wrap(h.cancel), Description: "Stop the current action"}},
		{"/help", commands.Command{Handler: h.wrap(h.help), Description: "Help", Aliases: []string{menu.Help}}},
		{"/about", commands.Command{Handler: h.wrap(h.about), Description: "About the bot", Hidden: true, Aliases: []string{menu.About}}},
		{"/verify", commands.Command{Handler: h.wrap(h.verify), Description: "Submit verification", Hidden: true, Aliases: []string{menu.SubmitVerify, menu.Reverify}}},
		{"/status", commands.Command{Handler: h.wrap(h.status), Description: "Verification status", Hidden: true, Aliases: []string{menu.VerifyStatus}}},
		{"/find", commands.Command{Handler: h.wrap(h.findPeople), Description: "Find people", Hidden: true, Aliases: []string{menu.FindPeople}}},

		{"/admin_panel", commands.Command{Handler: h.wrap(h.adminPanel), Description: "Admin panel", AdminOnly: true, Aliases: []string{menu.AdminPanel}}},
		{"/pending", commands.Command{Handler: h.wrap(h.pendingList), Description: "Pending requests", AdminOnly: true, Aliases: []string{menu.PendingRequests}}},
		{"/events_admin", commands.Command{Handler: h.wrap(h.adminEvents), Description: "Manage events", AdminOnly: true, Aliases: []string{menu.ManageEvents}}},
		{"/stats", commands.Command{Handler: h.wrap(h.stats), Description: "Statistics", AdminOnly: true, Hidden: true, Aliases: []string{menu.Statistics}}},
		{"/exit_admin", commands.Command{Handler: h.wrap(h.exitAdmin), Description: "Leave admin mode", Hidden: true, Aliases: []string{menu.ExitAdmin}}},
	}
	for _, c := range cmds {
		reg.RegisterCommand(c.name, c.cmd)
	}

	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{IsAdmin: h.IsAdmin, OnReject: h.Denied})
	inState := func(st state.State, fn func(context.Context, Input) error) tele.HandlerFunc {
		return middleware.State(h.Sessions, st, h.expired)(h.wrap(fn))
	}

	exact := map[string]tele.HandlerFunc{
		cbSaveProfile: inState(stPreview, h.saveProfile),
		cbEditProfile: h.wrap(h.restartProfile),
		cbCancel:      h.wrap(h.cancel),

		cbEventsList:    h.wrap(h.eventList),
		cbEventsRefresh: h.wrap(h.eventList),
		cbEventsClose:   h.wrap(h.showMenu),
		cbNoEvents:      h.silent,
		cbDummy:         h.silent,

		cbAdminPanel:       admin(h.wrap(h.adminPanelInline)),
		cbAdminPending:     admin(h.wrap(h.pendingList)),
		cbAdminStats:       admin(h.wrap(h.stats)),
		cbAdminClose:       admin(h.wrap(h.exitAdmin)),
		cbAdminEventsList:  admin(h.wrap(h.adminEvents)),
		cbAdminEventsRefr:  admin(h.wrap(h.adminEvents)),
		cbAdminEventCreate: admin(h.wrap(h.createEvent)),
	}
	prefixes := map[string]tele.HandlerFunc{
		cbCoursePrefix: inState(stCourse, h.chooseCourse),

		cbEventView:  h.wrap(h.withID(h.eventView)),
		cbEventJoin:  h.wrap(h.withID(h.eventJoin)),
		cbEventLeave: h.wrap(h.withID(h.eventLeave)),

		cbVerifyView:        admin(h.wrap(h.withID(h.requestView))),
		cbVerifyProfile:     admin(h.wrap(h.withID(h.requestProfile))),
		cbVerifyHideProfile: admin(h.wrap(h.withID(h.requestHideProfile))),
		cbVerifyApprove:     admin(h.wrap(h.withID(h.approve))),
		cbVerifyReject:      admin(h.wrap(h.withID(h.reject))),

		cbEventManage:     admin(h.wrap(h.withID(h.manageEvent))),
		cbEventActivate:   admin(h.wrap(h.withID(h.activateEvent))),
		cbEventDeactivate: admin(h.wrap(h.withID(h.deactivateEvent))),
		cbEventEditName:   admin(h.wrap(h.withID(h.editEventName))),
		cbEventEditDesc:   admin(h.wrap(h.withID(h.editEventDescription))),
		cbEventDelete:     admin(h.wrap(h.withID(h.deleteEvent))),
	}
	for key, fn := range exact {
		if err := reg.RegisterCallback(key, fn); err != nil {
			return err
		}
	}
	for prefix, fn := range prefixes {
		if err := reg.RegisterCallbackPrefix(prefix, fn); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	reg.SetTextFallback(h.UnknownText())

	for _, st := range h.Wizard.States() {
		if err := machine.Handle(st, h.wrap(h.step)); err != nil {
			return err
		}
	}
	return machine.Handle(stPreview, h.wrap(h.previewInput))
}

// wrap adapts an Input handler to telebot.
func (h *Handlers) wrap(fn func(context.Context, Input) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		in := FromContext(c)
		ctx := tghelpers.BuildContext(c)
		if in.UserID != 0 {
			h.Access.Observe(in.UserID, in.Username)
		}
		if err := fn(ctx, in); err != nil {
			return fmt.Errorf("handlers: %s: %w", in.Kind, err)
		}
		return nil
	}
}

// withID parses the numeric callback payload.
func (h *Handlers) withID(fn func(context.Context, Input, int64) error) func(context.Context, Input) error {
	return func(ctx context.Context, in Input) error {
		id, err := callbacks.PayloadInt64(in.c)
		if err != nil || id <= 0 {
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "callback.bad_payload",
				slog.String("action", in.Action),
				slog.String("payload", logger.SanitizeLimit(in.Payload, 32)),
			)
			return h.notice(ctx, in, txtError)
		}
		return fn(ctx, in, id)
	}
}

// IsAdmin reports whether the sender of c is an admin.
func (h *Handlers) IsAdmin(c tele.Context) bool {
	u := c.Sender()
	if u == nil {
		return false
	}
	return h.Access.IsAdmin(tghelpers.BuildContext(c), u.ID, u.Username)
}

// Denied answers an admin-only update from a non-admin without touching state.
func (h *Handlers) Denied(c tele.Context) error {
	return h.wrap(func(ctx context.Context, in Input) error {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "admin.denied", slog.Int64("user_id", in.UserID))
		return h.notice(ctx, in, txtAdminDenied)
	})(c)
}

// OnLimited answers a rate-limited update.
func (h *Handlers) OnLimited(c tele.Context) error {
	if c.Callback() != nil {
		return callbacks.Answer(c, &tele.CallbackResponse{Text: "⏳ Slow down a little."})
	}
	return nil
}

// UnknownText handles text that matched no label and no conversation step.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return h.wrap(func(ctx context.Context, in Input) error { return h.menuScreen(ctx, in, txtUnknown) })
}

// UnknownPhoto handles a photo sent outside a conversation step.
func (h *Handlers) UnknownPhoto() tele.HandlerFunc {
	return h.wrap(func(ctx context.Context, in Input) error { return h.menuScreen(ctx, in, txtUnexpectedPic) })
}

// UnknownDocument handles documents, which no step accepts.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return h.wrap(func(ctx context.Context, in Input) error {
		if ok := h.inStep(ctx, in.UserID); ok {
			return h.notice(ctx, in, "❌ Please send a photo, not a file.")
		}
		return h.menuScreen(ctx, in, txtUnknown)
	})
}

// UnknownCallback answers a button whose token no route matches.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return callbacks.Answer(c, &tele.CallbackResponse{Text: "This button is no longer active."})
	}
}

func (h *Handlers) silent(c tele.Context) error {
	return callbacks.Answer(c, nil)
}

func (h *Handlers) expired(c tele.Context) error {
	return h.wrap(func(ctx context.Context, in Input) error {
		return h.notice(ctx, in, "This step has expired. Use the menu.")
	})(c)
}

func (h *Handlers) inStep(ctx context.Context, userID int64) bool {
	_, ok := h.Wizard.Current(ctx, userID)
	return ok
}

// show renders s as the user's current screen.
func (h *Handlers) show(ctx context.Context, in Input, s presenter.Screen) error {
	to := presenter.Target{UserID: in.UserID, ChatID: in.ChatID}
	if in.Callback() {
		h.Presenter.Adopt(ctx, in.UserID, in.lastMessage())
	} else {
		to.InputMessageID = in.MessageID
	}
	return h.Presenter.Show(ctx, to, s)
}

// notice reports a short message: an alert for buttons, a menu screen otherwise.
func (h *Handlers) notice(ctx context.Context, in Input, text string) error {
	if in.Callback() {
		return callbacks.Answer(in.c, &tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return h.menuScreen(ctx, in, text)
}

func (h *Handlers) toast(in Input, text string) {
	if !in.Callback() {
		return
	}
	if err := callbacks.Answer(in.c, &tele.CallbackResponse{Text: text}); err != nil {
		logger.LogEvent(tghelpers.BuildContext(in.c), logger.TG, slog.LevelDebug, "callback.answer_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 120)))
	}
}

// user loads the sender's record; a missing record is reported as nil.
func (h *Handlers) user(ctx context.Context, in Input) (*domain.User, error) {
	u, err := tghelpers.CurrentUser[*domain.User](ctx, h.Store, in.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("handlers: load user: %w", err)
	}
	return u, nil
}

func (h *Handlers) menuMarkup(ctx context.Context, in Input, u *domain.User) *tele.ReplyMarkup {
	isAdmin := h.Access.IsAdmin(ctx, in.UserID, in.Username)
	return menu.Render(domain.StateOf(u), isAdmin, isAdmin && h.Mode.InAdminMode(ctx, in.UserID))
}

// menuScreen shows text with the reply keyboard matching the user's stage.
func (h *Handlers) menuScreen(ctx context.Context, in Input, text string) error {
	u, err := h.user(ctx, in)
	if err != nil {
		return err
	}
	return h.show(ctx, in, presenter.Screen{Text: text, Markup: h.menuMarkup(ctx, in, u)})
}
