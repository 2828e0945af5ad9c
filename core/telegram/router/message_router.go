package router

import (
	"time"

	"github.com/unimeeting/unimeetbot/core/metrics"
	tg "github.com/unimeeting/unimeetbot/core/telegram"
	tghelpers "github.com/unimeeting/unimeetbot/core/telegram/helpers"
	"github.com/unimeeting/unimeetbot/core/telegram/middleware"
	"github.com/unimeeting/unimeetbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls routing and fallbacks for text, photo and document updates.
type TextOptions struct {
	// Machine dispatches updates from users inside a conversation.
	Machine *state.Machine

	IsAdmin       func(tele.Context) bool
	OnAdminReject tele.HandlerFunc

	UnknownText     tele.HandlerFunc
	UnknownPhoto    tele.HandlerFunc
	UnknownDocument tele.HandlerFunc

	Metrics *metrics.Metrics
}

// TextRoutes builds handlers for plain messages. Text is matched against
// command aliases (menu labels) first, then the active conversation step,
// then the fallbacks. Photos only go to the conversation step.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	dispatch := func(c tele.Context, start time.Time, name string) (bool, error) {
		if opts.Machine == nil || c.Sender() == nil {
			return false, nil
		}
		ctx := tghelpers.BuildContext(c)
		if !opts.Machine.InProgress(ctx, c.Sender().ID) {
			return false, nil
		}
		return true, handleWithSummary(c, opts.Metrics, name, start, func() error {
			_, err := opts.Machine.Dispatch(ctx, c)
			return err
		})
	}

	fallback := func(c tele.Context, start time.Time, name string, h tele.HandlerFunc) error {
		if h == nil {
			logHandlerSummary(c, opts.Metrics, name, start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, opts.Metrics, name, start, func() error { return h(c) })
	}

	textHandler := func(c tele.Context) error {
		start := time.Now()
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
						IsAdmin:  opts.IsAdmin,
						OnReject: opts.OnAdminReject,
					})(h)
				}
				return handleWithSummary(c, opts.Metrics, "label."+normalizeHandlerName(key), start, func() error {
					return h(c)
				})
			}
		}
		if handled, err := dispatch(c, start, "fsm"); handled {
			return err
		}
		unknown := opts.UnknownText
		if reg != nil && reg.TextFallback() != nil {
			unknown = reg.TextFallback()
		}
		return fallback(c, start, "unknown_text", unknown)
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if handled, err := dispatch(c, start, "fsm_photo"); handled {
			return err
		}
		return fallback(c, start, "unexpected_photo", opts.UnknownPhoto)
	}

	docHandler := func(c tele.Context) error {
		return fallback(c, time.Now(), "unexpected_document", opts.UnknownDocument)
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.Recover(opts.Metrics)(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(photoHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler)},
	}
}
