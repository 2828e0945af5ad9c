package router

import (
	"log/slog"
	"time"

	"github.com/unimeeting/unimeetbot/core/metrics"
	tg "github.com/unimeeting/unimeetbot/core/telegram"
	"github.com/unimeeting/unimeetbot/core/telegram/callbacks"
	"github.com/unimeeting/unimeetbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
	Metrics  *metrics.Metrics
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// A callback the handler left unanswered receives an empty answer so the
// client stops its progress indicator.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		defer func() {
			if !callbacks.Answered(c) {
				_ = c.Respond()
			}
		}()

		key, payload := callbacks.ParseCallbackData(c.Callback())
		route, suffix, cbHandler, ok := reg.MatchCallback(key)
		if !ok || cbHandler == nil {
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			extras := []slog.Attr{slog.String("cb_key", key), slog.String("reason", "not_found")}
			return handleWithSummary(c, opts.Metrics, "callback.unknown", start, func() error {
				if fallback == nil {
					return nil
				}
				callbacks.MarkAnswered(c)
				return fallback(c)
			}, extras...)
		}

		if suffix != "" {
			payload = suffix
		}
		callbacks.SetPayload(c, payload)
		name := "callback." + normalizeHandlerName(route)
		return handleWithSummary(c, opts.Metrics, name, start, func() error {
			return cbHandler(c)
		}, slog.String("cb_key", key))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.Recover(opts.Metrics)(middleware.LoggerMiddleware(handler)),
	}
}
