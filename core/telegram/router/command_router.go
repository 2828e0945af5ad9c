package router

import (
	"log/slog"
	"time"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/metrics"
	tg "github.com/unimeeting/unimeetbot/core/telegram"
	"github.com/unimeeting/unimeetbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	IsAdmin       func(tele.Context) bool
	OnAdminReject tele.HandlerFunc
	Metrics       *metrics.Metrics
}

// CommandRoutes prepares slash-command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  wrapCommand(cmd, def.Handler, def.AdminOnly, opts),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}

func wrapCommand(name string, h tele.HandlerFunc, adminOnly bool, opts CommandRouteOptions) tele.HandlerFunc {
	if adminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			IsAdmin:  opts.IsAdmin,
			OnReject: opts.OnAdminReject,
		})(h)
	}
	handlerName := normalizeHandlerName(name)
	inner := h
	h = func(c tele.Context) error {
		return handleWithSummary(c, opts.Metrics, handlerName, time.Now(), func() error { return inner(c) })
	}
	return middleware.Recover(opts.Metrics)(middleware.LoggerMiddleware(h))
}
