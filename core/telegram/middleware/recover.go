package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/metrics"
	tghelpers "github.com/unimeeting/unimeetbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Recover catches panics in handlers so one failed update never stops the bot.
func Recover(m *metrics.Metrics) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					m.ObservePanic()
					logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "panic",
						slog.String("status", "fail"),
						slog.String("err", fmt.Sprint(r)),
						slog.String("stack", string(debug.Stack())),
					)
					err = nil
				}
			}()
			return next(c)
		}
	}
}

