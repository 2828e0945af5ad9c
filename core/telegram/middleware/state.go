package middleware

import (
	"log/slog"

	"github.com/unimeeting/unimeetbot/core/logger"
	tghelpers "github.com/unimeeting/unimeetbot/core/telegram/helpers"
	"github.com/unimeeting/unimeetbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// State returns a middleware that only passes updates from users currently
// in the expected state. Other updates go to onMismatch, or are dropped.
func State(store state.Store, expected state.State, onMismatch tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return nil
			}
			ctx := tghelpers.BuildContext(c)
			current, err := store.State(ctx, c.Sender().ID)
			if err != nil {
				return err
			}
			if current == expected {
				return next(c)
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "fsm.skip",
				slog.String("state", string(current)),
				slog.String("expected", string(expected)),
			)
			if onMismatch != nil {
				return onMismatch(c)
			}
			return nil
		}
	}
}
