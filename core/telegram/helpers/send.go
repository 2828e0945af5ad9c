package helpers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/telegram/sender"
)

// Deliver runs a send through the dispatcher. Without a dispatcher, or when the
// queue refuses the job, the send runs inline.
func Deliver(ctx context.Context, d *sender.Dispatcher, action, endpoint string, run func() error) error {
	if d == nil {
		return run()
	}
	if err := d.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, logger.ComponentTelegram, "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}
