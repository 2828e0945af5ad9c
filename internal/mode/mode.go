// Package mode keeps a user inside at most one interactive flow: plain menu
// navigation, a wizard step, or admin mode.
package mode

import (
	"context"
	"log/slog"

	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
)

// Controller performs mode transitions on the session store. Store errors
// are logged and swallowed; a lost session pointer only makes the user
// repeat a command.
type Controller struct {
	store state.Store
}

// New creates a Controller over store.
func New(store state.Store) *Controller {
	return &Controller{store: store}
}

// EnterAdminMode drops any wizard progress and turns admin mode on.
func (c *Controller) EnterAdminMode(ctx context.Context, userID int64) {
	c.try(ctx, userID, "enter_admin.clear_state", c.store.ClearState(ctx, userID))
	c.try(ctx, userID, "enter_admin.set", c.store.SetAdminMode(ctx, userID, true))
}

// ExitAdminMode wipes wizard state and the admin flag.
func (c *Controller) ExitAdminMode(ctx context.Context, userID int64) {
	c.try(ctx, userID, "exit_admin.clear_state", c.store.ClearState(ctx, userID))
	c.try(ctx, userID, "exit_admin.unset", c.store.SetAdminMode(ctx, userID, false))
}

// StartUserOperation prepares the session for a new wizard: admin mode is
// left and residual state is cleared. The caller sets the first step.
func (c *Controller) StartUserOperation(ctx context.Context, userID int64) {
	if c.InAdminMode(ctx, userID) {
		c.ExitAdminMode(ctx, userID)
		return
	}
	c.try(ctx, userID, "start_operation.clear_state", c.store.ClearState(ctx, userID))
}

// InAdminMode reports the admin flag; a store error reads as false.
func (c *Controller) InAdminMode(ctx context.Context, userID int64) bool {
	on, err := c.store.AdminMode(ctx, userID)
	c.try(ctx, userID, "admin_mode.read", err)
	return err == nil && on
}

// IsBusy reports whether the user is in admin mode or inside a wizard.
func (c *Controller) IsBusy(ctx context.Context, userID int64) bool {
	if c.InAdminMode(ctx, userID) {
		return true
	}
	st, err := c.store.State(ctx, userID)
	c.try(ctx, userID, "state.read", err)
	return err == nil && st != state.StateIdle
}

func (c *Controller) try(ctx context.Context, userID int64, op string, err error) {
	if err == nil {
		return
	}
	logger.LogEvent(ctx, logger.Mode, slog.LevelWarn, "mode.store_error",
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.String("err", err.Error()),
	)
}
