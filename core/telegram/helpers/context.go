package helpers

import (
	"context"
	"sync/atomic"

	"github.com/unimeeting/unimeetbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

type sentKey struct{}

// sentCounter tallies messages a handler delivered outside tele.Context.Send.
type sentCounter struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx, true
	}
	return nil, false
}

// BuildContext constructs a context.Context from tele.Context,
// enriching it with RID and update/user/chat metadata for consistent service logging.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := context.Background()
	ctx = logger.WithRID(ctx, rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component(logger.ComponentTelegram))
	ctx = context.WithValue(ctx, sentKey{}, &sentCounter{})
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// NoteSent records one delivered message on the update context.
func NoteSent(ctx context.Context, withKeyboard bool) {
	sc, ok := ctx.Value(sentKey{}).(*sentCounter)
	if !ok {
		return
	}
	sc.messages.Add(1)
	if withKeyboard {
		sc.keyboard.Store(true)
	}
}

// SentCounts returns the messages recorded with NoteSent.
func SentCounts(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	sc, ok := ctx.Value(sentKey{}).(*sentCounter)
	if !ok {
		return 0, false
	}
	return int(sc.messages.Load()), sc.keyboard.Load()
}
