package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/unimeeting/unimeetbot/core/telegram"
	"github.com/unimeeting/unimeetbot/core/telegram/callbacks"
	"github.com/unimeeting/unimeetbot/core/telegram/commands"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
)

type fakeCtx struct {
	tele.Context
	update   tele.Update
	sender   *tele.User
	store    map[string]any
	text     string
	responds int
}

func newTextCtx(userID int64, text string) *fakeCtx {
	u := &tele.User{ID: userID}
	return &fakeCtx{
		update: tele.Update{ID: 1, Message: &tele.Message{Sender: u, Text: text, Chat: &tele.Chat{ID: userID}}},
		sender: u,
		store:  map[string]any{},
		text:   text,
	}
}

func newCallbackCtx(userID int64, data string) *fakeCtx {
	u := &tele.User{ID: userID}
	return &fakeCtx{
		update: tele.Update{ID: 2, Callback: &tele.Callback{Sender: u, Data: data}},
		sender: u,
		store:  map[string]any{},
	}
}

func (f *fakeCtx) Update() tele.Update       { return f.update }
func (f *fakeCtx) Sender() *tele.User        { return f.sender }
func (f *fakeCtx) Chat() *tele.Chat          { return &tele.Chat{ID: f.sender.ID, Type: tele.ChatPrivate} }
func (f *fakeCtx) Text() string              { return f.text }
func (f *fakeCtx) Callback() *tele.Callback  { return f.update.Callback }
func (f *fakeCtx) Get(k string) any          { return f.store[k] }
func (f *fakeCtx) Set(k string, v any)       { f.store[k] = v }
func (f *fakeCtx) Respond(...*tele.CallbackResponse) error {
	f.responds++
	return nil
}

func TestCallbackRoutePrefixPayload(t *testing.T) {
	reg := tg.NewRegistry()
	var got string
	require.NoError(t, reg.RegisterCallbackPrefix("event_join_", func(c tele.Context) error {
		got = callbacks.CallbackPayload(c)
		return nil
	}))
	route := CallbackRoute(reg, CallbackOptions{})

	c := newCallbackCtx(1, "event_join_17")
	require.NoError(t, route.Handler(c))
	assert.Equal(t, "17", got)
	assert.Equal(t, 1, c.responds)
}

func TestCallbackRouteAnswersOnce(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCallback("admin_close", func(c tele.Context) error {
		return callbacks.Answer(c, &tele.CallbackResponse{Text: "closed"})
	}))
	route := CallbackRoute(reg, CallbackOptions{})

	c := newCallbackCtx(1, "admin_close")
	require.NoError(t, route.Handler(c))
	assert.Equal(t, 1, c.responds)
}

func TestCallbackRouteUnknown(t *testing.T) {
	reg := tg.NewRegistry()
	var fallback bool
	route := CallbackRoute(reg, CallbackOptions{NotFound: func(c tele.Context) error {
		fallback = true
		return c.Respond(&tele.CallbackResponse{Text: "stale"})
	}})
	c := newCallbackCtx(1, "nope")
	require.NoError(t, route.Handler(c))
	assert.True(t, fallback)
	assert.Equal(t, 1, c.responds)
}

func TestTextRoutesOrder(t *testing.T) {
	ctx := context.Background()
	reg := tg.NewRegistry()
	var hits []string
	reg.RegisterCommand("/profile", commands.Command{
		Description: "Profile",
		Aliases:     []string{"👤 My profile"},
		Handler:     func(tele.Context) error { hits = append(hits, "label"); return nil },
	})
	store := state.NewMemoryStore()
	m := state.NewMachine(store)
	require.NoError(t, m.Handle("reg:name", func(tele.Context) error { hits = append(hits, "fsm"); return nil }))

	routes := TextRoutes(reg, TextOptions{
		Machine:     m,
		UnknownText: func(tele.Context) error { hits = append(hits, "unknown"); return nil },
	})
	require.Len(t, routes, 3)
	text := routes[0].Handler

	require.NoError(t, text(newTextCtx(5, "hello")))
	require.NoError(t, store.SetState(ctx, 5, "reg:name"))
	require.NoError(t, text(newTextCtx(5, "Ann")))
	require.NoError(t, text(newTextCtx(5, "👤 My profile")))

	assert.Equal(t, []string{"unknown", "fsm", "label"}, hits)
}

func TestAdminOnlyLabel(t *testing.T) {
	reg := tg.NewRegistry()
	var ran, rejected bool
	reg.RegisterCommand("/pending", commands.Command{
		Description: "Pending",
		AdminOnly:   true,
		Aliases:     []string{"📋 Pending requests"},
		Handler:     func(tele.Context) error { ran = true; return nil },
	})
	routes := TextRoutes(reg, TextOptions{
		IsAdmin:       func(tele.Context) bool { return false },
		OnAdminReject: func(tele.Context) error { rejected = true; return nil },
	})
	require.NoError(t, routes[0].Handler(newTextCtx(9, "📋 Pending requests")))
	assert.False(t, ran)
	assert.True(t, rejected)
}

type codedErr struct{}

func (codedErr) Error() string { return "x" }
func (codedErr) Code() string  { return "not pending" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "NOT_PENDING", deriveErrorCode(codedErr{}))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
	assert.Equal(t, "", deriveErrorCode(nil))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "my_events", normalizeHandlerName("/my_events"))
	assert.Equal(t, "event_join", normalizeHandlerName("event_join_"))
	assert.Equal(t, "unknown", normalizeHandlerName(" "))
}
