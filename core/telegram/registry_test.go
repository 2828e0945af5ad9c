package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/unimeeting/unimeetbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	r.RegisterCommand("/pending", commands.Command{Handler: noop, Description: "Pending", AdminOnly: true})
	r.RegisterCommand("/profile", commands.Command{Handler: noop, Description: "Profile", Aliases: []string{"👤 My profile"}})
	r.RegisterCommand("nop", commands.Command{Handler: noop, Description: "no slash"})

	assert.Len(t, r.Commands(), 3)

	visible := r.ListCommands(true)
	require.Len(t, visible, 2)
	assert.Equal(t, "profile", visible[0].Text)
	assert.Equal(t, "start", visible[1].Text)

	key, _, ok := r.LookupCommand("👤 My profile")
	require.True(t, ok)
	assert.Equal(t, "/profile", key)

	_, _, ok = r.LookupCommand("my profile")
	assert.False(t, ok)
}

func TestRegistryCallbackMatching(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCallback("admin_close", noop))
	require.NoError(t, r.RegisterCallbackPrefix("event_", noop))
	require.NoError(t, r.RegisterCallbackPrefix("event_join_", noop))
	require.Error(t, r.RegisterCallbackPrefix("event_", noop))

	route, payload, _, ok := r.MatchCallback("admin_close")
	require.True(t, ok)
	assert.Equal(t, "admin_close", route)
	assert.Empty(t, payload)

	route, payload, _, ok = r.MatchCallback("event_join_17")
	require.True(t, ok)
	assert.Equal(t, "event_join_", route)
	assert.Equal(t, "17", payload)

	_, _, _, ok = r.MatchCallback("verify_approve_1")
	assert.False(t, ok)

	assert.Equal(t, []string{"admin_close", "event_*", "event_join_*"}, r.ListCallbacks())
}
