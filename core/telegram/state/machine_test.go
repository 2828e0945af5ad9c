package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type senderCtx struct {
	tele.Context
	user *tele.User
}

func (c senderCtx) Sender() *tele.User { return c.user }

func TestMachineDispatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewMachine(store)

	var called State
	require.NoError(t, m.Handle("reg:age", func(tele.Context) error {
		called = "reg:age"
		return nil
	}))
	require.Error(t, m.Handle("reg:age", func(tele.Context) error { return nil }))
	require.Error(t, m.Handle(StateIdle, func(tele.Context) error { return nil }))

	c := senderCtx{user: &tele.User{ID: 10}}
	handled, err := m.Dispatch(ctx, c)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.False(t, m.InProgress(ctx, 10))

	require.NoError(t, store.SetState(ctx, 10, "reg:age"))
	assert.True(t, m.InProgress(ctx, 10))
	handled, err = m.Dispatch(ctx, c)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, State("reg:age"), called)

	require.NoError(t, store.SetState(ctx, 10, "unknown"))
	assert.False(t, m.InProgress(ctx, 10))
}
