package mode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimeeting/unimeetbot/core/telegram/state"
)

const uid = int64(42)

type snapshot struct {
	state state.State
	draft map[string]string
	admin bool
}

func snap(t *testing.T, s state.Store) snapshot {
	t.Helper()
	ctx := context.Background()
	st, err := s.State(ctx, uid)
	require.NoError(t, err)
	d, err := s.Draft(ctx, uid)
	require.NoError(t, err)
	a, err := s.AdminMode(ctx, uid)
	require.NoError(t, err)
	return snapshot{state: st, draft: d, admin: a}
}

func seedWizard(t *testing.T, s state.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SetState(ctx, uid, "reg:major"))
	require.NoError(t, s.UpdateDraft(ctx, uid, map[string]string{"course": "2"}))
}

func TestEnterAdminModeClearsWizard(t *testing.T) {
	s := state.NewMemoryStore()
	c := New(s)
	ctx := context.Background()
	seedWizard(t, s)

	c.EnterAdminMode(ctx, uid)
	got := snap(t, s)
	assert.True(t, got.admin)
	assert.Equal(t, state.StateIdle, got.state)
	assert.Empty(t, got.draft)

	c.EnterAdminMode(ctx, uid)
	assert.Equal(t, got, snap(t, s))
	assert.True(t, c.IsBusy(ctx, uid))
}

func TestExitAdminModeIsIdempotent(t *testing.T) {
	s := state.NewMemoryStore()
	c := New(s)
	ctx := context.Background()
	c.EnterAdminMode(ctx, uid)

	c.ExitAdminMode(ctx, uid)
	once := snap(t, s)
	c.ExitAdminMode(ctx, uid)
	assert.Equal(t, once, snap(t, s))
	assert.False(t, once.admin)
	assert.False(t, c.IsBusy(ctx, uid))
}

func TestStartUserOperationLeavesCleanSlate(t *testing.T) {
	cases := map[string]func(*testing.T, state.Store, *Controller){
		"from admin mode": func(_ *testing.T, _ state.Store, c *Controller) {
			c.EnterAdminMode(context.Background(), uid)
		},
		"from wizard": func(t *testing.T, s state.Store, _ *Controller) {
			seedWizard(t, s)
		},
		"from idle": func(*testing.T, state.Store, *Controller) {},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			s := state.NewMemoryStore()
			c := New(s)
			setup(t, s, c)

			c.StartUserOperation(context.Background(), uid)
			got := snap(t, s)
			assert.False(t, got.admin)
			assert.Equal(t, state.StateIdle, got.state)
			assert.Empty(t, got.draft)
		})
	}
}

func TestAdminAndWizardNeverBothSet(t *testing.T) {
	s := state.NewMemoryStore()
	c := New(s)
	ctx := context.Background()

	ops := []func(){
		func() { c.EnterAdminMode(ctx, uid) },
		func() { seedWizard(t, s) },
		func() { c.EnterAdminMode(ctx, uid) },
		func() { c.StartUserOperation(ctx, uid) },
		func() { c.ExitAdminMode(ctx, uid) },
	}
	for i, op := range ops {
		op()
		got := snap(t, s)
		if i == 1 {
			// seeding bypasses the controller on purpose
			continue
		}
		assert.False(t, got.admin && got.state != state.StateIdle, "step %d", i)
	}
}

type brokenStore struct{ state.Store }

var errBroken = errors.New("store down")

func (brokenStore) State(context.Context, int64) (state.State, error) { return "", errBroken }
func (brokenStore) ClearState(context.Context, int64) error           { return errBroken }
func (brokenStore) AdminMode(context.Context, int64) (bool, error)    { return false, errBroken }
func (brokenStore) SetAdminMode(context.Context, int64, bool) error   { return errBroken }

func TestStoreErrorsAreSwallowed(t *testing.T) {
	c := New(brokenStore{Store: state.NewMemoryStore()})
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.EnterAdminMode(ctx, uid)
		c.ExitAdminMode(ctx, uid)
		c.StartUserOperation(ctx, uid)
	})
	assert.False(t, c.InAdminMode(ctx, uid))
	assert.False(t, c.IsBusy(ctx, uid))
}
