package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimeeting/unimeetbot/core/metrics"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
	"github.com/unimeeting/unimeetbot/internal/config"
)

const user = int64(9)

func registration(finish FinishFunc) Flow {
	return Flow{
		Name: "registration",
		Steps: []Step{
			{State: "reg:course", Field: FieldCourse},
			{State: "reg:major", Field: FieldMajor},
			{State: "reg:age", Field: FieldAge},
			{State: "reg:name", Field: FieldName},
			{State: "reg:description", Field: FieldDescription},
			{State: "reg:photo", Field: FieldPhoto},
		},
		Finish: finish,
	}
}

func newEngine(t *testing.T, flows ...Flow) (*Engine, state.Store, *metrics.Metrics) {
	t.Helper()
	store := state.NewMemoryStore()
	m := metrics.New()
	e := NewEngine(store, DefaultPolicy(config.DefaultLimits()), m)
	for _, f := range flows {
		require.NoError(t, e.Register(f))
	}
	return e, store, m
}

func TestRegistrationRoundTrip(t *testing.T) {
	var saved map[string]string
	e, store, _ := newEngine(t, registration(func(_ context.Context, _ int64, d map[string]string) (state.State, error) {
		saved = d
		return "reg:preview", nil
	}))
	ctx := context.Background()

	first, err := e.Begin(ctx, user, "registration", nil)
	require.NoError(t, err)
	assert.Equal(t, state.State("reg:course"), first.State)

	inputs := []Input{
		{Text: "2"}, {Text: "CS"}, {Text: "20"}, {Text: "Ann"},
		{Text: "I like hiking."}, {PhotoID: "photo-1"},
	}
	var out Outcome
	for i, in := range inputs {
		out, err = e.Advance(ctx, user, in)
		require.NoError(t, err)
		require.Nil(t, out.Rejected, "step %d", i)
		if i < len(inputs)-1 {
			require.NotNil(t, out.Next)
			assert.False(t, out.Done)
		}
	}
	assert.True(t, out.Done)
	assert.Equal(t, state.State("reg:preview"), out.State)
	assert.Equal(t, map[string]string{
		FieldCourse: "2", FieldMajor: "CS", FieldAge: "20", FieldName: "Ann",
		FieldDescription: "I like hiking.", FieldPhoto: "photo-1",
	}, saved)

	st, err := store.State(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, state.State("reg:preview"), st)
}

func TestRejectedInputKeepsState(t *testing.T) {
	e, store, m := newEngine(t, registration(func(context.Context, int64, map[string]string) (state.State, error) {
		return state.StateIdle, nil
	}))
	ctx := context.Background()
	_, err := e.Begin(ctx, user, "registration", nil)
	require.NoError(t, err)
	_, err = e.Advance(ctx, user, Input{Text: "3"})
	require.NoError(t, err)

	out, err := e.Advance(ctx, user, Input{Text: "X"})
	require.NoError(t, err)
	require.NotNil(t, out.Rejected)
	assert.Equal(t, KindRange, out.Rejected.Kind)
	assert.Equal(t, FieldMajor, out.Step.Field)

	st, err := store.State(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, state.State("reg:major"), st)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WizardRejections.WithLabelValues(FieldMajor, KindRange)))

	step, ok := e.Current(ctx, user)
	require.True(t, ok)
	assert.Equal(t, FieldMajor, step.Field)
}

func TestFinishIdleClearsDraft(t *testing.T) {
	e, store, _ := newEngine(t, Flow{
		Name:  "event_edit_name",
		Steps: []Step{{State: "event:edit_name", Field: FieldEventName}},
		Finish: func(_ context.Context, _ int64, d map[string]string) (state.State, error) {
			assert.Equal(t, "12", d["event_id"])
			return state.StateIdle, nil
		},
	})
	ctx := context.Background()

	_, err := e.Begin(ctx, user, "event_edit_name", map[string]string{"event_id": "12"})
	require.NoError(t, err)
	out, err := e.Advance(ctx, user, Input{Text: "Spring picnic"})
	require.NoError(t, err)
	assert.True(t, out.Done)

	st, err := store.State(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, state.StateIdle, st)
	d, err := store.Draft(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestFinishErrorLeavesState(t *testing.T) {
	boom := errors.New("boom")
	e, store, _ := newEngine(t, Flow{
		Name:   "verification",
		Steps:  []Step{{State: "verify:photo", Field: FieldStudentCard}},
		Finish: func(context.Context, int64, map[string]string) (state.State, error) { return "", boom },
	})
	ctx := context.Background()
	_, err := e.Begin(ctx, user, "verification", nil)
	require.NoError(t, err)

	_, err = e.Advance(ctx, user, Input{PhotoID: "card"})
	require.ErrorIs(t, err, boom)
	st, err := store.State(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, state.State("verify:photo"), st)
}

func TestAdvanceWithoutFlow(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.Advance(context.Background(), user, Input{Text: "hi"})
	require.ErrorIs(t, err, ErrNoStep)
	_, err = e.Begin(context.Background(), user, "missing", nil)
	require.Error(t, err)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	finish := func(context.Context, int64, map[string]string) (state.State, error) { return "", nil }
	e, _, _ := newEngine(t, registration(finish))

	require.Error(t, e.Register(registration(finish)))
	require.Error(t, e.Register(Flow{Name: "other", Steps: []Step{{State: "reg:major", Field: FieldMajor}}, Finish: finish}))
	require.Error(t, e.Register(Flow{Name: "empty", Finish: finish}))
	assert.Len(t, e.States(), 6)
}
