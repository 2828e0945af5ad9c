package presenter

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimeeting/unimeetbot/core/metrics"
	"github.com/unimeeting/unimeetbot/core/telegram/keyboard"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
)

type call struct {
	op    string
	msgID int
	text  string
}

type fakeTransport struct {
	nextID    int
	calls     []call
	editErr   error
	deleteErr error
	sendErr   error
}

func (f *fakeTransport) Send(_ context.Context, _ int64, s Screen) (int, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	op := "send_text"
	if s.HasPhoto() {
		op = "send_photo"
	}
	f.calls = append(f.calls, call{op: op, msgID: f.nextID, text: s.Text})
	return f.nextID, nil
}

func (f *fakeTransport) Edit(_ context.Context, _ int64, id int, s Screen) error {
	f.calls = append(f.calls, call{op: "edit", msgID: id, text: s.Text})
	return f.editErr
}

func (f *fakeTransport) EditCaption(_ context.Context, _ int64, id int, s Screen) error {
	f.calls = append(f.calls, call{op: "edit_caption", msgID: id, text: s.Text})
	return f.editErr
}

func (f *fakeTransport) Delete(_ context.Context, _ int64, id int) error {
	f.calls = append(f.calls, call{op: "delete", msgID: id})
	return f.deleteErr
}

func (f *fakeTransport) ops() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

var to = Target{UserID: 7, ChatID: 7}

func setup() (*Presenter, *fakeTransport, state.Store, *metrics.Metrics) {
	tr := &fakeTransport{nextID: 100}
	store := state.NewMemoryStore()
	m := metrics.New()
	return New(tr, store, m), tr, store, m
}

func lastMessage(t *testing.T, s state.Store) state.LastMessage {
	t.Helper()
	last, ok, err := s.LastMessage(context.Background(), to.UserID)
	require.NoError(t, err)
	require.True(t, ok)
	return last
}

func TestTextToTextEditsInPlace(t *testing.T) {
	p, tr, store, m := setup()
	ctx := context.Background()

	require.NoError(t, p.Show(ctx, to, Screen{Text: "one"}))
	first := lastMessage(t, store)

	require.NoError(t, p.Show(ctx, to, Screen{Text: "two"}))
	second := lastMessage(t, store)

	assert.Equal(t, first.MessageID, second.MessageID)
	assert.Equal(t, []string{"send_text", "edit"}, tr.ops())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Screens.WithLabelValues(PathSend)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Screens.WithLabelValues(PathEdit)))
}

func TestTextToPhotoReplaces(t *testing.T) {
	p, tr, store, m := setup()
	ctx := context.Background()

	require.NoError(t, p.Show(ctx, to, Screen{Text: "menu"}))
	first := lastMessage(t, store)

	require.NoError(t, p.Show(ctx, to, Screen{Text: "profile", PhotoID: "ph"}))
	second := lastMessage(t, store)

	assert.NotEqual(t, first.MessageID, second.MessageID)
	assert.True(t, second.HasPhoto)
	assert.Equal(t, []string{"send_text", "delete", "send_photo"}, tr.ops())
	assert.Equal(t, first.MessageID, tr.calls[1].msgID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Screens.WithLabelValues(PathReplace)))
}

func TestPhotoToTextReplaces(t *testing.T) {
	p, tr, store, _ := setup()
	ctx := context.Background()

	require.NoError(t, p.Show(ctx, to, Screen{Text: "card", PhotoID: "ph"}))
	require.NoError(t, p.Show(ctx, to, Screen{Text: "list"}))

	assert.Equal(t, []string{"send_photo", "delete", "send_text"}, tr.ops())
	assert.False(t, lastMessage(t, store).HasPhoto)
}

func TestCaptionOnlyEditsPhotoCaption(t *testing.T) {
	p, tr, store, _ := setup()
	ctx := context.Background()

	require.NoError(t, p.Show(ctx, to, Screen{Text: "request #1", PhotoID: "card"}))
	id := lastMessage(t, store).MessageID
	require.NoError(t, p.Show(ctx, to, Screen{Text: "full profile", PhotoID: "card", CaptionOnly: true}))

	assert.Equal(t, []string{"send_photo", "edit_caption"}, tr.ops())
	assert.Equal(t, id, lastMessage(t, store).MessageID)
}

func TestEditFailureFallsBackToFreshSend(t *testing.T) {
	p, tr, store, m := setup()
	ctx := context.Background()

	require.NoError(t, p.Show(ctx, to, Screen{Text: "one"}))
	tr.editErr = errors.New("message to edit not found")
	tr.deleteErr = errors.New("message can't be deleted")

	require.NoError(t, p.Show(ctx, to, Screen{Text: "two"}))
	assert.Equal(t, []string{"send_text", "edit", "delete", "send_text"}, tr.ops())
	assert.Equal(t, 102, lastMessage(t, store).MessageID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Screens.WithLabelValues(PathFallback)))
}

func TestReplyKeyboardIsAlwaysSentFresh(t *testing.T) {
	p, tr, _, _ := setup()
	ctx := context.Background()

	require.NoError(t, p.Show(ctx, to, Screen{Text: "one"}))
	require.NoError(t, p.Show(ctx, to, Screen{Text: "menu", Markup: keyboard.ReplyButtons([]string{"Help"})}))

	assert.Equal(t, []string{"send_text", "delete", "send_text"}, tr.ops())
}

func TestInputMessageDeletedBestEffort(t *testing.T) {
	p, tr, _, _ := setup()
	tr.deleteErr = errors.New("gone")

	target := to
	target.InputMessageID = 55
	require.NoError(t, p.Show(context.Background(), target, Screen{Text: "hi"}))

	require.Len(t, tr.calls, 2)
	assert.Equal(t, call{op: "delete", msgID: 55}, tr.calls[0])
	assert.Equal(t, "send_text", tr.calls[1].op)
}

func TestSendFailureIsReturned(t *testing.T) {
	p, tr, store, _ := setup()
	tr.sendErr = errors.New("bot was blocked by the user")

	err := p.Show(context.Background(), to, Screen{Text: "hi"})
	require.Error(t, err)
	_, ok, err := store.LastMessage(context.Background(), to.UserID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForgetForcesFreshSend(t *testing.T) {
	p, tr, _, _ := setup()
	ctx := context.Background()

	require.NoError(t, p.Show(ctx, to, Screen{Text: "one"}))
	p.Forget(ctx, to.UserID)
	require.NoError(t, p.Show(ctx, to, Screen{Text: "two"}))

	assert.Equal(t, []string{"send_text", "send_text"}, tr.ops())
}

func TestAdoptOnlyWhenUntracked(t *testing.T) {
	p, tr, store, _ := setup()
	ctx := context.Background()

	p.Adopt(ctx, to.UserID, state.LastMessage{ChatID: to.ChatID, MessageID: 9})
	require.NoError(t, p.Show(ctx, to, Screen{Text: "edited"}))
	assert.Equal(t, []string{"edit"}, tr.ops())
	assert.Equal(t, 9, tr.calls[0].msgID)

	p.Adopt(ctx, to.UserID, state.LastMessage{ChatID: to.ChatID, MessageID: 50})
	assert.Equal(t, 9, lastMessage(t, store).MessageID)
}
