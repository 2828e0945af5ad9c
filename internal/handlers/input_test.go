package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unimeeting/unimeetbot/core/telegram/callbacks"
	"github.com/unimeeting/unimeetbot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

func msgCtx(m *tele.Message) *fakeCtx {
	if m.Sender == nil {
		m.Sender = &tele.User{ID: 9, FirstName: "Ann", LastName: "Lee"}
	}
	return &fakeCtx{update: tele.Update{Message: m}, store: map[string]any{}}
}

func TestFromContextKinds(t *testing.T) {
	cmd := FromContext(msgCtx(&tele.Message{ID: 3, Text: "/start@unimeetbot hello"}))
	assert.Equal(t, KindCommand, cmd.Kind)
	assert.Equal(t, "/start", cmd.Command)
	assert.Equal(t, 3, cmd.MessageID)
	assert.Equal(t, "Ann Lee", cmd.DisplayName)

	label := FromContext(msgCtx(&tele.Message{Text: menu.FindPeople}))
	assert.Equal(t, KindButton, label.Kind)
	assert.Equal(t, menu.FindPeople, label.Label)

	text := FromContext(msgCtx(&tele.Message{Text: "Computer science"}))
	assert.Equal(t, KindText, text.Kind)
	assert.Equal(t, "Computer science", text.Text)

	photo := FromContext(msgCtx(&tele.Message{Caption: "me", Photo: &tele.Photo{File: tele.File{FileID: "f1"}}}))
	assert.Equal(t, KindPhoto, photo.Kind)
	assert.Equal(t, "f1", photo.PhotoFileID)
	assert.Equal(t, "me", photo.Text)
}

func TestFromContextCallback(t *testing.T) {
	u := &tele.User{ID: 9, Username: "ann"}
	c := &fakeCtx{store: map[string]any{}, update: tele.Update{Callback: &tele.Callback{
		Sender:  u,
		Data:    "event_join_17",
		Message: &tele.Message{ID: 77, Photo: &tele.Photo{}},
	}}}
	callbacks.SetPayload(c, "17")

	in := FromContext(c)
	assert.True(t, in.Callback())
	assert.Equal(t, "event_join_17", in.Action)
	assert.Equal(t, "17", in.Payload)
	assert.Equal(t, "@ann", in.DisplayName)
	assert.Equal(t, 77, in.MessageID)
	assert.True(t, in.lastMessage().HasPhoto)
	assert.Equal(t, "callback", in.Kind.String())
}
