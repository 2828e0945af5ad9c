package handlers

import (
	"strings"

	"github.com/unimeeting/unimeetbot/core/telegram/callbacks"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
	"github.com/unimeeting/unimeetbot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

// Kind tags what the user did.
type Kind int

const (
	KindText Kind = iota
	KindCommand
	KindButton
	KindCallback
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindButton:
		return "button"
	case KindCallback:
		return "callback"
	case KindPhoto:
		return "photo"
	}
	return "text"
}

var labels = func() map[string]struct{} {
	out := make(map[string]struct{})
	for _, l := range menu.Labels() {
		out[l] = struct{}{}
	}
	return out
}()

// Input is one inbound update reduced to what the handlers use.
type Input struct {
	Kind     Kind
	UserID   int64
	ChatID   int64
	Username string
	// DisplayName is @username, else the full name.
	DisplayName string

	Command string
	Label   string
	// Action and Payload are the routed callback key and its suffix.
	Action  string
	Payload string

	Text        string
	PhotoFileID string
	// MessageID is the user's message, or the message carrying the pressed button.
	MessageID       int
	MessageHasPhoto bool

	c tele.Context
}

// FromContext builds the Input for the current update.
func FromContext(c tele.Context) Input {
	in := Input{c: c}
	if u := c.Sender(); u != nil {
		in.UserID = u.ID
		in.Username = u.Username
		in.DisplayName = displayName(u)
	}
	if ch := c.Chat(); ch != nil {
		in.ChatID = ch.ID
	} else {
		in.ChatID = in.UserID
	}

	if cb := c.Callback(); cb != nil {
		in.Kind = KindCallback
		in.Action = callbacks.CallbackKey(c)
		in.Payload = callbacks.CallbackPayload(c)
		if cb.Message != nil {
			in.MessageID = cb.Message.ID
			in.MessageHasPhoto = cb.Message.Photo != nil
		}
		return in
	}

	msg := c.Message()
	if msg == nil {
		return in
	}
	in.MessageID = msg.ID
	if msg.Photo != nil {
		in.Kind = KindPhoto
		in.PhotoFileID = msg.Photo.FileID
		in.Text = msg.Caption
		return in
	}
	in.Text = msg.Text
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/"):
		in.Kind = KindCommand
		in.Command = strings.SplitN(strings.Fields(text)[0], "@", 2)[0]
	default:
		if _, ok := labels[text]; ok {
			in.Kind = KindButton
			in.Label = text
		}
	}
	return in
}

// Callback reports whether the input came from an inline button.
func (in Input) Callback() bool { return in.Kind == KindCallback }

func (in Input) lastMessage() state.LastMessage {
	return state.LastMessage{ChatID: in.ChatID, MessageID: in.MessageID, HasPhoto: in.MessageHasPhoto}
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "User " + itoa(u.ID)
	}
	return name
}
