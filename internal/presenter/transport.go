package presenter

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// BotTransport drives the Telegram Bot API through telebot.
type BotTransport struct {
	bot *tele.Bot
}

// NewBotTransport wraps bot.
func NewBotTransport(bot *tele.Bot) *BotTransport {
	return &BotTransport{bot: bot}
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{ChatID: chatID, MessageID: strconv.Itoa(messageID)}
}

func markupOpts(s Screen) []any {
	if s.Markup == nil {
		return nil
	}
	return []any{s.Markup}
}

// Send posts s as a new message and returns its id.
func (t *BotTransport) Send(_ context.Context, chatID int64, s Screen) (int, error) {
	var what any = s.Text
	if s.HasPhoto() {
		what = &tele.Photo{File: tele.File{FileID: s.PhotoID}, Caption: s.Text}
	}
	msg, err := t.bot.Send(tele.ChatID(chatID), what, markupOpts(s)...)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Edit replaces the text and inline keyboard of a text message.
func (t *BotTransport) Edit(_ context.Context, chatID int64, messageID int, s Screen) error {
	_, err := t.bot.Edit(stored(chatID, messageID), s.Text, markupOpts(s)...)
	return err
}

// EditCaption replaces the caption and inline keyboard of a photo message.
func (t *BotTransport) EditCaption(_ context.Context, chatID int64, messageID int, s Screen) error {
	_, err := t.bot.EditCaption(stored(chatID, messageID), s.Text, markupOpts(s)...)
	return err
}

// Delete removes a message.
func (t *BotTransport) Delete(_ context.Context, chatID int64, messageID int) error {
	return t.bot.Delete(stored(chatID, messageID))
}
