package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

const (
	payloadKey  = "cb_payload"
	answeredKey = "cb_answered"
)

// ParseCallbackData splits callback data into key and payload.
// Both Telebot's "\f<unique>|<payload>" encoding and raw tokens are accepted;
// a raw token carries no payload until a prefix route assigns one.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// CallbackKey returns the routing key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// SetPayload stores the payload captured by the router for the current update.
func SetPayload(c tele.Context, payload string) {
	c.Set(payloadKey, payload)
}

// CallbackPayload returns the payload of the current callback. A payload set
// by the router takes precedence over the one encoded in the data.
func CallbackPayload(c tele.Context) string {
	if v, ok := c.Get(payloadKey).(string); ok {
		return v
	}
	_, payload := ParseCallbackData(c.Callback())
	return payload
}

// Answer responds to the callback and marks it answered.
func Answer(c tele.Context, resp *tele.CallbackResponse) error {
	MarkAnswered(c)
	if resp == nil {
		return c.Respond()
	}
	return c.Respond(resp)
}

// MarkAnswered records that the callback received a response.
func MarkAnswered(c tele.Context) {
	c.Set(answeredKey, true)
}

// Answered reports whether the callback was already answered.
func Answered(c tele.Context) bool {
	v, _ := c.Get(answeredKey).(bool)
	return v
}
