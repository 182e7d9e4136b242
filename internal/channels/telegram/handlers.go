package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/npepeverse/pepebot/internal/router"
)

// DecodeUpdate parses a webhook body into a telego update.
func DecodeUpdate(body []byte) (telego.Update, error) {
	var u telego.Update
	if err := json.Unmarshal(body, &u); err != nil {
		return telego.Update{}, fmt.Errorf("decode update: %w", err)
	}
	return u, nil
}

// Inbound converts a message update for the router. It reports false for
// updates without a message, messages from bots, and service messages other
// than member joins.
func Inbound(u telego.Update) (router.InboundMessage, bool) {
	message := u.Message
	if message == nil || message.From == nil || message.From.IsBot {
		return router.InboundMessage{}, false
	}

	in := router.InboundMessage{
		ChatID:     message.Chat.ID,
		ChatType:   message.Chat.Type,
		MessageID:  message.MessageID,
		SenderID:   message.From.ID,
		SenderName: displayName(*message.From),
		Text:       message.Text,
	}
	if in.Text == "" {
		in.Text = message.Caption
	}
	for _, m := range message.NewChatMembers {
		if m.IsBot {
			continue
		}
		in.NewMembers = append(in.NewMembers, displayName(m))
	}

	if in.Text == "" && len(in.NewMembers) == 0 {
		return router.InboundMessage{}, false
	}
	return in, true
}

// CallbackOf converts a callback query update for the router.
func CallbackOf(u telego.Update) (router.Callback, bool) {
	q := u.CallbackQuery
	if q == nil {
		return router.Callback{}, false
	}
	cb := router.Callback{ID: q.ID, Data: q.Data}
	if q.Message != nil {
		cb.ChatID = q.Message.GetChat().ID
		cb.MessageID = q.Message.GetMessageID()
	}
	return cb, true
}

// displayName prefers the first name, then the @username.
func displayName(user telego.User) string {
	if name := strings.TrimSpace(user.FirstName); name != "" {
		return name
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	return "fren"
}
