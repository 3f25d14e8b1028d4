package telegram

import (
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/keagan/clipbot/internal/conversation"
)

// toMessage converts an update to the machine's view. Updates that carry
// no chat message (edits, callbacks, channel posts) are dropped.
func toMessage(upd tgbotapi.Update) (conversation.Message, bool) {
	m := upd.Message
	if m == nil || m.Chat == nil {
		return conversation.Message{}, false
	}

	msg := conversation.Message{
		ChatID:    m.Chat.ID,
		Text:      m.Text,
		URLs:      extractURLs(m.Text, m.Entities),
		RequestID: uuid.NewString(),
	}
	if m.IsCommand() {
		msg.Command = m.Command()
	}
	return msg, true
}

// extractURLs returns the links Telegram detected in text. Entity offsets
// count UTF-16 code units.
func extractURLs(text string, entities []tgbotapi.MessageEntity) []string {
	var units []uint16
	var urls []string

	for _, e := range entities {
		switch e.Type {
		case "text_link":
			if e.URL != "" {
				urls = append(urls, e.URL)
			}
		case "url":
			if units == nil {
				units = utf16.Encode([]rune(text))
			}
			if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > len(units) {
				continue
			}
			urls = append(urls, string(utf16.Decode(units[e.Offset:e.Offset+e.Length])))
		}
	}
	return urls
}
