package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/checkin-bot/internal/domain"
)

// Inbound is one user message: either text or a location.
type Inbound struct {
	ChatID   int64            `json:"chat_id" validate:"required"`
	Text     string           `json:"text" validate:"required_without=Location"`
	Location *domain.Location `json:"location"`
}

// FromUpdate extracts the message the bot understands from a Telegram update.
func FromUpdate(upd tgbotapi.Update) (Inbound, error) {
	msg := upd.Message
	if msg == nil {
		msg = upd.EditedMessage
	}
	if msg == nil || msg.Chat == nil {
		return Inbound{}, &domain.Error{Kind: domain.KindUnrecognizedInbound, Reason: "update carries no message"}
	}

	in := Inbound{
		ChatID: msg.Chat.ID,
		Text:   strings.TrimSpace(msg.Text),
	}
	if msg.Location != nil {
		in.Location = &domain.Location{
			Longitude: msg.Location.Longitude,
			Latitude:  msg.Location.Latitude,
		}
	}
	if vs := domain.Validate(in); len(vs) > 0 {
		return Inbound{}, &domain.Error{Kind: domain.KindUnrecognizedInbound, ChatID: in.ChatID, Violations: vs}
	}
	return in, nil
}
