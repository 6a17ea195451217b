package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/checkin-bot/internal/logger"
)

// BotSender is the part of *tgbotapi.BotAPI the notifier uses.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends messages to Telegram chats. Send errors are logged only.
type Notifier struct {
	bot BotSender
}

func NewNotifier(bot BotSender) *Notifier {
	return &Notifier{bot: bot}
}

// Notify sends text to chatID. Formatted text is shown as a JSON code block.
func (n *Notifier) Notify(ctx context.Context, chatID int64, text string, formatted bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if formatted {
		msg.Text = "```json\n" + escapeCode(text) + "\n```"
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}
	if _, err := n.bot.Send(msg); err != nil {
		logger.FromContext(ctx).Warn("send message failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// escapeCode escapes text for a MarkdownV2 pre block, where only ` and \
// are special.
func escapeCode(s string) string {
	return strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(s)
}
