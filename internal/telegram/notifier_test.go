package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ykvlv/checkin-bot/internal/logger"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, b.err
}

func TestNotify_Plain(t *testing.T) {
	bot := &fakeBot{}
	NewNotifier(bot).Notify(context.Background(), 9, "hi", false)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(9), bot.sent[0].ChatID)
	assert.Equal(t, "hi", bot.sent[0].Text)
	assert.Empty(t, bot.sent[0].ParseMode)
}

func TestNotify_FormattedEscapesCodeBlock(t *testing.T) {
	bot := &fakeBot{}
	NewNotifier(bot).Notify(context.Background(), 9, "{\"a\": \"x`y\\\\z\"}", true)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, bot.sent[0].ParseMode)
	assert.Equal(t, "```json\n{\"a\": \"x\\`y\\\\\\\\z\"}\n```", bot.sent[0].Text)
}

func TestNotify_SendErrorIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	NewNotifier(&fakeBot{err: errors.New("chat not found")}).Notify(ctx, 9, "hi", false)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "send message failed", logs.All()[0].Message)
}
