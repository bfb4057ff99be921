package notify

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Telegram delivers alerts as MarkdownV2 messages; the channel id is the
// numeric chat id.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}
	return &Telegram{bot: bot}, nil
}

func (t *Telegram) Send(ctx context.Context, channelID string, alert Alert) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid telegram chat id %q", channelID)
	}

	msg := tgbotapi.NewMessage(chatID, alert.markdownV2())
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true

	for attempt := 0; attempt < maxRateLimitRetries; attempt++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}

		if apiErr, ok := err.(*tgbotapi.Error); ok && apiErr.RetryAfter > 0 {
			wait := time.Duration(apiErr.RetryAfter)*time.Second + 100*time.Millisecond
			log.Debugf("telegram rate limited on chat %d, retrying in %s", chatID, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		return errors.Wrapf(err, "could not send telegram alert to chat %d", chatID)
	}

	return errors.Errorf("telegram rate limit retries exhausted for chat %d", chatID)
}
