// Package telegram adapts the Telegram Bot API to the relay's inbound and
// outbound message boundary.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Handler receives every inbound text message. Commands arrive unparsed with
// their leading slash.
type Handler func(ctx context.Context, chatID, text string)

type Channel struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func New(token string, logger *zap.Logger) (*Channel, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Channel{
		api:    api,
		logger: logger,
	}, nil
}

// Start runs the long-poll update loop until the updates channel closes.
// Each message is handled on its own goroutine.
func (c *Channel) Start(ctx context.Context, handle Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.api.GetUpdatesChan(u)
	c.logger.Info("Telegram bot launched", zap.String("username", c.api.Self.UserName))

	for update := range updates {
		if update.Message == nil {
			continue
		}

		text := update.Message.Text
		if text == "" && update.Message.Caption != "" {
			text = update.Message.Caption
		}
		if text == "" {
			continue
		}

		chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
		go handle(ctx, chatID, text)
	}
}

// Send delivers a text message to the chat identified by the decimal chat id.
func (c *Channel) Send(recipient, text string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", recipient, err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Stop halts the update loop.
func (c *Channel) Stop() {
	c.api.StopReceivingUpdates()
}
