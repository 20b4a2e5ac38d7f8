// Package telegram implements the Telegram Bot channel.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stridecoach/stride/plugin/chat_apps"
	"github.com/stridecoach/stride/plugin/chat_apps/channels"
)

const DefaultParseMode = "Markdown"

// Config holds configuration for the Telegram channel.
type Config struct {
	BotToken string
}

// TelegramChannel implements ChatChannel for the Telegram Bot API.
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	config *Config
}

// NewTelegramChannel creates a new Telegram channel.
func NewTelegramChannel(config *Config) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return &TelegramChannel{
		bot:    bot,
		config: config,
	}, nil
}

// Name returns the platform name.
func (t *TelegramChannel) Name() chat_apps.Platform {
	return chat_apps.PlatformTelegram
}

// ValidateWebhook verifies the incoming webhook request.
func (t *TelegramChannel) ValidateWebhook(ctx context.Context, headers map[string]string, body []byte) error {
	// Telegram webhook authenticity relies on the secret webhook path.
	return nil
}

// ParseMessage parses the incoming webhook payload into an IncomingMessage.
func (t *TelegramChannel) ParseMessage(ctx context.Context, payload []byte) (*chat_apps.IncomingMessage, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		slog.Warn("telegram: failed to parse webhook payload", "error", err)
		return nil, channels.ErrInvalidPayload
	}

	var tgMsg *tgbotapi.Message
	switch {
	case update.Message != nil:
		tgMsg = update.Message
	case update.EditedMessage != nil:
		tgMsg = update.EditedMessage
	default:
		return nil, channels.ErrInvalidPayload
	}
	if tgMsg.From == nil {
		return nil, channels.ErrInvalidPayload
	}

	msg := &chat_apps.IncomingMessage{
		Platform:       chat_apps.PlatformTelegram,
		PlatformUserID: strconv.FormatInt(tgMsg.From.ID, 10),
		PlatformChatID: strconv.FormatInt(tgMsg.Chat.ID, 10),
		Content:        tgMsg.Text,
		Timestamp:      time.Now(),
		Metadata:       make(map[string]string),
	}

	msg.Metadata["update_id"] = strconv.Itoa(update.UpdateID)
	msg.Metadata["username"] = tgMsg.From.UserName
	if tgMsg.Contact != nil {
		// Phone is only available when the user shares their contact card.
		msg.Phone = tgMsg.Contact.PhoneNumber
	}

	return msg, nil
}

// SendMessage sends a text message to Telegram. Returns the Telegram
// message ID as the dispatch identifier.
func (t *TelegramChannel) SendMessage(ctx context.Context, msg *chat_apps.OutgoingMessage) (string, error) {
	chatID, err := strconv.ParseInt(msg.PlatformChatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid telegram chat id %q: %w", msg.PlatformChatID, err)
	}

	tgMsg := tgbotapi.NewMessage(chatID, msg.Content)
	if msg.ParseMode != "" {
		tgMsg.ParseMode = msg.ParseMode
	} else {
		tgMsg.ParseMode = DefaultParseMode
	}

	sent, err := t.bot.Send(tgMsg)
	if err != nil {
		return "", &channels.ChannelError{Code: "SEND_FAILED", Message: "telegram send failed", Err: err}
	}

	return strconv.Itoa(sent.MessageID), nil
}

// Close closes the Telegram channel.
func (t *TelegramChannel) Close() error {
	return nil
}

// Ensure TelegramChannel implements ChatChannel
var _ channels.ChatChannel = (*TelegramChannel)(nil)
