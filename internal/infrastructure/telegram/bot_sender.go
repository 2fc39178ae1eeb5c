// Package telegram contains the Telegram send paths: the shared bot account
// and user-owned MTProto accounts. Both map provider errors onto the domain's
// three-way outcome: success, flood wait, hard failure.
package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/domain"
)

// BotSender sends publications through the bot API.
type BotSender struct {
	bot    *tgbot.Bot
	logger zerolog.Logger
}

// NewBotSender creates a new bot send path from config
func NewBotSender(cfg *config.TelegramConfig, logger zerolog.Logger) (*BotSender, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	b, err := tgbot.New(cfg.BotToken, tgbot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info().Msg("Telegram bot sender created successfully")

	return &BotSender{
		bot:    b,
		logger: logger.With().Str("component", "bot_sender").Logger(),
	}, nil
}

// SendText sends a text message to the chat
func (s *BotSender) SendText(ctx context.Context, chatID int64, text string) (*domain.SendResult, error) {
	msg, err := s.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return nil, s.mapError(err, chatID)
	}

	return &domain.SendResult{MessageID: msg.ID}, nil
}

// SendPhoto sends a photo with caption to the chat
func (s *BotSender) SendPhoto(ctx context.Context, chatID int64, caption, photoURL string) (*domain.SendResult, error) {
	msg, err := s.bot.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileString{Data: photoURL},
		Caption: caption,
	})
	if err != nil {
		return nil, s.mapError(err, chatID)
	}

	return &domain.SendResult{MessageID: msg.ID}, nil
}

// mapError translates bot API errors into the domain taxonomy.
func (s *BotSender) mapError(err error, chatID int64) error {
	var tooMany *tgbot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		s.logger.Warn().Int64("chat_id", chatID).Int("retry_after", tooMany.RetryAfter).Msg("Bot API flood control")
		return domain.NewFloodWaitError(tooMany.RetryAfter)
	}

	if errors.Is(err, tgbot.ErrorForbidden) || errors.Is(err, tgbot.ErrorNotFound) {
		s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Chat unreachable via bot")
		return fmt.Errorf("%w: %v", domain.ErrChatUnreachable, err)
	}

	s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Bot send failed")
	return fmt.Errorf("bot send failed: %w", err)
}

// Ensure BotSender implements domain.BotSender interface
var _ domain.BotSender = (*BotSender)(nil)
