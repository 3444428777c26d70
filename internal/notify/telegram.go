package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	apperrors "github.com/gmsas95/quitcoach/internal/errors"
	"github.com/gmsas95/quitcoach/internal/scheduler"
)

// TelegramConfig holds Telegram delivery settings
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// TelegramNotifier delivers nudges to a Telegram chat. Priorities below
// critical are sent silently; critical bypasses notification silencing.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier creates a Telegram-backed notifier.
func NewTelegramNotifier(cfg TelegramConfig, logger *zap.Logger) (*TelegramNotifier, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, apperrors.ErrNotifierNotConfigured
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = false

	logger.Info("Telegram notifier authorized", zap.String("account", api.Self.UserName))

	return &TelegramNotifier{
		api:    api,
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, msg Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(n.chatID, msg.Content)
	out.DisableNotification = msg.Priority != scheduler.PriorityCritical

	if _, err := n.api.Send(out); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrNotifyDelivery, err)
	}

	n.logger.Debug("Nudge delivered via Telegram",
		zap.String("priority", string(msg.Priority)),
	)
	return nil
}
