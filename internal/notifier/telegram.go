package notifier

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"phishguard/internal/config"
	"phishguard/internal/models"
)

// Telegram sends high-confidence phishing alerts to a configured chat.
// A nil *Telegram is a valid disabled notifier.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// New creates the Telegram notifier. Returns (nil, nil) when alerting
// is disabled or no token is configured.
func New(cfg *config.Config, logger *zap.Logger) (*Telegram, error) {
	if !cfg.Alerts.Enabled || cfg.Alerts.TelegramBotToken == "" {
		logger.Info("Telegram alerts are disabled (alerts.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Alerts.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram alert bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Telegram{
		api:    botAPI,
		chatID: cfg.Alerts.ChatID,
		logger: logger,
	}, nil
}

// AlertPhishing notifies the chat about a committed high-risk scan.
// Failures are logged only; alerting never affects the scan itself.
func (t *Telegram) AlertPhishing(scan *models.ScanRecord) {
	if t == nil {
		return
	}

	text := fmt.Sprintf(
		"⚠️ Phishing detected\n\nScan #%d\nRisk score: %.2f (%s)\nModel: %s\nTime: %s",
		scan.ID,
		scan.RiskScore,
		scan.ConfidenceLevel,
		scan.ModelVersion,
		scan.CreatedAt.Format("2006-01-02 15:04:05 UTC"),
	)

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send phishing alert",
			zap.Int64("scan_id", scan.ID),
			zap.Error(err))
	}
}
