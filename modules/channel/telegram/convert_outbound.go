package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flemzord/doorman/pkg/message"
)

// toMessageConfig converts an OutboundMessage into a sendMessage request.
// A button becomes a single-row inline keyboard.
func toMessageConfig(msg message.OutboundMessage) tgbotapi.MessageConfig {
	cfg := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	cfg.ParseMode = string(msg.ParseMode)

	if msg.HasButton() {
		cfg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL(msg.Button.Label, msg.Button.URL),
			),
		)
	}
	return cfg
}
