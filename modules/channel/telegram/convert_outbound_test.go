package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flemzord/doorman/pkg/message"
)

func TestToMessageConfig(t *testing.T) {
	t.Parallel()

	cfg := toMessageConfig(message.OutboundMessage{
		ChatID:    7,
		Text:      "Goodbye Sam!",
		ParseMode: message.ParseMarkdown,
	})

	if cfg.ChatID != 7 || cfg.Text != "Goodbye Sam!" || cfg.ParseMode != "Markdown" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ReplyMarkup != nil {
		t.Errorf("ReplyMarkup = %v, want nil", cfg.ReplyMarkup)
	}
}

func TestToMessageConfig_Button(t *testing.T) {
	t.Parallel()

	cfg := toMessageConfig(message.OutboundMessage{
		ChatID: 7,
		Text:   "hi",
		Button: &message.Button{Label: "Contact Admin", URL: "https://t.me/admin"},
	})

	markup, ok := cfg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("ReplyMarkup = %T, want InlineKeyboardMarkup", cfg.ReplyMarkup)
	}
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("keyboard = %+v, want one button", markup.InlineKeyboard)
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.Text != "Contact Admin" || btn.URL == nil || *btn.URL != "https://t.me/admin" {
		t.Errorf("button = %+v", btn)
	}
}

func TestToMessageConfig_EmptyButtonIgnored(t *testing.T) {
	t.Parallel()

	cfg := toMessageConfig(message.OutboundMessage{ChatID: 1, Text: "x", Button: &message.Button{}})
	if cfg.ReplyMarkup != nil {
		t.Errorf("ReplyMarkup = %v, want nil for empty button", cfg.ReplyMarkup)
	}
}
