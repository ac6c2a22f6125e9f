package format

import "github.com/flemzord/doorman/pkg/message"

// DefaultTemplates returns the built-in templates used when the
// configuration does not override them.
func DefaultTemplates() map[TemplateKind]Template {
	return map[TemplateKind]Template{
		Welcome: {
			Text:      "👋 Hi {first_name}!\n\nWelcome to *{chat_title}*.\n\nYour request has been approved. Enjoy the channel!",
			ParseMode: message.ParseMarkdown,
		},
		Farewell: {
			Text:      "Goodbye {first_name}! 👋\nSorry to see you leave *{chat_title}*.",
			ParseMode: message.ParseMarkdown,
		},
		AutoReply: {
			Text:      "I am a bot and cannot reply to messages. Please contact the admin. Thank you",
			ParseMode: message.ParseMarkdown,
		},
	}
}
