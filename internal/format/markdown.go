package format

import (
	"html"
	"strings"

	"github.com/flemzord/doorman/pkg/message"
)

// markdownSpecialChars lists the characters that start an entity in the
// legacy Markdown dialect.
var markdownSpecialChars = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
)

// markdownV2SpecialChars lists all characters that must be escaped in MarkdownV2.
var markdownV2SpecialChars = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
	`\`, `\\`,
)

// EscapeMarkdown escapes text for the legacy Markdown dialect.
func EscapeMarkdown(text string) string {
	return markdownSpecialChars.Replace(text)
}

// EscapeMarkdownV2 escapes all special characters for MarkdownV2.
// Special chars: _ * [ ] ( ) ~ ` > # + - = | { } . ! \
func EscapeMarkdownV2(text string) string {
	return markdownV2SpecialChars.Replace(text)
}

// Escape escapes text for the given parse mode. Plain text is returned unchanged.
func Escape(mode message.ParseMode, text string) string {
	switch mode {
	case message.ParseMarkdown:
		return EscapeMarkdown(text)
	case message.ParseMarkdownV2:
		return EscapeMarkdownV2(text)
	case message.ParseHTML:
		return html.EscapeString(text)
	default:
		return text
	}
}
