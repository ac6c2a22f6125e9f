// Package message defines the outbound side of the bot's data contract:
// a direct message addressed to a single chat, with an optional inline
// URL button and a parse mode understood by the platform client.
package message

// ParseMode selects how the platform renders the message text.
type ParseMode string

const (
	// ParsePlain sends the text verbatim.
	ParsePlain ParseMode = ""
	// ParseMarkdown uses the platform's legacy Markdown dialect
	// (*bold*, _italic_, `code`, [text](url)).
	ParseMarkdown ParseMode = "Markdown"
	// ParseMarkdownV2 uses the stricter MarkdownV2 dialect.
	ParseMarkdownV2 ParseMode = "MarkdownV2"
	// ParseHTML uses the HTML subset supported by the platform.
	ParseHTML ParseMode = "HTML"
)

// Valid reports whether m is a parse mode the platform understands.
func (m ParseMode) Valid() bool {
	switch m {
	case ParsePlain, ParseMarkdown, ParseMarkdownV2, ParseHTML:
		return true
	default:
		return false
	}
}

// Button is an inline keyboard button that opens a URL.
type Button struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// IsZero reports whether the button is unset.
func (b *Button) IsZero() bool {
	return b == nil || (b.Label == "" && b.URL == "")
}

// OutboundMessage is a single text message to be delivered to ChatID.
// For direct messages ChatID is the recipient's user id.
type OutboundMessage struct {
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	ParseMode ParseMode `json:"parse_mode,omitempty"`
	Button    *Button   `json:"button,omitempty"`
}

// NewText creates a plain-text outbound message.
func NewText(chatID int64, text string) OutboundMessage {
	return OutboundMessage{ChatID: chatID, Text: text}
}

// HasButton reports whether the message carries an inline button.
func (m *OutboundMessage) HasButton() bool {
	return !m.Button.IsZero()
}
