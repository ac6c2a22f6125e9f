// Package format renders the bot's outbound direct messages from templates.
//
// Templates are plain text with {placeholder} markers. They are compiled once
// when the Formatter is built, so unknown placeholders surface as startup
// errors. Rendering is pure: the same kind and fields always produce the same
// message. A placeholder whose field is empty is a caller error and yields a
// *MissingFieldError rather than a blank substitution.
package format

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/flemzord/doorman/pkg/event"
	"github.com/flemzord/doorman/pkg/message"
)

// Sentinel errors for template compilation and lookup.
var (
	ErrUnknownTemplate    = errors.New("format: unknown template")
	ErrUnknownPlaceholder = errors.New("format: unknown placeholder")
	ErrEmptyTemplate      = errors.New("format: empty template text")
)

// TemplateKind names one of the outbound templates.
type TemplateKind string

// Template kinds.
const (
	Welcome   TemplateKind = "welcome"
	Farewell  TemplateKind = "farewell"
	AutoReply TemplateKind = "auto_reply"
)

// Placeholder names accepted in template text.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldFullName  = "full_name"
	FieldUsername  = "username"
	FieldChatTitle = "chat_title"
)

var knownFields = []string{FieldFirstName, FieldLastName, FieldFullName, FieldUsername, FieldChatTitle}

// Fields carries the values substituted into a template. UserID is the
// destination of the rendered message and is always required.
type Fields struct {
	UserID    int64
	FirstName string
	LastName  string
	Username  string
	ChatTitle string
}

// FieldsFor builds Fields from an event actor and its target chat.
func FieldsFor(user event.User, chat event.Chat) Fields {
	return Fields{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		ChatTitle: chat.Title,
	}
}

func (f Fields) lookup(name string) string {
	switch name {
	case FieldFirstName:
		return f.FirstName
	case FieldLastName:
		return f.LastName
	case FieldFullName:
		return strings.TrimSpace(f.FirstName + " " + f.LastName)
	case FieldUsername:
		return f.Username
	case FieldChatTitle:
		return f.ChatTitle
	default:
		return ""
	}
}

// Template is the configurable payload of one outbound message.
type Template struct {
	Text      string            `yaml:"text"`
	ParseMode message.ParseMode `yaml:"parse_mode,omitempty"`
	Button    *message.Button   `yaml:"button,omitempty"`
}

// MissingFieldError reports a placeholder whose field was not supplied.
type MissingFieldError struct {
	Kind  TemplateKind
	Field string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("format: template %q requires field %q", e.Kind, e.Field)
}

// Options tunes rendering.
type Options struct {
	// EscapeFields escapes user-controlled values (names, chat titles) for
	// the template's parse mode before substitution.
	EscapeFields bool
}

type segment struct {
	literal string
	field   string
}

type compiled struct {
	segments  []segment
	fields    []string
	parseMode message.ParseMode
	button    *message.Button
}

// Formatter renders compiled templates. It is safe for concurrent use.
type Formatter struct {
	templates map[TemplateKind]compiled
	opts      Options
}

// New compiles templates. Every template must have non-empty text and only
// known placeholders.
func New(templates map[TemplateKind]Template, opts Options) (*Formatter, error) {
	f := &Formatter{
		templates: make(map[TemplateKind]compiled, len(templates)),
		opts:      opts,
	}

	var errs []error
	for kind, tmpl := range templates {
		c, err := compile(tmpl)
		if err != nil {
			errs = append(errs, fmt.Errorf("template %q: %w", kind, err))
			continue
		}
		f.templates[kind] = c
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f, nil
}

// Fields returns the placeholders used by the template of the given kind.
func (f *Formatter) Fields(kind TemplateKind) ([]string, error) {
	c, ok := f.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, kind)
	}
	return slices.Clone(c.fields), nil
}

// Format renders the template of the given kind for fields.
func (f *Formatter) Format(kind TemplateKind, fields Fields) (message.OutboundMessage, error) {
	c, ok := f.templates[kind]
	if !ok {
		return message.OutboundMessage{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, kind)
	}
	if fields.UserID == 0 {
		return message.OutboundMessage{}, &MissingFieldError{Kind: kind, Field: "user_id"}
	}

	var b strings.Builder
	for _, seg := range c.segments {
		if seg.field == "" {
			b.WriteString(seg.literal)
			continue
		}
		value := fields.lookup(seg.field)
		if value == "" {
			return message.OutboundMessage{}, &MissingFieldError{Kind: kind, Field: seg.field}
		}
		if f.opts.EscapeFields {
			value = Escape(c.parseMode, value)
		}
		b.WriteString(value)
	}

	msg := message.OutboundMessage{
		ChatID:    fields.UserID,
		Text:      b.String(),
		ParseMode: c.parseMode,
	}
	if !c.button.IsZero() {
		btn := *c.button
		msg.Button = &btn
	}
	return msg, nil
}

// compile splits template text into literal and placeholder segments.
// "{name}" is a placeholder, "{{" is a literal brace; any other brace is
// kept as-is.
func compile(tmpl Template) (compiled, error) {
	if strings.TrimSpace(tmpl.Text) == "" {
		return compiled{}, ErrEmptyTemplate
	}
	if !tmpl.ParseMode.Valid() {
		return compiled{}, fmt.Errorf("format: unsupported parse mode %q", tmpl.ParseMode)
	}

	c := compiled{parseMode: tmpl.ParseMode, button: tmpl.Button}
	text := tmpl.Text
	var lit strings.Builder

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '{' {
			lit.WriteByte(ch)
			continue
		}
		if i+1 < len(text) && text[i+1] == '{' {
			lit.WriteByte('{')
			i++
			continue
		}
		end := strings.IndexByte(text[i+1:], '}')
		if end < 0 || !isIdent(text[i+1:i+1+end]) {
			lit.WriteByte(ch)
			continue
		}
		name := text[i+1 : i+1+end]
		if !slices.Contains(knownFields, name) {
			return compiled{}, fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, name)
		}
		if lit.Len() > 0 {
			c.segments = append(c.segments, segment{literal: lit.String()})
			lit.Reset()
		}
		c.segments = append(c.segments, segment{field: name})
		if !slices.Contains(c.fields, name) {
			c.fields = append(c.fields, name)
		}
		i += end + 1
	}
	if lit.Len() > 0 {
		c.segments = append(c.segments, segment{literal: lit.String()})
	}
	return c, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}
