package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flemzord/doorman/pkg/event"
)

// Decode parses a webhook update body into an InboundEvent. Well-formed
// updates the bot does not act on decode to event.Unknown; only malformed
// JSON is an error, and it wraps event.ErrDecode.
func Decode(body []byte) (event.InboundEvent, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("%w: %w", event.ErrDecode, err)
	}
	return convertUpdate(&update), nil
}

// convertUpdate discriminates on which update field is present.
func convertUpdate(u *tgbotapi.Update) event.InboundEvent {
	switch {
	case u.ChatJoinRequest != nil:
		r := u.ChatJoinRequest
		return event.JoinRequest{
			UpdateID: u.UpdateID,
			Actor:    convertUser(&r.From),
			Chat:     convertChat(&r.Chat),
			Bio:      r.Bio,
		}

	case u.ChatMember != nil:
		m := u.ChatMember
		// The member whose status changed is the recipient of any farewell,
		// not the admin who may have triggered the change.
		actor := convertUser(&m.From)
		if m.NewChatMember.User != nil {
			actor = convertUser(m.NewChatMember.User)
		}
		return event.MemberStatus{
			UpdateID:  u.UpdateID,
			Actor:     actor,
			Chat:      convertChat(&m.Chat),
			OldStatus: event.Status(m.OldChatMember.Status),
			NewStatus: event.Status(m.NewChatMember.Status),
		}

	case u.Message != nil:
		msg := u.Message
		if msg.Chat == nil || !msg.Chat.IsPrivate() {
			return event.Unknown{UpdateID: u.UpdateID, Reason: "message outside a private chat"}
		}
		if msg.From == nil {
			return event.Unknown{UpdateID: u.UpdateID, Reason: "private message without sender"}
		}
		return event.PrivateMessage{
			UpdateID:  u.UpdateID,
			Actor:     convertUser(msg.From),
			Chat:      convertChat(msg.Chat),
			MessageID: msg.MessageID,
			Text:      msg.Text,
		}

	default:
		return event.Unknown{UpdateID: u.UpdateID, Reason: unknownReason(u)}
	}
}

func unknownReason(u *tgbotapi.Update) string {
	switch {
	case u.EditedMessage != nil:
		return "edited_message"
	case u.ChannelPost != nil, u.EditedChannelPost != nil:
		return "channel_post"
	case u.MyChatMember != nil:
		return "my_chat_member"
	case u.CallbackQuery != nil:
		return "callback_query"
	default:
		return "unsupported update type"
	}
}

func convertUser(u *tgbotapi.User) event.User {
	return event.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
		IsBot:     u.IsBot,
	}
}

func convertChat(c *tgbotapi.Chat) event.Chat {
	return event.Chat{
		ID:    c.ID,
		Type:  c.Type,
		Title: c.Title,
	}
}
