package router

import (
	"fmt"

	"github.com/flemzord/doorman/pkg/event"
)

// FilterMode selects which chats an event type is handled for.
type FilterMode string

const (
	// FilterAny handles the event for every chat the bot administers.
	FilterAny FilterMode = "any"
	// FilterChannel handles the event only for the configured channel.
	FilterChannel FilterMode = "channel"
)

// Valid reports whether m is a known mode.
func (m FilterMode) Valid() bool {
	return m == FilterAny || m == FilterChannel
}

// Policy scopes handlers to chats.
type Policy struct {
	// ChannelID is the managed channel.
	ChannelID int64
	// JoinRequests filters join requests. Defaults to FilterAny.
	JoinRequests FilterMode
	// MemberStatus filters membership changes. Defaults to FilterChannel.
	MemberStatus FilterMode
}

// withDefaults returns a copy of the policy with zero values replaced by defaults.
func (p Policy) withDefaults() Policy {
	if p.JoinRequests == "" {
		p.JoinRequests = FilterAny
	}
	if p.MemberStatus == "" {
		p.MemberStatus = FilterChannel
	}
	return p
}

// Validate checks the filter modes and that a channel is set when a filter
// needs one.
func (p Policy) Validate() error {
	p = p.withDefaults()
	if !p.JoinRequests.Valid() {
		return fmt.Errorf("router: invalid join request filter %q (must be \"any\" or \"channel\")", p.JoinRequests)
	}
	if !p.MemberStatus.Valid() {
		return fmt.Errorf("router: invalid member status filter %q (must be \"any\" or \"channel\")", p.MemberStatus)
	}
	if p.ChannelID == 0 && (p.JoinRequests == FilterChannel || p.MemberStatus == FilterChannel) {
		return fmt.Errorf("router: channel id is required by the %q filter", FilterChannel)
	}
	return nil
}

func (p Policy) accepts(mode FilterMode, chat event.Chat) bool {
	return mode == FilterAny || chat.ID == p.ChannelID
}

// AcceptsJoinRequest reports whether join requests to chat are handled.
func (p Policy) AcceptsJoinRequest(chat event.Chat) bool {
	return p.accepts(p.JoinRequests, chat)
}

// AcceptsMemberStatus reports whether membership changes in chat are handled.
func (p Policy) AcceptsMemberStatus(chat event.Chat) bool {
	return p.accepts(p.MemberStatus, chat)
}
