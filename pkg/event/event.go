// Package event defines the inbound side of the bot's data contract.
//
// An InboundEvent is a closed set of variants decoded from a platform
// update: JoinRequest, MemberStatus, PrivateMessage and the Unknown
// fallback for any update shape the bot does not act on. Variants are
// plain values; they are built, dispatched and discarded within a single
// webhook request.
package event

import (
	"errors"
	"strings"
)

// ErrDecode marks a payload that could not be decoded into an InboundEvent.
// Decoders wrap it so callers can tell malformed input from other failures.
var ErrDecode = errors.New("event: malformed update")

// Kind discriminates InboundEvent variants.
type Kind string

// Supported kinds.
const (
	KindJoinRequest    Kind = "join_request"
	KindMemberStatus   Kind = "member_status"
	KindPrivateMessage Kind = "private_message"
	KindUnknown        Kind = "unknown"
)

// InboundEvent is implemented only by the variants in this package.
type InboundEvent interface {
	Kind() Kind
	// Update returns the platform update id, or 0 when absent.
	Update() int
	isInboundEvent()
}

// User is the actor of an event.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	IsBot     bool   `json:"is_bot,omitempty"`
}

// FullName joins first and last name the way the platform displays them.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Chat is the conversation an event targets.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Status is a chat membership status.
type Status string

// Membership statuses reported by the platform.
const (
	StatusCreator       Status = "creator"
	StatusAdministrator Status = "administrator"
	StatusMember        Status = "member"
	StatusRestricted    Status = "restricted"
	StatusLeft          Status = "left"
	StatusKicked        Status = "kicked"
)

// IsDeparture reports whether the status means the user is no longer in the chat.
func (s Status) IsDeparture() bool {
	return s == StatusLeft || s == StatusKicked
}

// JoinRequest is a request by Actor to join Chat.
type JoinRequest struct {
	UpdateID int    `json:"update_id"`
	Actor    User   `json:"actor"`
	Chat     Chat   `json:"chat"`
	Bio      string `json:"bio,omitempty"`
}

// MemberStatus reports a membership change of Actor in Chat.
// Actor is the member whose status changed, not the admin who changed it.
type MemberStatus struct {
	UpdateID  int    `json:"update_id"`
	Actor     User   `json:"actor"`
	Chat      Chat   `json:"chat"`
	OldStatus Status `json:"old_status,omitempty"`
	NewStatus Status `json:"new_status"`
}

// PrivateMessage is a message sent to the bot in a one-to-one chat.
type PrivateMessage struct {
	UpdateID  int    `json:"update_id"`
	Actor     User   `json:"actor"`
	Chat      Chat   `json:"chat"`
	MessageID int    `json:"message_id,omitempty"`
	Text      string `json:"text"`
}

// Unknown is any update the bot does not act on.
type Unknown struct {
	UpdateID int    `json:"update_id"`
	Reason   string `json:"reason,omitempty"`
}

// Kind implements InboundEvent.
func (JoinRequest) Kind() Kind { return KindJoinRequest }

// Kind implements InboundEvent.
func (MemberStatus) Kind() Kind { return KindMemberStatus }

// Kind implements InboundEvent.
func (PrivateMessage) Kind() Kind { return KindPrivateMessage }

// Kind implements InboundEvent.
func (Unknown) Kind() Kind { return KindUnknown }

func (e JoinRequest) Update() int    { return e.UpdateID }
func (e MemberStatus) Update() int   { return e.UpdateID }
func (e PrivateMessage) Update() int { return e.UpdateID }
func (e Unknown) Update() int        { return e.UpdateID }

func (JoinRequest) isInboundEvent()    {}
func (MemberStatus) isInboundEvent()   {}
func (PrivateMessage) isInboundEvent() {}
func (Unknown) isInboundEvent()        {}

// Actor returns the user behind ev. The second result is false for Unknown.
func Actor(ev InboundEvent) (User, bool) {
	switch e := ev.(type) {
	case JoinRequest:
		return e.Actor, true
	case MemberStatus:
		return e.Actor, true
	case PrivateMessage:
		return e.Actor, true
	default:
		return User{}, false
	}
}

// TargetChat returns the chat ev refers to. The second result is false for Unknown.
func TargetChat(ev InboundEvent) (Chat, bool) {
	switch e := ev.(type) {
	case JoinRequest:
		return e.Chat, true
	case MemberStatus:
		return e.Chat, true
	case PrivateMessage:
		return e.Chat, true
	default:
		return Chat{}, false
	}
}
