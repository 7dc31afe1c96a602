// Package protocol defines the boundary between the bot runtime and the
// messaging network client that backs it.
package protocol

import "time"

// User is the account the bot is logged in as.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Gender of a contact as reported by the network.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Contact is a person known to the bot account.
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Friend    bool   `json:"friend"`
	Alias     string `json:"alias"`
	Signature string `json:"signature"`
	Gender    Gender `json:"gender"`
}

// Room is a group chat the bot account participates in.
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// MessageType is the protocol-native kind of an inbound message.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeVideo    MessageType = "video"
	TypeAudio    MessageType = "audio"
	TypeDocument MessageType = "document"
	TypeSticker  MessageType = "sticker"
	TypeContact  MessageType = "contact"
	TypeLocation MessageType = "location"
	TypeUnknown  MessageType = "unknown"
)

// Message is an inbound chat message.
type Message struct {
	ID         string
	Text       string
	Type       MessageType
	SenderID   string
	SenderName string
	// ChatID is where a reply must be sent: the room for group messages,
	// the sender for direct ones.
	ChatID string
	// RoomID is empty for direct messages.
	RoomID    string
	Timestamp time.Time
	FromSelf  bool
	// MentionsSelf is set when the network reports an explicit mention of
	// the bot account. MentionText then carries the text with the mention
	// removed, if the client could compute it.
	MentionsSelf bool
	MentionText  string
}

// IsGroup reports whether the message was posted in a room.
func (m Message) IsGroup() bool {
	return m.RoomID != ""
}
