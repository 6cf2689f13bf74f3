package entity

import (
	"strings"
	"time"
)

type MessageStatus string

const (
	MessagePending MessageStatus = "pending"
	MessageSent    MessageStatus = "sent"
	MessageFailed  MessageStatus = "failed"
)

// LocalIDPrefix marks ids generated on this client before the backend has
// confirmed the message. Backend ids are hex object ids and never carry it.
const LocalIDPrefix = "local-"

type Message struct {
	ID        string        `json:"id"`
	RoomID    string        `json:"roomId"`
	SenderID  string        `json:"senderId"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
	Status    MessageStatus `json:"-"`
}

func (m Message) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}
