// Package domain contains core concepts of the chat engine.
// Messages are immutable once appended to a chatroom log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageID string

// NewMessageID returns a UUIDv7 string. Within one process the values are
// monotonically increasing, so they sort like their creation order.
func NewMessageID() MessageID {
	return MessageID(uuid.Must(uuid.NewV7()).String())
}

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message represents an immutable chat entry.
type Message struct {
	ID         MessageID  `json:"id"`
	ChatroomID ChatroomID `json:"chatroomId"`
	Sender     Sender     `json:"sender"`
	Content    string     `json:"content"`
	Image      []byte     `json:"image,omitempty"`
	CreatedAt  time.Time  `json:"timestamp"`
}

// NewMessage is what callers hand to the store; ID and timestamp are assigned on append.
type NewMessage struct {
	Sender  Sender
	Content string
	Image   []byte
}

func (m Message) HasImage() bool {
	return len(m.Image) > 0
}

// ReplyJob asks for one assistant answer in a chatroom.
type ReplyJob struct {
	ChatroomID ChatroomID
	UserText   string
}
