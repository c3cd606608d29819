package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChatroomID string

// NewChatroomID returns a time-ordered identifier.
func NewChatroomID() ChatroomID {
	return ChatroomID(uuid.Must(uuid.NewV7()).String())
}

// Chatroom carries summary fields derived from its message log.
// They are kept in sync by the conversation store on every append.
type Chatroom struct {
	ID              ChatroomID `json:"id"`
	Title           string     `json:"title"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastMessage     string     `json:"lastMessage,omitempty"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`
	MessageCount    int        `json:"messageCount"`
}

// ConversationSnapshot is the persisted form of the conversation store.
type ConversationSnapshot struct {
	Chatrooms          []Chatroom                 `json:"chatrooms"`
	MessagesByChatroom map[ChatroomID][]Message `json:"messagesByChatroom"`
}
