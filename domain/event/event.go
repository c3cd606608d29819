package event

import (
	"chat-desk/domain"
	"time"
)

// DomainEvent is published by the conversation store after each mutation.
type DomainEvent interface {
	ChatroomID() domain.ChatroomID
}

type ChatroomCreated struct {
	Chatroom domain.Chatroom
}

func (e ChatroomCreated) ChatroomID() domain.ChatroomID {
	return e.Chatroom.ID
}

type ChatroomDeleted struct {
	ID           domain.ChatroomID
	MessageCount int
	At           time.Time
}

func (e ChatroomDeleted) ChatroomID() domain.ChatroomID {
	return e.ID
}

type MessageAppended struct {
	Message domain.Message
}

func (e MessageAppended) ChatroomID() domain.ChatroomID {
	return e.Message.ChatroomID
}

// TypingChanged reports the assistant typing flag of a chatroom.
type TypingChanged struct {
	ID     domain.ChatroomID
	Typing bool
}

func (e TypingChanged) ChatroomID() domain.ChatroomID {
	return e.ID
}

// ReplyFailed surfaces a reply that settled without an assistant message.
type ReplyFailed struct {
	ID    domain.ChatroomID
	Cause error
	At    time.Time
}

func (e ReplyFailed) ChatroomID() domain.ChatroomID {
	return e.ID
}
