//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=../mocks/mock_ports.go -package=mocks
package services

import (
	"chat-desk/domain"
)

// SessionStore is the write side of the session used by the login flow.
type SessionStore interface {
	Login(user domain.User)
	Logout()
}

// ReplyQueue hands user messages over to the reply worker without blocking.
type ReplyQueue interface {
	Submit(job domain.ReplyJob) error
}
