package services

import (
	"chat-desk/domain"
	"chat-desk/domain/mimetypes"
	"chat-desk/errors"
	"chat-desk/moderation"
	"chat-desk/pagination"
	"chat-desk/search"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

const DefaultMaxImageBytes = 5 * 1024 * 1024

type IChatService interface {
	CreateChatroom(title string) (domain.ChatroomID, error)
	DeleteChatroom(id domain.ChatroomID) error
	SendMessage(id domain.ChatroomID, text string, image []byte) (domain.Message, error)
	Open(id domain.ChatroomID) (*pagination.Window, error)
	SearchMessages(ctx context.Context, id domain.ChatroomID, terms string, limit int) ([]search.Hit, error)
}

// Conversations is the conversation store as seen by the chat service.
type Conversations interface {
	CreateChatroom(title string) (domain.ChatroomID, error)
	DeleteChatroom(id domain.ChatroomID) error
	AppendMessage(id domain.ChatroomID, msg domain.NewMessage) (domain.Message, error)
	GetChatroom(id domain.ChatroomID) (domain.Chatroom, []domain.Message, error)
	ListChatrooms() []domain.Chatroom
	BeginTyping(id domain.ChatroomID) error
	EndTyping(id domain.ChatroomID, cause error)
}

type MessageFinder interface {
	Find(ctx context.Context, chatroom domain.ChatroomID, terms string, limit int) ([]search.Hit, error)
}

type ChatService struct {
	log           *slog.Logger
	conversations Conversations
	moderator     *moderation.Moderator
	replies       ReplyQueue
	finder        MessageFinder
	pageSize      int
	loadDelay     time.Duration
	maxImageBytes int
}

type ChatOption func(*ChatService)

func WithPaging(pageSize int, loadDelay time.Duration) ChatOption {
	return func(s *ChatService) {
		s.pageSize = pageSize
		s.loadDelay = loadDelay
	}
}

func WithMaxImageBytes(n int) ChatOption {
	return func(s *ChatService) {
		if n > 0 {
			s.maxImageBytes = n
		}
	}
}

func NewChatService(log *slog.Logger, conversations Conversations, moderator *moderation.Moderator,
	replies ReplyQueue, finder MessageFinder, opts ...ChatOption) *ChatService {
	s := &ChatService{
		log:           log,
		conversations: conversations,
		moderator:     moderator,
		replies:       replies,
		finder:        finder,
		pageSize:      pagination.DefaultPageSize,
		maxImageBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ChatService) CreateChatroom(title string) (domain.ChatroomID, error) {
	return s.conversations.CreateChatroom(title)
}

func (s *ChatService) DeleteChatroom(id domain.ChatroomID) error {
	return s.conversations.DeleteChatroom(id)
}

// SendMessage appends a user message and asks for an assistant reply.
// Only one reply may be outstanding per chatroom: a second send while the
// assistant is typing fails with ErrReplyPending and appends nothing.
// If the reply cannot be queued the user message is kept, typing is cleared
// and the queueing error is returned alongside the message.
func (s *ChatService) SendMessage(id domain.ChatroomID, text string, image []byte) (domain.Message, error) {
	content := strings.TrimSpace(text)
	if content == "" && len(image) == 0 {
		return domain.Message{}, fmt.Errorf("%w: message is empty", errors.ErrValidation)
	}
	if len(image) > 0 {
		if err := s.checkImage(image); err != nil {
			return domain.Message{}, err
		}
	}
	if s.moderator != nil && content != "" {
		var censored []string
		content, censored = s.moderator.Censor(content)
		if len(censored) > 0 {
			s.log.Info("Message censored", "chatroom", id, "words", len(censored))
		}
	}

	if err := s.conversations.BeginTyping(id); err != nil {
		return domain.Message{}, err
	}
	message, err := s.conversations.AppendMessage(id, domain.NewMessage{
		Sender:  domain.SenderUser,
		Content: content,
		Image:   image,
	})
	if err != nil {
		s.conversations.EndTyping(id, nil)
		return domain.Message{}, err
	}

	if err = s.replies.Submit(domain.ReplyJob{ChatroomID: id, UserText: content}); err != nil {
		s.conversations.EndTyping(id, err)
		return message, err
	}
	return message, nil
}

// Open builds a window over the chatroom log, already showing its last page.
func (s *ChatService) Open(id domain.ChatroomID) (*pagination.Window, error) {
	_, messages, err := s.conversations.GetChatroom(id)
	if err != nil {
		return nil, err
	}
	window := pagination.NewWindow(s.log, messages,
		pagination.WithPageSize(s.pageSize),
		pagination.WithLoadDelay(s.loadDelay))
	window.Open()
	return window, nil
}

// SearchMessages runs a full-text query over message contents.
// An empty chatroom id searches every chatroom. Hits are checked against the
// store, so a chatroom deleted while the index catches up never shows up.
func (s *ChatService) SearchMessages(ctx context.Context, id domain.ChatroomID, terms string, limit int) ([]search.Hit, error) {
	if id != "" {
		if _, _, err := s.conversations.GetChatroom(id); err != nil {
			return nil, err
		}
	}
	hits, err := s.finder.Find(ctx, id, terms, limit)
	if err != nil {
		return nil, err
	}
	live := lo.SliceToMap(s.conversations.ListChatrooms(), func(r domain.Chatroom) (domain.ChatroomID, struct{}) {
		return r.ID, struct{}{}
	})
	return lo.Filter(hits, func(h search.Hit, _ int) bool {
		_, ok := live[h.ChatroomID]
		return ok
	}), nil
}

func (s *ChatService) checkImage(image []byte) error {
	if len(image) > s.maxImageBytes {
		return fmt.Errorf("%w: image is %d bytes, limit is %d", errors.ErrValidation, len(image), s.maxImageBytes)
	}
	detected := mimetype.Detect(image).String()
	if _, ok := mimetypes.IsImage(detected); !ok {
		return fmt.Errorf("%w: %s is not an image", errors.ErrValidation, detected)
	}
	return nil
}
