// Package conversation owns chatrooms and their message logs.
// All mutations go through Store, which keeps summaries, logs and typing flags
// consistent and writes every change through its persister.
package conversation

import (
	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/domain/event"
	"chat-desk/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type createChatroomRequest struct {
	Title string `validate:"required,max=120"`
}

// Persister receives a full snapshot after every mutation.
type Persister interface {
	SaveConversations(snapshot domain.ConversationSnapshot) error
}

type Store struct {
	mu        sync.Mutex
	log       *slog.Logger
	persister Persister
	sinks     []contract.EventSink
	now       func() time.Time

	chatrooms []domain.Chatroom // newest first
	messages  map[domain.ChatroomID][]domain.Message
	typing    map[domain.ChatroomID]struct{}
	lastStamp time.Time
	dirty     bool

	// events committed but not yet handed to the sinks, in commit order
	outbox   []event.DomainEvent
	draining bool
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithSinks(sinks ...contract.EventSink) Option {
	return func(s *Store) { s.sinks = append(s.sinks, sinks...) }
}

func NewStore(log *slog.Logger, persister Persister, opts ...Option) *Store {
	s := &Store{
		log:       log,
		persister: persister,
		now:       time.Now,
		chatrooms: []domain.Chatroom{},
		messages:  make(map[domain.ChatroomID][]domain.Message),
		typing:    make(map[domain.ChatroomID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddSinks registers sinks after construction, e.g. read-side views that need the store first.
func (s *Store) AddSinks(sinks ...contract.EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sinks...)
}

// Restore replaces the whole state with a snapshot.
// Logs without a chatroom are dropped and summaries are recomputed from the logs.
func (s *Store) Restore(snapshot domain.ConversationSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chatrooms = make([]domain.Chatroom, 0, len(snapshot.Chatrooms))
	s.messages = make(map[domain.ChatroomID][]domain.Message, len(snapshot.Chatrooms))
	s.typing = make(map[domain.ChatroomID]struct{})

	for _, room := range snapshot.Chatrooms {
		if _, seen := s.messages[room.ID]; seen {
			s.log.Warn("Duplicate chatroom in snapshot ignored", "chatroom", room.ID)
			continue
		}
		log := lo.Filter(snapshot.MessagesByChatroom[room.ID], func(m domain.Message, _ int) bool {
			return m.ChatroomID == room.ID
		})
		s.messages[room.ID] = log
		s.chatrooms = append(s.chatrooms, summarize(room, log))
		if n := len(log); n > 0 && log[n-1].CreatedAt.After(s.lastStamp) {
			s.lastStamp = log[n-1].CreatedAt
		}
	}

	for id := range snapshot.MessagesByChatroom {
		if _, ok := s.messages[id]; !ok {
			s.log.Warn("Orphan message log dropped", "chatroom", id)
		}
	}
	s.log.Debug("Conversations restored", "chatrooms", len(s.chatrooms))
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() domain.ConversationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) CreateChatroom(title string) (domain.ChatroomID, error) {
	title = strings.TrimSpace(title)
	if err := validate.Struct(createChatroomRequest{Title: title}); err != nil {
		return "", fmt.Errorf("%w: chatroom title: %v", errors.ErrValidation, err)
	}

	s.mu.Lock()
	room := domain.Chatroom{
		ID:        domain.NewChatroomID(),
		Title:     title,
		CreatedAt: s.stampLocked(),
	}
	s.chatrooms = append([]domain.Chatroom{room}, s.chatrooms...)
	s.messages[room.ID] = []domain.Message{}
	s.persistLocked()
	s.outbox = append(s.outbox, event.ChatroomCreated{Chatroom: room})
	s.mu.Unlock()

	s.log.Info("Chatroom created", "chatroom", room.ID, "title", room.Title)
	s.flush()
	return room.ID, nil
}

// DeleteChatroom removes the chatroom and its log together.
// Unknown ids, including already deleted ones, return ErrNotFound.
func (s *Store) DeleteChatroom(id domain.ChatroomID) error {
	s.mu.Lock()
	_, index, ok := lo.FindIndexOf(s.chatrooms, func(r domain.Chatroom) bool { return r.ID == id })
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	count := len(s.messages[id])
	s.chatrooms = append(s.chatrooms[:index:index], s.chatrooms[index+1:]...)
	delete(s.messages, id)
	delete(s.typing, id)
	s.persistLocked()
	s.outbox = append(s.outbox, event.ChatroomDeleted{ID: id, MessageCount: count, At: s.now()})
	s.mu.Unlock()

	s.log.Info("Chatroom deleted", "chatroom", id, "messages", count)
	s.flush()
	return nil
}

// AppendMessage assigns ID and timestamp under the store lock, so concurrent
// appends keep call order, and updates the summary fields in the same step.
func (s *Store) AppendMessage(id domain.ChatroomID, msg domain.NewMessage) (domain.Message, error) {
	s.mu.Lock()
	index := s.indexLocked(id)
	if index < 0 {
		s.mu.Unlock()
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}

	message := domain.Message{
		ID:         domain.NewMessageID(),
		ChatroomID: id,
		Sender:     msg.Sender,
		Content:    msg.Content,
		Image:      append([]byte(nil), msg.Image...),
		CreatedAt:  s.stampLocked(),
	}
	if len(msg.Image) == 0 {
		message.Image = nil
	}
	s.messages[id] = append(s.messages[id], message)
	s.chatrooms[index] = summarize(s.chatrooms[index], s.messages[id])
	s.persistLocked()
	s.outbox = append(s.outbox, event.MessageAppended{Message: message})
	s.mu.Unlock()

	s.log.Debug("Message appended", "chatroom", id, "sender", message.Sender, "message", message.ID)
	s.flush()
	return message, nil
}

// GetChatroom returns the chatroom with a copy of its full log.
func (s *Store) GetChatroom(id domain.ChatroomID) (domain.Chatroom, []domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.indexLocked(id)
	if index < 0 {
		return domain.Chatroom{}, nil, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	return copyChatroom(s.chatrooms[index]), copyMessages(s.messages[id]), nil
}

// ListChatrooms returns the chatrooms newest first.
func (s *Store) ListChatrooms() []domain.Chatroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.chatrooms, func(r domain.Chatroom, _ int) domain.Chatroom { return copyChatroom(r) })
}

// BeginTyping raises the typing flag. Only one reply may be pending per chatroom.
func (s *Store) BeginTyping(id domain.ChatroomID) error {
	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	if _, pending := s.typing[id]; pending {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", errors.ErrReplyPending, id)
	}
	s.typing[id] = struct{}{}
	s.outbox = append(s.outbox, event.TypingChanged{ID: id, Typing: true})
	s.mu.Unlock()

	s.flush()
	return nil
}

// EndTyping clears the typing flag whatever the outcome of the reply.
// A non-nil cause is published as a ReplyFailed event.
func (s *Store) EndTyping(id domain.ChatroomID, cause error) {
	s.mu.Lock()
	_, pending := s.typing[id]
	delete(s.typing, id)
	if cause != nil {
		s.outbox = append(s.outbox, event.ReplyFailed{ID: id, Cause: cause, At: s.now()})
	}
	if pending {
		s.outbox = append(s.outbox, event.TypingChanged{ID: id, Typing: false})
	}
	s.mu.Unlock()

	if cause != nil {
		s.log.Warn("Reply failed", "chatroom", id, "error", cause)
	}
	s.flush()
}

func (s *Store) IsTyping(id domain.ChatroomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.typing[id]
	return ok
}

// Dirty reports whether the last write-through failed and is still waiting for a retry.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) indexLocked(id domain.ChatroomID) int {
	_, index, ok := lo.FindIndexOf(s.chatrooms, func(r domain.Chatroom) bool { return r.ID == id })
	if !ok {
		return -1
	}
	return index
}

// stampLocked never goes backwards, so log order and timestamps agree.
func (s *Store) stampLocked() time.Time {
	now := s.now()
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

// persistLocked writes the full snapshot, so a failed write is retried by the next mutation.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveConversations(s.snapshotLocked()); err != nil {
		s.dirty = true
		s.log.Warn("Conversations kept in memory only", "error", err)
		return
	}
	if s.dirty {
		s.log.Info("Conversations persisted after previous failure")
	}
	s.dirty = false
}

func (s *Store) snapshotLocked() domain.ConversationSnapshot {
	messages := make(map[domain.ChatroomID][]domain.Message, len(s.messages))
	for id, log := range s.messages {
		messages[id] = copyMessages(log)
	}
	return domain.ConversationSnapshot{
		Chatrooms:          lo.Map(s.chatrooms, func(r domain.Chatroom, _ int) domain.Chatroom { return copyChatroom(r) }),
		MessagesByChatroom: messages,
	}
}

// flush hands queued events to the sinks outside the lock, in commit order.
// One caller drains at a time; events committed meanwhile by other callers,
// or by a sink calling back into the store, are delivered by that same loop.
func (s *Store) flush() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.outbox) > 0 {
		batch := s.outbox
		s.outbox = nil
		sinks := append([]contract.EventSink(nil), s.sinks...)
		s.mu.Unlock()

		for _, e := range batch {
			for _, sink := range sinks {
				s.deliver(sink, e)
			}
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) deliver(sink contract.EventSink, e event.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Sink panicked", "chatroom", e.ChatroomID(), "panic", r)
		}
	}()
	if err := sink.Consume(context.Background(), e); err != nil {
		s.log.Warn("Sink failed to consume event", "chatroom", e.ChatroomID(), "error", err)
	}
}

func summarize(room domain.Chatroom, log []domain.Message) domain.Chatroom {
	room.MessageCount = len(log)
	room.LastMessage = ""
	room.LastMessageTime = nil
	if n := len(log); n > 0 {
		room.LastMessage = log[n-1].Content
		room.LastMessageTime = lo.ToPtr(log[n-1].CreatedAt)
	}
	return room
}

func copyChatroom(room domain.Chatroom) domain.Chatroom {
	if room.LastMessageTime != nil {
		room.LastMessageTime = lo.ToPtr(*room.LastMessageTime)
	}
	return room
}

func copyMessages(log []domain.Message) []domain.Message {
	out := make([]domain.Message, len(log))
	copy(out, log)
	return out
}
