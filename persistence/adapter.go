// Package persistence snapshots the session and conversation stores into a
// key/value storage and rehydrates them on startup.
package persistence

import (
	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
)

// Keys are versioned by name only: a schema change needs a new key.
const (
	SessionKey      = "chat-desk:auth-storage"
	ConversationKey = "chat-desk:chat-storage"
)

type Adapter struct {
	storage contract.Storage
	log     *slog.Logger
}

func NewAdapter(storage contract.Storage, log *slog.Logger) *Adapter {
	return &Adapter{storage: storage, log: log}
}

func (a *Adapter) SaveSession(snapshot domain.SessionSnapshot) error {
	return a.save(SessionKey, snapshot)
}

func (a *Adapter) SaveConversations(snapshot domain.ConversationSnapshot) error {
	return a.save(ConversationKey, snapshot)
}

// LoadSession never fails: a missing or unreadable blob means nobody is logged in.
func (a *Adapter) LoadSession() domain.SessionSnapshot {
	var snapshot domain.SessionSnapshot
	if !a.load(SessionKey, &snapshot) {
		return domain.SessionSnapshot{}
	}
	return snapshot
}

// LoadConversations never fails: a missing or unreadable blob means an empty store.
func (a *Adapter) LoadConversations() domain.ConversationSnapshot {
	var snapshot domain.ConversationSnapshot
	if !a.load(ConversationKey, &snapshot) {
		return EmptyConversations()
	}
	if snapshot.MessagesByChatroom == nil {
		snapshot.MessagesByChatroom = make(map[domain.ChatroomID][]domain.Message)
	}
	return snapshot
}

func EmptyConversations() domain.ConversationSnapshot {
	return domain.ConversationSnapshot{
		Chatrooms:          []domain.Chatroom{},
		MessagesByChatroom: make(map[domain.ChatroomID][]domain.Message),
	}
}

func (a *Adapter) save(key string, snapshot any) error {
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", errors.ErrPersistence, key, err)
	}
	if err = a.storage.Set(key, bytes); err != nil {
		return fmt.Errorf("%w: write %s: %v", errors.ErrPersistence, key, err)
	}
	return nil
}

func (a *Adapter) load(key string, target any) bool {
	bytes, err := a.storage.Get(key)
	switch {
	case stderrors.Is(err, errors.ErrKeyNotFound):
		a.log.Debug("No snapshot found, starting empty", "key", key)
		return false
	case err != nil:
		a.log.Warn("Snapshot read failed, starting empty", "key", key, "error", err)
		return false
	}
	if err = json.Unmarshal(bytes, target); err != nil {
		a.log.Warn("Corrupt snapshot ignored", "key", key, "error", err)
		return false
	}
	return true
}
