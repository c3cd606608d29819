package repositories

import (
	"chat-desk/errors"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStorage keeps snapshot blobs in BadgerDB, one key per blob.
type BadgerStorage struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerStorage(db *badger.DB, log *slog.Logger) *BadgerStorage {
	return &BadgerStorage{db: db, log: log}
}

// Get copies the value out of the transaction so it stays valid after View returns.
func (b *BadgerStorage) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrKeyNotFound
	}
	return value, err
}

func (b *BadgerStorage) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		b.log.Error("Badger write failed", "key", key, "error", err)
	}
	return err
}

// MemoryStorage is used when no badger path is configured, and in tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, errors.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}
