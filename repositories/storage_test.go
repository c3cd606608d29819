package repositories

import (
	"chat-desk/contract"
	"chat-desk/errors"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestBadgerStorage_Set_And_Get(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	var storage contract.Storage = NewBadgerStorage(db, slog.Default())

	// Given a stored blob
	req.NoError(storage.Set("chat-desk:auth-storage", []byte(`{"user":null}`)))

	// When it is read back
	value, err := storage.Get("chat-desk:auth-storage")

	// Then the same bytes are returned
	req.NoError(err)
	req.Equal(`{"user":null}`, string(value))

	// And an overwrite replaces the previous value
	req.NoError(storage.Set("chat-desk:auth-storage", []byte(`{}`)))
	value, err = storage.Get("chat-desk:auth-storage")
	req.NoError(err)
	req.Equal(`{}`, string(value))
}

func TestBadgerStorage_Missing_Key(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	storage := NewBadgerStorage(db, slog.Default())

	_, err = storage.Get("chat-desk:unknown")
	req.ErrorIs(err, errors.ErrKeyNotFound)
}

func TestMemoryStorage_Returns_Copies(t *testing.T) {
	req := require.New(t)
	storage := NewMemoryStorage()

	blob := []byte("abc")
	req.NoError(storage.Set("key", blob))
	blob[0] = 'z'

	value, err := storage.Get("key")
	req.NoError(err)
	req.Equal("abc", string(value))

	value[1] = 'z'
	again, err := storage.Get("key")
	req.NoError(err)
	req.Equal("abc", string(again))

	_, err = storage.Get("missing")
	req.ErrorIs(err, errors.ErrKeyNotFound)
}
