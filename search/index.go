// Package search holds the read-side lookups over the conversation store:
// the debounced chatroom title filter and the full-text message index.
package search

import (
	"chat-desk/domain"
	"chat-desk/domain/event"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	blugeindex "github.com/blugelabs/bluge/index"
	blugesearch "github.com/blugelabs/bluge/search"
)

const (
	fieldChatroom = "chatroom"
	fieldSender   = "sender"
	fieldContent  = "content"
	fieldAt       = "at"
)

// Hit is one message matching a full-text query.
type Hit struct {
	MessageID  domain.MessageID
	ChatroomID domain.ChatroomID
	Sender     domain.Sender
	Content    string
	At         time.Time
	Score      float64
}

// MessageIndex mirrors message contents into a bluge index.
// It is fed by store events and never writes back to the store.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

func (i *MessageIndex) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		return i.Index(evt.Message)
	case event.ChatroomDeleted:
		return i.DeleteChatroom(ctx, evt.ID)
	default:
		return nil
	}
}

// Index adds or replaces one message. Image-only messages are skipped.
func (i *MessageIndex) Index(message domain.Message) error {
	doc, ok := document(message)
	if !ok {
		return nil
	}
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index message %s: %w", message.ID, err)
	}
	return nil
}

// DeleteChatroom removes every indexed message of a chatroom in one batch.
func (i *MessageIndex) DeleteChatroom(ctx context.Context, id domain.ChatroomID) error {
	ids, err := i.matchingIDs(ctx, bluge.NewTermQuery(string(id)).SetField(fieldChatroom))
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err = i.writer.Batch(deletions(ids)); err != nil {
		return fmt.Errorf("unindex chatroom %s: %w", id, err)
	}
	i.log.Debug("Chatroom removed from index", "chatroom", id, "messages", len(ids))
	return nil
}

// Rebuild empties the index and fills it again from the given logs.
// A file-backed index may hold chatrooms that no longer exist; after Rebuild it
// holds exactly the messages passed in.
func (i *MessageIndex) Rebuild(ctx context.Context, logs map[domain.ChatroomID][]domain.Message) (int, error) {
	stale, err := i.matchingIDs(ctx, bluge.NewMatchAllQuery())
	if err != nil {
		return 0, err
	}
	if len(stale) > 0 {
		if err = i.writer.Batch(deletions(stale)); err != nil {
			return 0, fmt.Errorf("clear index: %w", err)
		}
	}

	batch := bluge.NewBatch()
	count := 0
	for _, messages := range logs {
		for _, message := range messages {
			if doc, ok := document(message); ok {
				batch.Update(doc.ID(), doc)
				count++
			}
		}
	}
	if count > 0 {
		if err = i.writer.Batch(batch); err != nil {
			return 0, fmt.Errorf("refill index: %w", err)
		}
	}
	i.log.Debug("Message index rebuilt", "dropped", len(stale), "indexed", count)
	return count, nil
}

func (i *MessageIndex) matchingIDs(ctx context.Context, query bluge.Query) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	iterator, err := reader.Search(ctx, bluge.NewAllMatches(query))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := iterator.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		match, err = iterator.Next()
	}
	return ids, err
}

func deletions(ids []string) *blugeindex.Batch {
	batch := bluge.NewBatch()
	for _, id := range ids {
		batch.Delete(bluge.Identifier(id))
	}
	return batch
}

func document(message domain.Message) (*bluge.Document, bool) {
	if strings.TrimSpace(message.Content) == "" {
		return nil, false
	}
	return bluge.NewDocument(string(message.ID)).
		AddField(bluge.NewKeywordField(fieldChatroom, string(message.ChatroomID)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldSender, string(message.Sender)).StoreValue()).
		AddField(bluge.NewTextField(fieldContent, message.Content).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldAt, message.CreatedAt).StoreValue().Sortable()), true
}

// Find runs a match query over message contents, best score first.
// An empty chatroom id searches all chatrooms.
func (i *MessageIndex) Find(ctx context.Context, chatroom domain.ChatroomID, terms string, limit int) ([]Hit, error) {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField(fieldContent))
	if chatroom != "" {
		query.AddMust(bluge.NewTermQuery(string(chatroom)).SetField(fieldChatroom))
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	request := bluge.NewTopNSearch(limit, query).SortBy([]string{"-_score", "-" + fieldAt})
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	hits := []Hit{}
	match, err := iterator.Next()
	for err == nil && match != nil {
		hit, visitErr := toHit(match)
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	return hits, err
}

func toHit(match *blugesearch.DocumentMatch) (Hit, error) {
	hit := Hit{Score: match.Score}
	var decodeErr error
	err := match.VisitStoredFields(func(field string, value []byte) bool {
		switch field {
		case "_id":
			hit.MessageID = domain.MessageID(value)
		case fieldChatroom:
			hit.ChatroomID = domain.ChatroomID(value)
		case fieldSender:
			hit.Sender = domain.Sender(value)
		case fieldContent:
			hit.Content = string(value)
		case fieldAt:
			hit.At, decodeErr = bluge.DecodeDateTime(value)
		}
		return decodeErr == nil
	})
	if err != nil {
		return Hit{}, err
	}
	return hit, decodeErr
}
