package search

import (
	"chat-desk/domain"
	"chat-desk/domain/event"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/samber/lo"
)

const DefaultQuietPeriod = 300 * time.Millisecond

// ChatroomSource is the read path of the conversation store.
type ChatroomSource interface {
	ListChatrooms() []domain.Chatroom
}

// Filter derives the chatroom listing for a search box.
// SetQuery is meant to be called on every keystroke; the query is only
// committed once the input has been quiet for the configured period.
type Filter struct {
	mu        sync.RWMutex
	log       *slog.Logger
	source    ChatroomSource
	debounced func(f func())
	onChange  func(query string, results []domain.Chatroom)

	pending string
	query   string
	results []domain.Chatroom
	// bumped on every commit, so a refresh computed on stale input is redone
	generation uint64
}

type FilterOption func(*Filter)

// OnChange is invoked after every recomputation, outside the filter lock.
func OnChange(fn func(query string, results []domain.Chatroom)) FilterOption {
	return func(f *Filter) { f.onChange = fn }
}

func NewFilter(log *slog.Logger, source ChatroomSource, quiet time.Duration, opts ...FilterOption) *Filter {
	f := &Filter{
		log:       log,
		source:    source,
		debounced: debounce.New(quiet),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.results = Match(source.ListChatrooms(), "")
	return f
}

// SetQuery schedules a recomputation and discards the one still pending, if any.
func (f *Filter) SetQuery(raw string) {
	f.mu.Lock()
	f.pending = raw
	f.mu.Unlock()

	f.debounced(func() {
		f.mu.RLock()
		query := f.pending
		f.mu.RUnlock()
		f.recompute(func() string { return query })
	})
}

// Query returns the committed query, not the one still being typed.
func (f *Filter) Query() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.query
}

func (f *Filter) Results() []domain.Chatroom {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.Chatroom(nil), f.results...)
}

// Consume refreshes the view when chatrooms are created or deleted,
// keeping the committed query and leaving any pending keystroke alone.
func (f *Filter) Consume(_ context.Context, e event.DomainEvent) error {
	switch e.(type) {
	case event.ChatroomCreated, event.ChatroomDeleted:
		f.recompute(func() string { return f.query })
	}
	return nil
}

// recompute lists the chatrooms outside the lock and commits the view only if
// nothing else committed meanwhile; otherwise it starts over with fresh input.
// pick is called under the lock.
func (f *Filter) recompute(pick func() string) {
	var (
		query   string
		results []domain.Chatroom
	)
	for {
		f.mu.RLock()
		query = pick()
		generation := f.generation
		f.mu.RUnlock()

		results = Match(f.source.ListChatrooms(), query)

		f.mu.Lock()
		if generation == f.generation {
			break
		}
		f.mu.Unlock()
	}
	f.generation++
	f.query = query
	f.results = results
	onChange := f.onChange
	f.mu.Unlock()

	f.log.Debug("Chatroom filter recomputed", "query", query, "results", len(results))
	if onChange != nil {
		onChange(query, append([]domain.Chatroom(nil), results...))
	}
}

// Match keeps the chatrooms whose title contains the query, ignoring case.
// A blank query keeps everything in store order.
func Match(chatrooms []domain.Chatroom, query string) []domain.Chatroom {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return append([]domain.Chatroom{}, chatrooms...)
	}
	return lo.Filter(chatrooms, func(room domain.Chatroom, _ int) bool {
		return strings.Contains(strings.ToLower(room.Title), needle)
	})
}
