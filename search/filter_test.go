package search

import (
	"chat-desk/domain"
	"chat-desk/domain/event"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	mu        sync.Mutex
	chatrooms []domain.Chatroom
}

func (s *staticSource) ListChatrooms() []domain.Chatroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Chatroom(nil), s.chatrooms...)
}

func (s *staticSource) prepend(room domain.Chatroom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatrooms = append([]domain.Chatroom{room}, s.chatrooms...)
}

func titles(rooms []domain.Chatroom) []string {
	return lo.Map(rooms, func(r domain.Chatroom, _ int) string { return r.Title })
}

func sampleSource() *staticSource {
	return &staticSource{chatrooms: []domain.Chatroom{
		{ID: "1", Title: "Project X"},
		{ID: "2", Title: "Personal"},
		{ID: "3", Title: "Weekend Plans"},
	}}
}

func TestMatch(t *testing.T) {
	rooms := sampleSource().ListChatrooms()

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"case insensitive substring", "proj", []string{"Project X"}},
		{"upper case query", "PLANS", []string{"Weekend Plans"}},
		{"substring in the middle", "rso", []string{"Personal"}},
		{"shared prefix keeps store order", "p", []string{"Project X", "Personal", "Weekend Plans"}},
		{"empty query", "", []string{"Project X", "Personal", "Weekend Plans"}},
		{"blank query", "   ", []string{"Project X", "Personal", "Weekend Plans"}},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, titles(Match(rooms, tt.query)))
		})
	}
}

func TestFilter_Debounces_Keystrokes(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	var calls atomic.Int32
	var lastQuery atomic.Value
	filter := NewFilter(log, sampleSource(), 50*time.Millisecond, OnChange(func(query string, _ []domain.Chatroom) {
		calls.Add(1)
		lastQuery.Store(query)
	}))

	// When three keystrokes arrive within 100ms
	filter.SetQuery("p")
	time.Sleep(10 * time.Millisecond)
	filter.SetQuery("pr")
	time.Sleep(10 * time.Millisecond)
	filter.SetQuery("proj")

	// Then nothing is committed before the quiet period
	req.Equal("", filter.Query())

	// And exactly one recomputation happens, with the last value
	req.Eventually(func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	req.Equal(int32(1), calls.Load())
	req.Equal("proj", lastQuery.Load())
	req.Equal("proj", filter.Query())
	req.Equal([]string{"Project X"}, titles(filter.Results()))
}

func TestFilter_Clearing_Restores_Order(t *testing.T) {
	req := require.New(t)
	filter := NewFilter(slog.Default(), sampleSource(), 10*time.Millisecond)

	filter.SetQuery("proj")
	req.Eventually(func() bool { return filter.Query() == "proj" }, time.Second, 5*time.Millisecond)
	req.Equal([]string{"Project X"}, titles(filter.Results()))

	filter.SetQuery("")
	req.Eventually(func() bool { return len(filter.Results()) == 3 }, time.Second, 5*time.Millisecond)
	req.Equal([]string{"Project X", "Personal", "Weekend Plans"}, titles(filter.Results()))
}

func TestFilter_Refreshes_On_Store_Events(t *testing.T) {
	req := require.New(t)
	source := sampleSource()
	filter := NewFilter(slog.Default(), source, 10*time.Millisecond)
	filter.SetQuery("pro")
	req.Eventually(func() bool { return filter.Query() == "pro" }, time.Second, 5*time.Millisecond)

	// Given a new chatroom matching the committed query
	room := domain.Chatroom{ID: "4", Title: "Prototype"}
	source.prepend(room)

	// When the store announces it
	req.NoError(filter.Consume(context.Background(), event.ChatroomCreated{Chatroom: room}))

	// Then the view includes it first, with the same query
	req.Equal([]string{"Prototype", "Project X"}, titles(filter.Results()))
	req.Equal("pro", filter.Query())
}

// stallingSource blocks the first listing after arm until released.
type stallingSource struct {
	*staticSource
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

func (s *stallingSource) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = make(chan struct{})
	s.release = make(chan struct{})
}

func (s *stallingSource) ListChatrooms() []domain.Chatroom {
	s.mu.Lock()
	entered, release := s.entered, s.release
	s.entered = nil
	s.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}
	return s.staticSource.ListChatrooms()
}

func TestFilter_Store_Event_Does_Not_Undo_A_Newer_Query(t *testing.T) {
	req := require.New(t)
	source := &stallingSource{staticSource: sampleSource()}
	filter := NewFilter(slog.Default(), source, 10*time.Millisecond)

	// Given a store refresh stuck while listing chatrooms
	source.arm()
	entered, release := source.entered, source.release
	refreshed := make(chan struct{})
	go func() {
		defer close(refreshed)
		_ = filter.Consume(context.Background(), event.ChatroomDeleted{ID: "9"})
	}()
	<-entered

	// When the user's query commits in the meantime
	filter.SetQuery("proj")
	req.Eventually(func() bool { return filter.Query() == "proj" }, time.Second, 5*time.Millisecond)
	close(release)
	<-refreshed

	// Then the refresh keeps the user's query
	req.Equal("proj", filter.Query())
	req.Equal([]string{"Project X"}, titles(filter.Results()))
}
