// Package pagination reveals a chatroom log page by page, newest page first.
// A Window never recomputes its content from scratch: it only grows by
// prepending older slices (LoadMore) or appending new tail messages (Append).
package pagination

import (
	"chat-desk/domain"
	"log/slog"
	"sync"
	"time"
)

const DefaultPageSize = 20

type State int

const (
	Initial State = iota
	WindowLoaded
	LoadingMore
	Exhausted
)

func (s State) String() string {
	switch s {
	case Initial:
		return "INITIAL"
	case WindowLoaded:
		return "WINDOW_LOADED"
	case LoadingMore:
		return "LOADING_MORE"
	case Exhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

type Window struct {
	mu       sync.Mutex
	log      *slog.Logger
	messages []domain.Message // full log, chronological
	pageSize int
	revealed int // counted from the tail
	state    State
	delay    time.Duration
	sleep    func(time.Duration)

	threshold int
	near      bool
}

type Option func(*Window)

func WithPageSize(size int) Option {
	return func(w *Window) {
		if size > 0 {
			w.pageSize = size
		}
	}
}

// WithLoadDelay holds every LoadMore in LoadingMore for d before revealing the slice.
func WithLoadDelay(d time.Duration) Option {
	return func(w *Window) { w.delay = d }
}

// WithSleeper replaces time.Sleep for the load delay.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(w *Window) { w.sleep = sleep }
}

// WithScrollThreshold sets the distance from the top under which OnScroll loads more.
func WithScrollThreshold(px int) Option {
	return func(w *Window) { w.threshold = px }
}

// NewWindow takes ownership of a copy of the chatroom log.
func NewWindow(log *slog.Logger, messages []domain.Message, opts ...Option) *Window {
	w := &Window{
		log:      log,
		messages: append([]domain.Message(nil), messages...),
		pageSize: DefaultPageSize,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open reveals the most recent page. Calling it again has no effect.
func (w *Window) Open() []domain.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Initial {
		w.revealed = min(w.pageSize, len(w.messages))
		w.settleLocked()
	}
	return w.visibleLocked()
}

// LoadMore reveals the page preceding the window and reports how many
// messages were added. It does nothing while Initial, LoadingMore or Exhausted.
func (w *Window) LoadMore() (int, bool) {
	w.mu.Lock()
	if w.state != WindowLoaded || w.revealed >= len(w.messages) {
		w.mu.Unlock()
		return 0, false
	}
	w.state = LoadingMore
	w.mu.Unlock()

	if w.delay > 0 {
		w.sleep(w.delay)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	hidden := len(w.messages) - w.revealed
	added := min(w.pageSize, hidden)
	w.revealed += added
	w.settleLocked()
	w.log.Debug("Older messages revealed", "added", added, "revealed", w.revealed, "state", w.state)
	return added, true
}

// OnScroll is the edge-triggered entry point: it loads more only when the
// offset crosses into the threshold, not on every event inside it.
func (w *Window) OnScroll(offset int) (int, bool) {
	w.mu.Lock()
	near := offset <= w.threshold
	crossed := near && !w.near
	w.near = near
	w.mu.Unlock()

	if !crossed {
		return 0, false
	}
	return w.LoadMore()
}

// Append reveals messages that arrived after the window was opened.
// Message ids are time-ordered, so anything not newer than the tail is already
// known and skipped; replaying a log into the window is harmless.
func (w *Window) Append(messages ...domain.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, message := range messages {
		if n := len(w.messages); n > 0 && message.ID <= w.messages[n-1].ID {
			continue
		}
		w.messages = append(w.messages, message)
		if w.state != Initial {
			w.revealed++
		}
	}
}

func (w *Window) Visible() []domain.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visibleLocked()
}

func (w *Window) HasMore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state != Exhausted && w.revealed < len(w.messages)
}

// Hidden returns the number of older messages not revealed yet.
func (w *Window) Hidden() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages) - w.revealed
}

func (w *Window) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Cursor returns the oldest revealed message, the position of the next fetch.
func (w *Window) Cursor() (domain.MessageID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.revealed == 0 {
		return "", false
	}
	return w.messages[len(w.messages)-w.revealed].ID, true
}

func (w *Window) settleLocked() {
	if w.revealed >= len(w.messages) {
		w.state = Exhausted
		return
	}
	w.state = WindowLoaded
}

func (w *Window) visibleLocked() []domain.Message {
	start := len(w.messages) - w.revealed
	return append([]domain.Message(nil), w.messages[start:]...)
}
