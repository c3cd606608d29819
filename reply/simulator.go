// Package reply produces the assistant side of a conversation.
// Replies are picked from a fixed pool after a random delay; no model is involved.
package reply

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	DefaultMinDelay = 1500 * time.Millisecond
	DefaultMaxDelay = 3500 * time.Millisecond
)

var cannedReplies = []string{
	"That's an interesting question! Let me think about that for a moment.",
	"I understand what you're asking. Here's my perspective on this topic.",
	"Great point! I'd be happy to help you with that.",
	"That's a thoughtful question. Let me provide you with some insights.",
	"I see what you mean. Here's how I would approach this.",
	"Thanks for sharing that with me. I have some thoughts on this.",
	"That's a complex topic. Let me break it down for you.",
	"I appreciate you asking. Here's what I think about this situation.",
	"Interesting! I'd love to explore this topic with you further.",
	"That's a good observation. Let me share my thoughts on this.",
}

// Phrases returns a copy of the canned pool.
func Phrases() []string {
	return append([]string(nil), cannedReplies...)
}

// Waiter blocks for d or until ctx is done, whichever comes first.
type Waiter func(ctx context.Context, d time.Duration) error

type Simulator struct {
	mu       sync.Mutex
	log      *slog.Logger
	minDelay time.Duration
	maxDelay time.Duration
	rand     *rand.Rand
	wait     Waiter
}

type Option func(*Simulator)

func WithDelays(lower, upper time.Duration) Option {
	return func(s *Simulator) {
		if upper < lower {
			lower, upper = upper, lower
		}
		s.minDelay, s.maxDelay = lower, upper
	}
}

func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rand = r }
}

func WithWaiter(w Waiter) Option {
	return func(s *Simulator) { s.wait = w }
}

func NewSimulator(log *slog.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		log:      log,
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		rand:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		wait:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateReply waits a uniform random delay in [min, max] and returns a canned phrase.
// The user text does not influence the answer.
func (s *Simulator) GenerateReply(ctx context.Context, userText string) (string, error) {
	delay, phrase := s.draw()
	s.log.Debug("Simulating reply", "delay", delay, "input_length", len(userText))
	if err := s.wait(ctx, delay); err != nil {
		return "", err
	}
	return phrase, nil
}

// rand.Rand is not safe for concurrent use.
func (s *Simulator) draw() (time.Duration, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delay := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		delay += time.Duration(s.rand.Int64N(int64(span) + 1))
	}
	return delay, cannedReplies[s.rand.IntN(len(cannedReplies))]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
