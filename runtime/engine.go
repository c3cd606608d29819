// Package runtime assembles the stores, read-side views and background workers
// into one engine. It holds no business rule of its own.
package runtime

import (
	"chat-desk/contract"
	"chat-desk/conversation"
	"chat-desk/countries"
	"chat-desk/domain"
	"chat-desk/internal"
	"chat-desk/moderation"
	"chat-desk/persistence"
	"chat-desk/reply"
	"chat-desk/repositories"
	"chat-desk/runtime/workers"
	"chat-desk/search"
	"chat-desk/services"
	"chat-desk/session"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

type Engine struct {
	log *slog.Logger

	Session       *session.Store
	Conversations *conversation.Store
	Filter        *search.Filter
	Index         *search.MessageIndex
	Auth          *services.AuthService
	Chat          *services.ChatService
	Countries     *countries.Client

	supervisor contract.ISupervisor
	started    atomic.Bool
	done       chan struct{}
	closers    []func() error
	closeOnce  sync.Once
}

type EngineOption func(*engineOptions)

type engineOptions struct {
	generator contract.ReplyGenerator
	filterFn  func(query string, results []domain.Chatroom)
}

// WithReplyGenerator replaces the canned reply simulator.
func WithReplyGenerator(generator contract.ReplyGenerator) EngineOption {
	return func(o *engineOptions) { o.generator = generator }
}

// WithFilterListener observes every recomputation of the chatroom filter.
func WithFilterListener(fn func(query string, results []domain.Chatroom)) EngineOption {
	return func(o *engineOptions) { o.filterFn = fn }
}

// NewEngine opens storage, rehydrates both stores and wires the sinks.
// Nothing runs in the background until Start.
func NewEngine(config internal.Config, log *slog.Logger, opts ...EngineOption) (*Engine, error) {
	options := engineOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	e := &Engine{log: log, done: make(chan struct{})}

	storage, err := e.openStorage(config)
	if err != nil {
		return nil, err
	}
	writer, err := e.openIndex(config)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	maskRune, err := internal.CharacterRune(config.CensorCharacter)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	var blocklist moderation.Blocklist
	if config.CensorBuiltinLists {
		if blocklist, err = moderation.DefaultBlocklist(); err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("blocklist loading failed: %w", err)
		}
	}
	blocklist = blocklist.With(config.Blocklist()...)
	log.Info(fmt.Sprintf("%d blocklisted words loaded [%s]",
		len(blocklist.Words), strings.Join(blocklist.Languages, ",")))
	moderator, err := moderation.NewModerator(blocklist.Words, maskRune, log)
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("moderation setup failed: %w", err)
	}

	adapter := persistence.NewAdapter(storage, log)

	e.Session = session.NewStore(log, adapter)
	e.Session.Restore(adapter.LoadSession())

	e.Index = search.NewMessageIndex(writer, log)
	e.Conversations = conversation.NewStore(log, adapter, conversation.WithSinks(e.Index))
	snapshot := adapter.LoadConversations()
	e.Conversations.Restore(snapshot)
	if err = e.reindex(); err != nil {
		_ = e.Close()
		return nil, err
	}

	var filterOpts []search.FilterOption
	if options.filterFn != nil {
		filterOpts = append(filterOpts, search.OnChange(options.filterFn))
	}
	e.Filter = search.NewFilter(log, e.Conversations, config.SearchDebounce, filterOpts...)
	e.Conversations.AddSinks(e.Filter)

	generator := options.generator
	if generator == nil {
		generator = reply.NewSimulator(log, reply.WithDelays(config.ReplyMinDelay, config.ReplyMaxDelay))
	}
	replyWorker := workers.NewReplyWorker(log, make(chan domain.ReplyJob, config.ReplyBufferSize), generator, e.Conversations)
	e.supervisor = workers.NewSupervisor(log).Add(replyWorker)

	e.Auth = services.NewAuthService(log, e.Session, config.OTPCode, config.OTPDelay)
	e.Chat = services.NewChatService(log, e.Conversations, moderator, replyWorker, e.Index,
		services.WithPaging(config.PageSize, config.LoadMoreDelay),
		services.WithMaxImageBytes(config.MaxImageBytes))
	e.Countries = countries.NewClient(config.CountriesURL, config.CountriesTimeout, log)

	log.Info("Engine ready",
		"chatrooms", len(snapshot.Chatrooms),
		"authenticated", e.Session.IsAuthenticated())
	return e, nil
}

// Start runs the supervised workers until ctx ends or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	if !e.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(e.done)
		e.supervisor.Run(ctx)
	}()
}

// Stop cancels the workers and waits for in-flight replies to settle.
func (e *Engine) Stop() {
	if !e.started.Load() {
		return
	}
	e.supervisor.Stop()
	<-e.done
}

// Close releases the index and the storage. Call it after Stop.
func (e *Engine) Close() error {
	var firstErr error
	e.closeOnce.Do(func() {
		for i := len(e.closers) - 1; i >= 0; i-- {
			if err := e.closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

func (e *Engine) openStorage(config internal.Config) (contract.Storage, error) {
	if config.BadgerFilepath == "" {
		e.log.Info("No badger path configured, keeping snapshots in memory")
		return repositories.NewMemoryStorage(), nil
	}
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	e.closers = append(e.closers, func() error {
		e.log.Info("Closing BadgerDB...")
		return db.Close()
	})
	return repositories.NewBadgerStorage(db, e.log), nil
}

func (e *Engine) openIndex(config internal.Config) (*bluge.Writer, error) {
	blugeCfg := bluge.InMemoryOnlyConfig()
	if config.BlugeFilepath != "" {
		blugeCfg = bluge.DefaultConfig(config.BlugeFilepath)
	}
	writer, err := bluge.OpenWriter(blugeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	e.closers = append(e.closers, func() error {
		e.log.Info("Closing Bluge...")
		return writer.Close()
	})
	return writer, nil
}

// reindex makes the message index match the restored logs exactly,
// dropping whatever a file-backed index kept from earlier runs.
func (e *Engine) reindex() error {
	count, err := e.Index.Rebuild(context.Background(), e.Conversations.Snapshot().MessagesByChatroom)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	e.log.Debug("Message index rebuilt", "messages", count)
	return nil
}
