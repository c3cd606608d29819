package runtime_test

import (
	"chat-desk/domain"
	"chat-desk/errors"
	"chat-desk/internal"
	"chat-desk/runtime"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testConfig() internal.Config {
	return internal.Config{
		LogLevel:        "DEBUG",
		PageSize:        20,
		SearchDebounce:  10 * time.Millisecond,
		ReplyMinDelay:   10 * time.Millisecond,
		ReplyMaxDelay:   30 * time.Millisecond,
		ReplyBufferSize: 4,
		OTPCode:         "123456",
		MaxImageBytes:   5 * 1024 * 1024,
		CensoredWords:   "spammer",
		CensorCharacter: "*",
	}
}

func TestEngine_Login_Then_Chat(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	engine, err := runtime.NewEngine(testConfig(), log)
	req.NoError(err)
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	// Given an anonymous visitor
	path, redirected := engine.Session.Redirect("/dashboard")
	req.True(redirected)
	req.Equal("/auth/login", path)

	// When logging in with the OTP
	req.NoError(engine.Auth.RequestOTP(ctx, "+1", "555 123 4567"))
	_, err = engine.Auth.VerifyOTP(ctx, "123456")
	req.NoError(err)
	_, redirected = engine.Session.Redirect("/dashboard")
	req.False(redirected)

	// And chatting
	id, err := engine.Chat.CreateChatroom("Project X")
	req.NoError(err)
	_, err = engine.Chat.SendMessage(id, "hello", nil)
	req.NoError(err)
	req.True(engine.Conversations.IsTyping(id))

	// Then exactly one assistant message follows
	req.Eventually(func() bool { return !engine.Conversations.IsTyping(id) }, 2*time.Second, 5*time.Millisecond)
	room, messages, err := engine.Conversations.GetChatroom(id)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(domain.SenderUser, messages[0].Sender)
	req.Equal(domain.SenderAssistant, messages[1].Sender)
	req.Equal(2, room.MessageCount)
	req.Equal(messages[1].Content, room.LastMessage)
}

func TestEngine_Filter_Follows_Store(t *testing.T) {
	req := require.New(t)
	var mu sync.Mutex
	var lastQuery string
	engine, err := runtime.NewEngine(testConfig(), slog.Default(), runtime.WithFilterListener(func(query string, _ []domain.Chatroom) {
		mu.Lock()
		defer mu.Unlock()
		lastQuery = query
	}))
	req.NoError(err)
	defer engine.Close()

	for _, title := range []string{"Weekend Plans", "Personal", "Project X"} {
		_, err = engine.Chat.CreateChatroom(title)
		req.NoError(err)
	}

	engine.Filter.SetQuery("proj")
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return lastQuery == "proj"
	}, time.Second, 5*time.Millisecond)
	req.Len(engine.Filter.Results(), 1)

	// When a matching chatroom is created
	_, err = engine.Chat.CreateChatroom("Projections")
	req.NoError(err)

	// Then the filtered view picks it up
	req.Len(engine.Filter.Results(), 2)
	req.Equal("Projections", engine.Filter.Results()[0].Title)
}

func TestEngine_Restart_Restores_Everything(t *testing.T) {
	req := require.New(t)
	config := testConfig()
	config.BadgerFilepath = t.TempDir()

	// Given a first run with a session and a conversation
	first, err := runtime.NewEngine(config, slog.Default())
	req.NoError(err)
	req.NoError(first.Auth.RequestOTP(context.Background(), "+33", "612345678"))
	_, err = first.Auth.VerifyOTP(context.Background(), "123456")
	req.NoError(err)
	id, err := first.Chat.CreateChatroom("Travel")
	req.NoError(err)
	_, err = first.Conversations.AppendMessage(id, domain.NewMessage{Sender: domain.SenderUser, Content: "book the train to Lyon"})
	req.NoError(err)
	first.Stop()
	req.NoError(first.Close())

	// When the process starts again
	second, err := runtime.NewEngine(config, slog.Default())
	req.NoError(err)
	defer second.Close()

	// Then the session, the chatroom and the search index are back
	req.True(second.Session.IsAuthenticated())
	rooms := second.Conversations.ListChatrooms()
	req.Len(rooms, 1)
	req.Equal("Travel", rooms[0].Title)
	req.Equal(1, rooms[0].MessageCount)

	hits, err := second.Chat.SearchMessages(context.Background(), "", "train", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(id, hits[0].ChatroomID)
}

func TestEngine_Rejects_Bad_Censor_Character(t *testing.T) {
	req := require.New(t)
	config := testConfig()
	config.CensorCharacter = "**"

	_, err := runtime.NewEngine(config, slog.Default())

	req.Error(err)
}

func TestEngine_Deleted_Chatroom_Is_Gone(t *testing.T) {
	req := require.New(t)
	engine, err := runtime.NewEngine(testConfig(), slog.Default())
	req.NoError(err)
	defer engine.Close()

	id, err := engine.Chat.CreateChatroom("Scratch")
	req.NoError(err)
	req.NoError(engine.Chat.DeleteChatroom(id))

	_, err = engine.Chat.Open(id)
	req.ErrorIs(err, errors.ErrNotFound)
	req.ErrorIs(engine.Chat.DeleteChatroom(id), errors.ErrNotFound)
}

func TestEngine_Embedded_Blocklists_Are_Opt_In(t *testing.T) {
	send := func(t *testing.T, config internal.Config, text string) string {
		t.Helper()
		engine, err := runtime.NewEngine(config, slog.Default())
		require.NoError(t, err)
		t.Cleanup(func() { _ = engine.Close() })
		id, err := engine.Chat.CreateChatroom("Inbox")
		require.NoError(t, err)
		message, err := engine.Chat.SendMessage(id, text, nil)
		require.NoError(t, err)
		return message.Content
	}

	t.Run("only configured words by default", func(t *testing.T) {
		require.Equal(t, "that scammer and that *******", send(t, testConfig(), "that scammer and that spammer"))
	})

	t.Run("embedded lists when enabled", func(t *testing.T) {
		config := testConfig()
		config.CensorBuiltinLists = true
		require.Equal(t, "that ******* and that *******", send(t, config, "that scammer and that spammer"))
	})
}
