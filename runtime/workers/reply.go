package workers

import (
	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
)

// Conversations is the part of the conversation store a reply settles into.
type Conversations interface {
	AppendMessage(id domain.ChatroomID, msg domain.NewMessage) (domain.Message, error)
	EndTyping(id domain.ChatroomID, cause error)
}

// ReplyWorker drains reply jobs. Each job runs in its own goroutine so a slow
// reply in one chatroom never delays another one.
// Every job settles exactly once: an assistant message or a failure, then typing is cleared.
type ReplyWorker struct {
	log           *slog.Logger
	jobs          chan domain.ReplyJob
	generator     contract.ReplyGenerator
	conversations Conversations
	inflight      sync.WaitGroup
}

func NewReplyWorker(log *slog.Logger, jobs chan domain.ReplyJob, generator contract.ReplyGenerator, conversations Conversations) *ReplyWorker {
	return &ReplyWorker{log: log, jobs: jobs, generator: generator, conversations: conversations}
}

// Submit enqueues a job without blocking.
func (w *ReplyWorker) Submit(job domain.ReplyJob) error {
	select {
	case w.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%w: chatroom %s", errors.ErrReplyQueueFull, job.ChatroomID)
	}
}

func (w *ReplyWorker) Run(ctx context.Context) error {
	defer w.inflight.Wait()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping reply worker")
			return nil
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Reply channel is closed")
				return nil
			}
			w.inflight.Add(1)
			go func() {
				defer w.inflight.Done()
				w.settle(ctx, job)
			}()
		}
	}
}

func (w *ReplyWorker) settle(ctx context.Context, job domain.ReplyJob) {
	var cause error
	defer func() {
		if r := recover(); r != nil {
			cause = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
		w.conversations.EndTyping(job.ChatroomID, cause)
	}()

	text, err := w.generator.GenerateReply(ctx, job.UserText)
	if err != nil {
		w.log.Warn("Reply generation failed", "chatroom", job.ChatroomID, "error", err)
		cause = err
		return
	}

	_, err = w.conversations.AppendMessage(job.ChatroomID, domain.NewMessage{
		Sender:  domain.SenderAssistant,
		Content: text,
	})
	switch {
	case stderrors.Is(err, errors.ErrNotFound):
		w.log.Warn("Reply dropped, chatroom is gone", "chatroom", job.ChatroomID)
	case err != nil:
		w.log.Error("Reply could not be appended", "chatroom", job.ChatroomID, "error", err)
		cause = err
	default:
		w.log.Debug("Reply delivered", "chatroom", job.ChatroomID)
	}
}
