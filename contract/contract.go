//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-desk/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives domain events once the store state has changed.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Storage is a flat key/value area, the local equivalent of browser storage.
// Get returns errors.ErrKeyNotFound for a missing key.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// ReplyGenerator produces the assistant answer to a user message.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, userText string) (string, error)
}
