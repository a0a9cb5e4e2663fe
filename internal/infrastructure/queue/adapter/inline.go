package adapter

import (
	"context"
	"fmt"
	"sync"

	"conversa/internal/infrastructure/queue/port"

	"github.com/google/uuid"
)

// InlineQueue executes tasks synchronously in the enqueueing goroutine. It
// is the fallback when no Redis is configured, and doubles as the queue for
// tests. It implements both sides of the port.
type InlineQueue struct {
	mu       sync.RWMutex
	handlers map[string]port.Handler
}

func NewInlineQueue() *InlineQueue {
	return &InlineQueue{handlers: make(map[string]port.Handler)}
}

var (
	_ port.Client = (*InlineQueue)(nil)
	_ port.Server = (*InlineQueue)(nil)
)

func (q *InlineQueue) Register(taskType string, h port.Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskType] = h
}

func (q *InlineQueue) Enqueue(ctx context.Context, t port.Task, opts ...port.EnqueueOption) (string, error) {
	q.mu.RLock()
	h := q.handlers[t.Type]
	q.mu.RUnlock()
	if h == nil {
		return "", fmt.Errorf("inline queue: no handler for task %q", t.Type)
	}
	if err := h(ctx, t); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func (q *InlineQueue) Close() error { return nil }

// Run blocks until the context is canceled; work happens in Enqueue.
func (q *InlineQueue) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (q *InlineQueue) Stop(ctx context.Context) error { return nil }
