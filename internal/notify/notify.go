// Package notify collects user-facing messages raised while handling a request.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Buffer holds the messages of one request.
type Buffer struct {
	mu   sync.Mutex
	msgs []string
}

// Add appends msg.
func (b *Buffer) Add(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

// Messages returns a copy of the collected messages.
func (b *Buffer) Messages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.msgs...)
}

type ctxKey struct{}

// WithBuffer attaches a new Buffer to ctx.
func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	b := &Buffer{}
	return context.WithValue(ctx, ctxKey{}, b), b
}

// FromContext returns the Buffer attached to ctx, or nil.
func FromContext(ctx context.Context) *Buffer {
	b, _ := ctx.Value(ctxKey{}).(*Buffer)
	return b
}

// Sink delivers messages to the Buffer in the caller's context and logs them.
type Sink struct {
	log *zap.Logger
}

// NewSink creates a Sink. A nil logger discards log output.
func NewSink(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log}
}

// Notify records msg for the current request.
func (s *Sink) Notify(ctx context.Context, msg string) {
	if b := FromContext(ctx); b != nil {
		b.Add(msg)
	}
	s.log.Info("user notification", zap.String("message", msg))
}
