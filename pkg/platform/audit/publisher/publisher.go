// Package publisher is the single entry point domain services use to emit
// audit events. It enriches events from the request context, persists them to
// the configured store, and fans out to optional sinks (Kafka).
package publisher

import (
	"context"
	"log/slog"
	"sync"

	id "landreg/pkg/domain"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/requestcontext"
)

// Publisher persists audit events synchronously by default; WithAsyncBuffer
// switches to a buffered channel drained by a background goroutine. Close
// drains the buffer before returning so no event is lost on shutdown.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger

	inbox chan audit.Event
	done  chan struct{}
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous publishing with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithSink adds a fan-out sink. Sink failures are logged, never propagated:
// an unreachable broker must not fail a land registration.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records an audit event. The category is derived from the action and
// the timestamp and request id are taken from the context when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.CategoryOf(audit.AuditEvent(event.Action))
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.inbox != nil {
		p.inbox <- event
		return nil
	}
	return p.deliver(context.WithoutCancel(ctx), event)
}

// List exposes the store's per-user query for handler convenience.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops the async drain, flushing any buffered events, and closes sinks.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		}
		for _, sink := range p.sinks {
			sink.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.deliver(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("audit event dropped", "action", event.Action, "error", err)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil && p.logger != nil {
			p.logger.Warn("audit sink publish failed", "action", event.Action, "error", err)
		}
	}
	return nil
}
