package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands events to a background worker over a buffered channel so
// emitting never blocks request handling on storage.
type Publisher struct {
	inbox chan<- Event
}

// Worker consumes audit events from the channel and persists them. It keeps
// background processing testable without wiring a queue implementation.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

// WorkerOption configures the worker side of a pipeline.
type WorkerOption func(*Worker)

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewPipeline wires a publisher and its worker around a shared channel.
// Run the worker in a goroutine for the lifetime of the process.
func NewPipeline(store Store, buffer int, opts ...WorkerOption) (*Publisher, *Worker) {
	ch := make(chan Event, buffer)
	w := &Worker{store: store, inbox: ch, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return &Publisher{inbox: ch}, w
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			// A single bad append must not take the trail down with it;
			// later events still get their chance.
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("failed to append audit event",
					"action", event.Action, "admin_id", event.AdminID, "error", err)
			}
		}
	}
}
