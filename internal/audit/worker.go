package audit

import (
	"context"
	"log/slog"

	"trustnet/internal/domain"
)

// Sink receives audit events beyond the local store, e.g. a Kafka topic.
type Sink interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}

// Worker consumes audit events from the publisher and persists them. Sink
// failures are logged and skipped; the local store stays authoritative.
type Worker struct {
	store Store
	sink  Sink
	inbox <-chan domain.AuditEvent
	log   *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan domain.AuditEvent, log *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.log.ErrorContext(ctx, "audit sink publish failed",
						"error", err,
						"action", string(event.Action),
					)
				}
			}
		}
	}
}
