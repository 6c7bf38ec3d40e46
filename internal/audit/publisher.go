// Package audit captures structured audit events for every workflow action.
// The publisher hands events to a background worker over a channel; the worker
// fans out to the append-only store and an optional Kafka sink.
package audit

import (
	"context"
	"log/slog"
	"time"

	"trustnet/internal/domain"
)

const defaultBuffer = 256

// Publisher accepts events from domain logic without blocking it. A full
// buffer drops the event and logs; audit must never stall a decision.
type Publisher struct {
	inbox chan domain.AuditEvent
	log   *slog.Logger
}

func NewPublisher(log *slog.Logger) *Publisher {
	return &Publisher{
		inbox: make(chan domain.AuditEvent, defaultBuffer),
		log:   log,
	}
}

func (p *Publisher) Emit(_ context.Context, event domain.AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.log.Warn("audit buffer full, event dropped",
			"action", string(event.Action),
			"document_id", event.DocumentID,
		)
	}
	return nil
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan domain.AuditEvent {
	return p.inbox
}
