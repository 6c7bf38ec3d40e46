package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"trustnet/internal/domain"
)

// kafkaEvent is the wire shape of an audit event on the topic.
type kafkaEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorRole  string    `json:"actor_role,omitempty"`
	Action     string    `json:"action"`
	DocumentID string    `json:"document_id"`
	Decision   string    `json:"decision,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// KafkaSink publishes audit events to the configured topic. Events are keyed
// by document id so one document's trail stays ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
}

func NewKafkaSink(client *kgo.Client) *KafkaSink {
	return &KafkaSink{client: client}
}

func (s *KafkaSink) Publish(ctx context.Context, event domain.AuditEvent) error {
	payload, err := json.Marshal(kafkaEvent{
		Timestamp:  event.Timestamp,
		ActorID:    event.ActorID,
		ActorRole:  string(event.ActorRole),
		Action:     string(event.Action),
		DocumentID: event.DocumentID,
		Decision:   string(event.Decision),
		Reason:     event.Reason,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.DocumentID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}
