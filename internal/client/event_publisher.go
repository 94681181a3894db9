package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EventPublisher publishes hierarchy and budget lifecycle events to NATS.
//
// Subject convention: costcentre.<resource>.<event_type>
// Event types: workflow created, updated, deleted; budget assigned.
//
// All publish operations are non-fatal — errors are logged but never
// propagated to the caller, so event failures never interrupt the
// triggering operation.
type EventPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// LifecycleEvent is the JSON schema published to NATS.
type LifecycleEvent struct {
	EventType    string         `json:"event_type"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	ActorID      string         `json:"actor_id,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// NewEventPublisher creates a publisher backed by the given NATS
// connection. A nil connection disables publishing.
func NewEventPublisher(conn *nats.Conn, log zerolog.Logger) *EventPublisher {
	return &EventPublisher{conn: conn, log: log}
}

// PublishWorkflowEvent publishes a workflow lifecycle event.
// Subject: costcentre.workflow.<eventType>
func (p *EventPublisher) PublishWorkflowEvent(eventType, workflowID, actorID string, payload map[string]any) {
	p.publish("workflow", eventType, workflowID, actorID, payload)
}

// PublishBudgetEvent publishes a budget allocation event.
// Subject: costcentre.budget.<eventType>
func (p *EventPublisher) PublishBudgetEvent(eventType, ccNo, actorID string, payload map[string]any) {
	p.publish("budget", eventType, ccNo, actorID, payload)
}

func (p *EventPublisher) publish(resource, eventType, resourceID, actorID string, payload map[string]any) {
	if p.conn == nil {
		return
	}

	event := &LifecycleEvent{
		EventType:    eventType,
		ResourceType: resource,
		ResourceID:   resourceID,
		ActorID:      actorID,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("event: failed to marshal")
		return
	}

	subject := fmt.Sprintf("costcentre.%s.%s", resource, eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("resource_id", resourceID).
			Msg("event: failed to publish (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("resource_id", resourceID).
		Msg("event: published")
}
