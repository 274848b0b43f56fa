// Package events publishes catalog changes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	ItemRequestSubmitted = "item_request.submitted"
	ItemRequestApproved  = "item_request.approved"
	ItemRequestRejected  = "item_request.rejected"
	POIItemAssigned      = "poi.item_assigned"
	POIItemRemoved       = "poi.item_removed"
)

// Event is a committed catalog change.
type Event struct {
	ID          uuid.UUID  `json:"event_id"`
	Type        string     `json:"event_type"`
	AggregateID uuid.UUID  `json:"aggregate_id"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	Payload     any        `json:"payload,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType string, aggregateID uuid.UUID, actor *uuid.UUID, payload any) Event {
	return Event{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actor,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by aggregate id.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AggregateID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
