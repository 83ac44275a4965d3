package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/jobboard/shared/rabbitmq"
)

// MessageSender is the slice of the RabbitMQ client the publisher uses.
type MessageSender interface {
	Publish(ctx context.Context, msg rabbitmq.Message) error
}

// RabbitPublisher publishes events to a topic exchange, routed by type.
type RabbitPublisher struct {
	sender MessageSender
}

// NewRabbitPublisher creates a new RabbitPublisher.
func NewRabbitPublisher(sender MessageSender) *RabbitPublisher {
	return &RabbitPublisher{sender: sender}
}

func (p *RabbitPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.sender.Publish(ctx, rabbitmq.Message{
		RoutingKey:  string(e.Type),
		MessageID:   e.ID.String(),
		Type:        string(e.Type),
		ContentType: "application/json",
		Body:        body,
		Timestamp:   e.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event %s: %w", e.Type, e.ID, err)
	}
	return nil
}
