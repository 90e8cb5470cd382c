package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"linkforge/internal/entities"
)

// ClickPublisher enqueues click events for the consumer pool.
type ClickPublisher interface {
	Publish(ctx context.Context, event entities.ClickEvent) error
}

// Publisher sends click events over a dedicated channel on the shared
// broker connection.
type Publisher struct {
	ch        *amqp.Channel
	queueName string
}

// NewClickPublisher opens a publishing channel on the broker. Callers hold
// the publisher for the life of the process and Close it at shutdown.
func NewClickPublisher(broker *Broker) (*Publisher, error) {
	ch, err := broker.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publisher channel: %w", err)
	}
	return &Publisher{ch: ch, queueName: broker.QueueName()}, nil
}

// Publish sends the event as a persistent message. The attempt is bounded
// by ctx and returns once the message is written, without waiting for any
// consumer; the redirect path caps it with a short timeout.
func (p *Publisher) Publish(ctx context.Context, event entities.ClickEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal click event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish click event: %w", err)
	}

	return nil
}

// Close releases the publishing channel.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
