// Package queue implements the asynchronous click-accounting pipeline: a
// durable RabbitMQ queue between the redirect hot path and the counter
// mutation. Delivery is at-least-once; increments commute, so a redelivery
// after a crash between commit and ack only inflates the total count.
package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker owns the AMQP connection and the declared click queue. It is
// acquired at startup, injected into the publisher and consumer, and
// released at shutdown; there is no package-level connection state.
type Broker struct {
	conn      *amqp.Connection
	queueName string
}

// Dial connects to the broker and declares the durable click queue so that
// accepted events survive consumer and broker restarts.
func Dial(amqpURL, queueName string) (*Broker, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}

	return &Broker{conn: conn, queueName: queueName}, nil
}

// Channel opens a new AMQP channel on the shared connection.
func (b *Broker) Channel() (*amqp.Channel, error) {
	return b.conn.Channel()
}

// QueueName returns the declared click queue name.
func (b *Broker) QueueName() string {
	return b.queueName
}

// Close releases the connection and every channel opened on it.
func (b *Broker) Close() error {
	return b.conn.Close()
}
