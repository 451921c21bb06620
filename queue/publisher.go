// Package queue delivers domain events to RabbitMQ for the notification
// collaborator. Publishing is best-effort by design: accounting state is
// already committed by the time an event is emitted, and a broker outage
// must never surface as an accounting failure.
package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/dayproof/dayproof/engine"
)

// Publisher sends engine events to a durable RabbitMQ queue.
type Publisher struct {
	mu        sync.Mutex
	ch        *amqp.Channel
	queueName string
}

// NewPublisher dials RabbitMQ and declares the durable event queue.
func NewPublisher(url, queueName string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &Publisher{ch: ch, queueName: queueName}, nil
}

// Publish implements engine.Publisher with persistent JSON messages.
func (p *Publisher) Publish(evt engine.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
