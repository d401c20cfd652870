// Package events publishes domain events (application submitted, status
// changed, message sent) to interested external consumers. Publishing is
// best effort; callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Topics used as routing keys.
const (
	TopicApplicationSubmitted     = "application.submitted"
	TopicApplicationStatusChanged = "application.status_changed"
	TopicConversationOpened       = "conversation.opened"
	TopicMessageSent              = "message.sent"
	TopicRatingCreated            = "rating.created"
)

// Event is the envelope written to the wire.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher hands events to a broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }

// publishTimeout bounds a single broker write.
const publishTimeout = 5 * time.Second

// AMQPPublisher publishes JSON events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
	channel *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	)
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, exchange: exchange, channel: ch}, nil
}

// Publish marshals payload into an Event and sends it with the topic as
// routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(newEvent(topic, payload))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		topic,      // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		p.conn.Close() //nolint:errcheck
		return err
	}
	return p.conn.Close()
}

func newEvent(topic string, payload any) Event {
	return Event{ID: uuid.New(), Topic: topic, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Memory keeps published events in memory. Tests use it to assert on the
// events a component emits.
type Memory struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned from Publish when set
}

// NewMemory returns an empty Memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, topic string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, newEvent(topic, payload))
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of the published events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Topics returns the topics of the published events in order.
func (m *Memory) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, len(m.events))
	for i, e := range m.events {
		topics[i] = e.Topic
	}
	return topics
}
