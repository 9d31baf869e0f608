package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TicketCreated   = "ticket.created"
	TicketViewed    = "ticket.viewed"
	TicketConcluded = "ticket.concluded"
	TicketEdited    = "ticket.edited"
	TicketDeleted   = "ticket.deleted"
)

// TicketEventPublisher receives ticket lifecycle events.
type TicketEventPublisher interface {
	PublishTicketEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishTicketEvent(context.Context, string, map[string]interface{}) {}

// RabbitPublisher publishes ticket events as JSON to a topic exchange
// (best-effort: failures are logged, never returned to the request).
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher connects to RabbitMQ when url is set; otherwise it returns Nop.
func NewPublisher(url, exchange string) (TicketEventPublisher, error) {
	if url == "" || exchange == "" {
		return Nop{}, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// PublishTicketEvent sends {"event": event, ...payload} with the event name as routing key.
func (p *RabbitPublisher) PublishTicketEvent(ctx context.Context, event string, payload map[string]interface{}) {
	msg := map[string]interface{}{
		"event":       event,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("events: marshal %s: %v", event, err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, event, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("events: publish %s: %v", event, err)
	}
}

func (p *RabbitPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		log.Printf("events: close channel: %v", err)
	}
	return p.conn.Close()
}
