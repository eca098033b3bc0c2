// Package events publishes domain events to RabbitMQ. Publishing is best
// effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	AccountCreated    = "account.created"
	DocumentsUploaded = "documents.uploaded"
)

// Event is one domain event. Name doubles as the queue name.
type Event struct {
	Name       string         `json:"name"`
	AccountID  string         `json:"accountId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(name, accountID string, data map[string]any) Event {
	return Event{Name: name, AccountID: accountID, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// DefaultDialTimeout bounds connecting to the broker, AMQP handshake
// included, when the caller's context has no earlier deadline.
const DefaultDialTimeout = 5 * time.Second

// AMQPPublisher keeps one connection open and publishes each event as a
// persistent JSON message on a durable queue named after the event. The
// mutex only guards the cached connection; dialing and publishing happen
// outside it so a slow broker never queues other callers.
type AMQPPublisher struct {
	url         string
	dialTimeout time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	declared map[string]bool
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dialTimeout: DefaultDialTimeout, declared: make(map[string]bool)}
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if !p.isDeclared(conn, e.Name) {
		if _, err := ch.QueueDeclare(e.Name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("rabbitmq queue declare %s: %w", e.Name, err)
		}
		p.markDeclared(conn, e.Name)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", e.Name, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", e.Name, err)
	}
	return nil
}

// connection returns the cached connection or dials a new one. Concurrent
// dials may race; the loser closes its connection.
func (p *AMQPPublisher) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn != nil && !conn.IsClosed() {
		return conn, nil
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      p.dialer(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		_ = conn.Close()
		return p.conn, nil
	}
	p.conn = conn
	p.declared = make(map[string]bool)
	return conn, nil
}

// dialer connects within ctx and sets a socket deadline so the AMQP
// handshake is bounded too. amqp clears the deadline once the connection
// is open.
func (p *AMQPPublisher) dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		deadline := time.Now().Add(p.dialTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		dctx, cancel := context.WithDeadline(ctx, deadline)
		defer cancel()

		var d net.Dialer
		conn, err := d.DialContext(dctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func (p *AMQPPublisher) isDeclared(conn *amqp.Connection, queue string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn == conn && p.declared[queue]
}

func (p *AMQPPublisher) markDeclared(conn *amqp.Connection, queue string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		p.declared[queue] = true
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}
