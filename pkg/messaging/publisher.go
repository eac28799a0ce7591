package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher enqueues payloads onto a single named durable queue. The broker
// connection is process-lifetime shared, dialed lazily on first use and
// re-dialed after a connection or channel failure, so a broker outage at
// startup does not prevent the service from serving requests.
type Publisher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, logger: logger}
}

// Publish enqueues payload with the persistent delivery flag set, so the
// broker retains the message across its own restarts. A failed attempt
// drops the cached connection; the next call dials again.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return fmt.Errorf("broker unavailable: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         payload,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

func (p *Publisher) channel() (*amqp091.Channel, error) {
	if p.ch != nil && !p.conn.IsClosed() && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp091.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, p.queue); err != nil {
		conn.Close()
		return nil, err
	}

	p.conn = conn
	p.ch = ch
	if p.logger != nil {
		p.logger.Info("connected to rabbitmq", "queue", p.queue)
	}
	return ch, nil
}

func (p *Publisher) reset() {
	if p.conn != nil && !p.conn.IsClosed() {
		_ = p.conn.Close()
	}
	p.conn = nil
	p.ch = nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
