// Package broker publishes schedule lifecycle messages to RabbitMQ.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/camp-autoscheduler/pkg/config"
)

// Routing keys used by the autoscheduler.
const (
	QueueScheduleCalculated = "autoschedule.calculated"
	QueueScheduleApplied    = "autoschedule.applied"
)

// Message is the envelope every published payload is wrapped in.
type Message struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher sends persistent JSON messages to durable queues on the default
// exchange. The connection is opened on first use and reopened after the
// broker drops it.
type Publisher struct {
	url    string
	logger *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	declared map[string]bool
	now      func() time.Time
}

// NewPublisher builds a publisher. An empty URL yields a disabled publisher
// whose Publish is a no-op.
func NewPublisher(cfg config.BrokerConfig, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		url:      cfg.URL,
		logger:   logger,
		declared: make(map[string]bool),
		now:      time.Now,
	}
}

// Enabled reports whether a broker URL was configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.url != ""
}

// Publish declares queue (durable) and publishes payload to it.
func (p *Publisher) Publish(ctx context.Context, queue string, payload interface{}) error {
	if !p.Enabled() {
		return nil
	}
	msg, err := p.encode(queue, payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("rabbitmq channel open failed", zap.Error(err))
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if !p.declared[queue] {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			p.logger.Warn("rabbitmq queue declare failed", zap.String("queue", queue), zap.Error(err))
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		p.declared[queue] = true
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.logger.Warn("rabbitmq publish failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	p.logger.Debug("message published", zap.String("queue", queue), zap.Int("bytes", len(msg.Body)))
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

func (p *Publisher) connection() (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("rabbitmq dial failed", zap.Error(err))
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	p.conn = conn
	// queues must be re-declared on a fresh connection
	p.declared = make(map[string]bool)
	return conn, nil
}

func (p *Publisher) encode(queue string, payload interface{}) (amqp.Publishing, error) {
	now := p.now().UTC()
	body, err := json.Marshal(Message{Type: queue, OccurredAt: now, Payload: payload})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s message: %w", queue, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}
