package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange domain events are published to.
	ExchangeName = "mentora.domain.events"
	// DefaultQueueName is the durable queue the worker consumes from.
	DefaultQueueName = "mentora.consumer"
)

// RabbitMQConfig configures a RabbitMQ connection.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	Queue    string
	Logger   *slog.Logger
}

func (c *RabbitMQConfig) applyDefaults() {
	if c.Exchange == "" {
		c.Exchange = ExchangeName
	}
	if c.Queue == "" {
		c.Queue = DefaultQueueName
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// dialExchange connects and declares the durable topic exchange.
func dialExchange(cfg RabbitMQConfig) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return conn, ch, nil
}

// RabbitMQPublisher publishes persistent JSON messages to the exchange.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewRabbitMQPublisher connects a publisher.
func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	cfg.applyDefaults()
	conn, ch, err := dialExchange(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("rabbitmq publisher connected", "exchange", cfg.Exchange)
	return &RabbitMQPublisher{conn: conn, channel: ch, exchange: cfg.Exchange, logger: cfg.Logger}, nil
}

// Publish sends payload with the given routing key.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Ping fails once the connection has been closed.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	if p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.logger.Warn("error closing channel", "error", err)
	}
	return p.conn.Close()
}

// RabbitMQConsumer feeds queue deliveries into a ConsumerRegistry.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	cfg      RabbitMQConfig
	registry *ConsumerRegistry
	mu       sync.Mutex
}

// NewRabbitMQConsumer connects and declares the durable queue.
func NewRabbitMQConsumer(cfg RabbitMQConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	cfg.applyDefaults()
	conn, ch, err := dialExchange(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	cfg.Logger.Info("rabbitmq consumer connected", "queue", cfg.Queue, "exchange", cfg.Exchange)
	return &RabbitMQConsumer{conn: conn, channel: ch, cfg: cfg, registry: registry}, nil
}

// RegisterConsumer registers consumer and binds its routing keys to the queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) error {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.cfg.Queue, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Start consumes until ctx is cancelled or the channel closes.
// A failed delivery is requeued once; a second failure drops it.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := c.channel.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}

	logger := c.cfg.Logger
	logger.Info("consuming events", "queue", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) {
	logger := c.cfg.Logger

	event, err := Decode(d.Body, d.RoutingKey)
	if err != nil {
		logger.Error("discarding undecodable delivery", "routing_key", d.RoutingKey, "error", err)
		_ = d.Ack(false)
		return
	}

	if err := c.registry.Dispatch(ctx, event); err != nil {
		requeue := !d.Redelivered
		logger.Warn("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"requeue", requeue,
			"error", err,
		)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			logger.Error("failed to nack delivery", "error", nackErr)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logger.Error("failed to ack delivery", "error", err)
	}
}

// Ping fails once the connection has been closed.
func (c *RabbitMQConsumer) Ping(context.Context) error {
	if c.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

// Close closes the channel and connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.channel.Close(); err != nil {
		c.cfg.Logger.Warn("error closing channel", "error", err)
	}
	return c.conn.Close()
}
