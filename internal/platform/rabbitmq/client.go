package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/jatra/booking-engine/internal/core/domain"
)

// Client wraps a RabbitMQ connection with explicit connect/close lifecycle
// and a reconnect loop on connection closure. Publishing goes through the
// standard event envelope; consuming is a blocking per-queue receive loop
// with manual ack and nack-with-requeue on handler error.
type Client struct {
	url    string
	source string
	logger *logrus.Logger

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel

	done chan struct{}
}

func NewClient(url, source string, logger *logrus.Logger) *Client {
	return &Client{
		url:    url,
		source: source,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Connect dials the broker, declares the durable topic exchange and starts
// the reconnect watcher.
func (c *Client) Connect() error {
	if err := c.connect(); err != nil {
		return err
	}
	go c.watchReconnect()
	return nil
}

func (c *Client) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(domain.BookingExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", domain.BookingExchange, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.ch = ch
	c.mu.Unlock()

	c.logger.Info("RabbitMQ connected, exchanges declared")
	return nil
}

// watchReconnect redials with backoff whenever the connection drops, until
// Close is called.
func (c *Client) watchReconnect() {
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		closed := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.done:
			return
		case amqpErr := <-closed:
			if amqpErr == nil {
				// Clean shutdown.
				return
			}
			c.logger.Warnf("RabbitMQ connection lost: %v, reconnecting...", amqpErr)
		}

		delay := time.Second
		for {
			select {
			case <-c.done:
				return
			case <-time.After(delay):
			}

			if err := c.connect(); err != nil {
				c.logger.Errorf("RabbitMQ reconnect failed: %v", err)
				if delay < 30*time.Second {
					delay *= 2
				}
				continue
			}
			break
		}
	}
}

func (c *Client) Close() error {
	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publish wraps data in the event envelope and publishes it persistently.
// A failure is always returned to the caller.
func (c *Client) Publish(ctx context.Context, exchange, routingKey string, data any) error {
	c.mu.RLock()
	ch := c.ch
	c.mu.RUnlock()

	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	event := domain.Event{
		EventID:   uuid.NewString(),
		EventType: routingKey,
		Timestamp: time.Now().UTC(),
		Source:    c.source,
		Data:      data,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", routingKey, err)
	}

	err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.EventID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s:%s: %w", exchange, routingKey, err)
	}

	c.logger.Debugf("Published %s to %s (event %s)", routingKey, exchange, event.EventID)
	return nil
}

// Consume binds queue to the booking exchange under bindingKey and runs a
// blocking receive loop. The handler is invoked once per delivery; a nil
// return acknowledges the message, an error negatively acknowledges it with
// requeue, so it is redelivered until handled. Consume returns when ctx is
// cancelled or the client is closed; a dropped channel is re-subscribed
// after the connection recovers.
func (c *Client) Consume(ctx context.Context, queue, bindingKey string, handler func(ctx context.Context, body []byte) error) error {
	for {
		deliveries, err := c.subscribe(queue, bindingKey)
		if err != nil {
			c.logger.Errorf("Subscribe to %s failed: %v, retrying...", queue, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.done:
				return nil
			case <-time.After(2 * time.Second):
				continue
			}
		}

		c.logger.Infof("Consuming from queue %s", queue)

	receive:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.done:
				return nil
			case d, ok := <-deliveries:
				if !ok {
					// Channel closed underneath us; resubscribe.
					break receive
				}
				if err := handler(ctx, d.Body); err != nil {
					c.logger.Errorf("Handler failed for message on %s, requeueing: %v", queue, err)
					if nackErr := d.Nack(false, true); nackErr != nil {
						c.logger.Errorf("Nack failed on %s: %v", queue, nackErr)
					}
					continue
				}
				if ackErr := d.Ack(false); ackErr != nil {
					c.logger.Errorf("Ack failed on %s: %v", queue, ackErr)
				}
			}
		}
	}
}

func (c *Client) subscribe(queue, bindingKey string) (<-chan amqp.Delivery, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, fmt.Errorf("rabbitmq connection not available")
	}

	// Dedicated channel per subscription so a consumer error does not take
	// the publish channel down with it.
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	if err := ch.QueueBind(queue, bindingKey, domain.BookingExchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s to %s: %w", queue, bindingKey, err)
	}

	// One unacked message at a time keeps a booking's attempts sequential.
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos on %s: %w", queue, err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	return deliveries, nil
}
