// Package queue wraps the RabbitMQ connection used for order status events.
package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ordersys/order-management/internal/logger"
)

// OrderStatusUpdates is the durable queue carrying status-change events.
const OrderStatusUpdates = "order_status_updates"

// Client owns one broker connection and one channel. Construct it with
// Connect and pass it down explicitly; a channel must not be used from
// multiple goroutines without external synchronization.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connect dials the broker, opens a channel and declares the queues.
func Connect(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{conn: conn, ch: ch}
	if err := c.declareQueues(); err != nil {
		c.Close()
		return nil, err
	}

	logger.Log.Info("connected to rabbitmq")
	return c, nil
}

func (c *Client) declareQueues() error {
	if _, err := c.ch.QueueDeclare(OrderStatusUpdates, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", OrderStatusUpdates, err)
	}
	return nil
}

// Publish sends body to the named queue as a persistent message, asking the
// broker to keep it on disk until acknowledged.
func (c *Client) Publish(ctx context.Context, queueName string, body []byte) error {
	err := c.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queueName, err)
	}
	return nil
}

// Consume opens a delivery stream for the named queue with auto-ack
// disabled. Each delivery stays in flight until the consumer acks or nacks
// it; unacknowledged messages are redelivered after a crash.
func (c *Client) Consume(queueName string) (<-chan amqp.Delivery, error) {
	deliveries, err := c.ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queueName, err)
	}
	return deliveries, nil
}

// Close shuts the channel and the connection. In-flight unacknowledged
// deliveries return to the queue.
func (c *Client) Close() error {
	if err := c.ch.Close(); err != nil {
		c.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	return c.conn.Close()
}
