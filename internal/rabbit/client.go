package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

const consumerTag = "nryli-confirmation-worker"

// Client publishes confirmation requests to a durable direct exchange and
// consumes them from the bound queue. The queue name is the routing key.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
}

type Rabbiter interface {
	Close()
	Publish(ctx context.Context, message []byte) error
	Consume(ctx context.Context, handler func([]byte) error) error
}

var _ Rabbiter = (*Client)(nil)

func NewRabbit(url, exchange, queue string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		zlog.Logger.Error().Err(err).Msg("failed to open RabbitMQ channel")
		return nil, err
	}

	client := &Client{conn: conn, channel: ch, exchange: exchange, queue: queue}
	if err := client.declareTopology(); err != nil {
		client.Close()
		zlog.Logger.Error().Err(err).Msg("failed to declare RabbitMQ topology")
		return nil, err
	}

	zlog.Logger.Info().
		Str("exchange", exchange).
		Str("queue", queue).
		Msg("RabbitMQ initialized")
	return client, nil
}

func (c *Client) declareTopology() error {
	if err := c.channel.ExchangeDeclare(c.exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	if err := c.channel.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}
	// one unacked confirmation at a time per worker
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	zlog.Logger.Info().Msg("RabbitMQ connection closed")
}

func (c *Client) Publish(ctx context.Context, message []byte) error {
	err := c.channel.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         message,
		Timestamp:    time.Now(),
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("queue", c.queue).Msg("failed to publish confirmation request")
		return err
	}
	zlog.Logger.Debug().Str("queue", c.queue).Msg("confirmation request published")
	return nil
}

// Consume delivers queued bodies to handler until ctx is done. A delivery is
// acked when handler returns nil. A failed delivery is requeued once; a failed
// redelivery is dropped.
func (c *Client) Consume(ctx context.Context, handler func([]byte) error) error {
	msgs, err := c.channel.Consume(c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to start consuming messages")
		return err
	}

	go func() {
		defer func() {
			if err := c.channel.Cancel(consumerTag, false); err != nil {
				zlog.Logger.Debug().Err(err).Msg("consumer cancel")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				settle(d, handler(d.Body))
			}
		}
	}()

	zlog.Logger.Info().Str("queue", c.queue).Msg("started consuming confirmation requests")
	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(d amqp.Delivery, err error) {
	settleDelivery(d, d.Redelivered, err)
}

func settleDelivery(d acknowledger, redelivered bool, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case redelivered:
		zlog.Logger.Warn().Err(err).Msg("dropping confirmation request after retry")
		_ = d.Nack(false, false)
	default:
		zlog.Logger.Warn().Err(err).Msg("requeueing confirmation request")
		_ = d.Nack(false, true)
	}
}
