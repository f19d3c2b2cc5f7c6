// Package rabbitmq publishes and consumes account events over AMQP.
package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
)

const (
	// AccountExchange is the durable topic exchange account events go to.
	AccountExchange = "account"
	// AccountQueue receives every account.* event.
	AccountQueue = "account_events"
	accountBinding = "account.#"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// an amqp.Channel must not be used for concurrent publishes
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the account exchange and queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logging.Info().
		Str("exchange", AccountExchange).
		Str("queue", AccountQueue).
		Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		AccountExchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", AccountExchange, err)
	}

	_, err = ch.QueueDeclare(
		AccountQueue, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", AccountQueue, err)
	}

	if err := ch.QueueBind(AccountQueue, accountBinding, AccountExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", AccountQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON message to exchange with routingKey.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.channel.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logging.Debug().Str("exchange", exchange).Str("routing_key", routingKey).Msg("published event")
	return nil
}

// ConsumeAccountEvents processes messages of the account queue in a goroutine
// until the channel closes. A message is acked when handler returns nil and
// dropped otherwise.
func (c *Client) ConsumeAccountEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		AccountQueue, // queue
		"",           // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logging.Info().Str("queue", AccountQueue).Msg("waiting for account events")

	go func() {
		for msg := range msgs {
			dispatch(msg, handler)
		}
	}()
	return nil
}

// dispatch runs handler and settles msg. Failed messages are not requeued:
// a handler that fails once on a message would fail on every redelivery.
func dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		logging.Error().Err(err).
			Uint64("delivery_tag", msg.DeliveryTag).
			Str("routing_key", msg.RoutingKey).
			Msg("failed to process message")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			logging.Error().Err(nackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to nack message")
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		logging.Error().Err(ackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to ack message")
	}
}
