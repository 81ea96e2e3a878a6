package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ride-dispatch/internal/general/config"
	"ride-dispatch/internal/general/contracts"
	"ride-dispatch/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dialTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	redialCap      = 30 * time.Second
)

// Client maintains a single confirming publish channel against the ride
// topic exchange and re-establishes it when the broker connection drops.
// The engine only ever publishes; consuming happens downstream.
type Client struct {
	url    string
	logger *logger.Logger
	logCtx context.Context // detached from the caller so redial logging survives shutdown races

	mu       sync.Mutex // guards conn/ch/confirms and serializes publishes
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms chan amqp.Confirmation

	done   chan struct{}
	redial chan struct{}
}

// Connect dials the broker, declares the ride topic topology, and starts the
// redial watcher.
func Connect(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Client, error) {
	client := &Client{
		url: fmt.Sprintf("amqp://%s:%s@%s:%d/",
			cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port),
		logger: logger,
		logCtx: context.WithoutCancel(ctx),
		done:   make(chan struct{}),
		redial: make(chan struct{}, 1),
	}

	// first dial is a single attempt; a broken broker should fail startup
	if err := client.dial(); err != nil {
		return nil, err
	}

	go client.redialLoop()

	return client, nil
}

// Close stops the watcher and tears down the channel and connection.
func (client *Client) Close() {
	select {
	case <-client.done:
	default:
		close(client.done)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.ch != nil {
		_ = client.ch.Close()
		client.ch = nil
	}
	if client.conn != nil {
		_ = client.conn.Close()
		client.conn = nil
	}
}

// publish sends one persistent JSON body to the ride topic exchange and
// waits for the broker confirm. Serialized; the scheduler and dispatch
// paths publish small messages at tick cadence.
func (client *Client) publish(routingKey string, body []byte) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.ch == nil || client.ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := client.ch.PublishWithContext(ctx, contracts.ExchangeRideTopic, routingKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
	if err != nil {
		return err
	}

	select {
	case confirm, ok := <-client.confirms:
		if !ok {
			return errors.New("rabbitmq: channel closed while awaiting confirm")
		}
		if !confirm.Ack {
			return errors.New("rabbitmq: broker rejected the publish")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dial opens a fresh connection plus confirming channel and swaps them in.
func (client *Client) dial() error {
	conn, err := amqp.DialConfig(client.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq topology: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq confirms: %w", err)
	}

	client.mu.Lock()
	if client.ch != nil && !client.ch.IsClosed() {
		_ = client.ch.Close()
	}
	client.conn = conn
	client.ch = ch
	client.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	client.mu.Unlock()

	// either side closing triggers one redial
	go func() {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-client.done:
			return
		case <-connClosed:
		case <-chClosed:
		}
		select {
		case client.redial <- struct{}{}:
		default:
		}
	}()

	client.logger.Info(client.logCtx, "rabbitmq_connected", "RabbitMQ channel ready", nil)
	return nil
}

// redialLoop re-dials with capped backoff whenever the live channel drops.
func (client *Client) redialLoop() {
	for {
		select {
		case <-client.done:
			return
		case <-client.redial:
		}

		backoff := time.Second
		for {
			select {
			case <-client.done:
				return
			default:
			}

			if err := client.dial(); err == nil {
				client.logger.Info(client.logCtx, "rabbitmq_reconnected", "Reconnected to RabbitMQ", nil)
				break
			} else {
				client.logger.Error(client.logCtx, "rabbitmq_redial_failed", "Failed to reconnect to RabbitMQ", err, map[string]any{
					"backoff_ms": backoff.Milliseconds(),
				})
			}

			time.Sleep(backoff)
			if backoff < redialCap {
				backoff *= 2
				if backoff > redialCap {
					backoff = redialCap
				}
			}
		}
	}
}
