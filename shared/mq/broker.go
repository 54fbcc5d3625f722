// Package mq publishes ask events to RabbitMQ.
// Uses a topic exchange so consumers can bind to "question.*", "*.failed" etc.
package mq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	Exchange     = "askai.events"
	ExchangeType = "topic"
)

const connectAttempts = 5

// channel is the part of *amqp.Channel the broker publishes through.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url string) (channel, io.Closer, error)

// Broker wraps an AMQP connection and reconnects when a publish finds it
// closed.
type Broker struct {
	url     string
	dial    dialFunc
	backoff time.Duration

	mu   sync.Mutex
	conn io.Closer
	ch   channel
}

// New connects to RabbitMQ and declares the exchange. Retries stop early when
// ctx is cancelled.
func New(ctx context.Context, amqpURL string) (*Broker, error) {
	b := &Broker{url: amqpURL, dial: dialAMQP, backoff: time.Second}
	if err := b.connect(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func dialAMQP(url string) (channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare durable topic exchange
	err = ch.ExchangeDeclare(
		Exchange,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return ch, conn, nil
}

func (b *Broker) connect(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		b.ch, b.conn, err = b.dial(b.url)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("RabbitMQ connection failed, retrying")
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("rabbitmq connect: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * b.backoff):
		}
	}
	return fmt.Errorf("rabbitmq connect after %d attempts: %w", connectAttempts, err)
}

// Publish sends a message to the topic exchange with the given routing key.
// A closed channel triggers one reconnect bounded by ctx.
func (b *Broker) Publish(ctx context.Context, routingKey string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil {
		err := b.publish(ctx, routingKey, body)
		if !errors.Is(err, amqp.ErrClosed) {
			return err
		}
		log.Warn().Str("key", routingKey).Msg("RabbitMQ channel closed, reconnecting")
		b.close()
	}
	if err := b.connect(ctx); err != nil {
		return err
	}
	return b.publish(ctx, routingKey, body)
}

func (b *Broker) publish(ctx context.Context, routingKey string, body []byte) error {
	return b.ch.PublishWithContext(ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close shuts down channel and connection.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.close()
}

func (b *Broker) close() {
	if b.ch != nil {
		b.ch.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
	b.ch, b.conn = nil, nil
}
