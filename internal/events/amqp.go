package events

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Session is one live broker connection with a channel bound to an exchange.
type Session interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
	// NotifyClose registers receiver for connection-level close; the receiver
	// gets an *amqp.Error on failure and is closed on any shutdown.
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// Dialer opens a Session.
type Dialer func(ctx context.Context) (Session, error)

type amqpSession struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// DialAMQP returns a Dialer that connects to url and declares exchange as a durable topic exchange.
func DialAMQP(url, exchange string) Dialer {
	return func(ctx context.Context) (Session, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(connectTimeout(ctx))})
		if err != nil {
			return nil, fmt.Errorf("amqp dial: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("amqp channel: %w", err)
		}
		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("amqp exchange declare: %w", err)
		}
		return &amqpSession{conn: conn, ch: ch, exchange: exchange}, nil
	}
}

func (s *amqpSession) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	return s.ch.PublishWithContext(ctx, s.exchange, routingKey, false, false, msg)
}

func (s *amqpSession) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return s.conn.NotifyClose(receiver)
}

func (s *amqpSession) Close() error {
	_ = s.ch.Close()
	return s.conn.Close()
}

const defaultConnectTimeout = 10 * time.Second

func connectTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
	}
	return defaultConnectTimeout
}
