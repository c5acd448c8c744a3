package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	dom "todoevents/internal/domain"
	"todoevents/internal/utils/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/slog"
)

// DefaultReconnectDelay is the fixed pause between reconnect attempts.
const DefaultReconnectDelay = 5 * time.Second

var (
	ErrClosed       = errors.New("publisher closed")
	ErrNotConnected = errors.New("publisher not connected")
)

// State is the connection state of a Publisher.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Publisher sends todo events over a single broker session and reconnects on
// a fixed delay when the session is lost. Messages are never queued: a
// publish that finds no usable session is dropped.
type Publisher struct {
	dial  Dialer
	delay time.Duration
	log   *slog.Logger
	now   func() time.Time

	mu      sync.Mutex
	state   State
	sess    Session
	gen     uint64
	timer   *time.Timer
	timerID uint64
	closed  bool
	closeWG sync.WaitGroup
}

type Option func(*Publisher)

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.delay = d
		}
	}
}

// WithClock sets the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

func NewPublisher(dial Dialer, log *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		dial:  dial,
		delay: DefaultReconnectDelay,
		log:   log.With(slog.String("component", "event_publisher")),
		now:   time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start makes the first connection attempt. On failure a reconnect is
// scheduled and the error is returned for logging; the publisher stays usable.
func (p *Publisher) Start(ctx context.Context) error {
	if err := p.connect(ctx); err != nil {
		p.log.Error("initial broker connection failed", logger.Err(err))
		p.scheduleReconnect()
		return err
	}
	return nil
}

// State returns the current connection state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Publish sends a snapshot of t under routingKey. It never blocks on delivery
// confirmation. A non-nil error means the message was dropped.
func (p *Publisher) Publish(ctx context.Context, routingKey string, t dom.Todo) error {
	body, err := NewEvent(t, p.now()).Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	sess, gen, err := p.session(ctx)
	if err != nil {
		p.log.Warn("event dropped", slog.String("routing_key", routingKey), slog.String("id", t.ID), logger.Err(err))
		if !errors.Is(err, ErrClosed) {
			p.scheduleReconnect()
		}
		return err
	}

	err = sess.Publish(ctx, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		p.log.Error("error publishing message", slog.String("routing_key", routingKey), logger.Err(err))
		p.lost(gen, err)
		return err
	}

	p.log.Debug("published message", slog.String("routing_key", routingKey), slog.String("id", t.ID))
	return nil
}

// Close stops the reconnect loop and closes the session.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	sess := p.sess
	p.sess = nil
	p.state = StateDisconnected
	p.gen++
	p.mu.Unlock()

	var err error
	if sess != nil {
		err = sess.Close()
	}
	p.closeWG.Wait()
	p.log.Info("broker connection closed")
	return err
}

// session returns the live session, connecting first when there is none.
func (p *Publisher) session(ctx context.Context) (Session, uint64, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, 0, ErrClosed
	}
	if p.state == StateConnected {
		sess, gen := p.sess, p.gen
		p.mu.Unlock()
		return sess, gen, nil
	}
	p.mu.Unlock()

	if err := p.connect(ctx); err != nil {
		return nil, 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateConnected {
		return nil, 0, ErrNotConnected
	}
	return p.sess, p.gen, nil
}

func (p *Publisher) connect(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return ErrClosed
	case p.state == StateConnected:
		p.mu.Unlock()
		return nil
	case p.state == StateConnecting:
		p.mu.Unlock()
		return ErrNotConnected
	}
	p.state = StateConnecting
	p.mu.Unlock()

	sess, err := p.dial(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = StateDisconnected
		return err
	}
	if p.closed {
		p.state = StateDisconnected
		_ = sess.Close()
		return ErrClosed
	}
	p.sess = sess
	p.state = StateConnected
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}

	gen := p.gen
	closeCh := sess.NotifyClose(make(chan *amqp.Error, 1))
	p.closeWG.Add(1)
	go p.watch(gen, closeCh)

	p.log.Info("broker connected")
	return nil
}

func (p *Publisher) watch(gen uint64, closeCh chan *amqp.Error) {
	defer p.closeWG.Done()
	amqpErr, ok := <-closeCh
	var err error = ErrNotConnected
	if ok && amqpErr != nil {
		err = amqpErr
	}
	p.lost(gen, err)
}

// lost moves a connected session of generation gen to disconnected and
// schedules a reconnect. Stale generations are ignored.
func (p *Publisher) lost(gen uint64, cause error) {
	p.mu.Lock()
	if p.closed || gen != p.gen || p.state != StateConnected {
		p.mu.Unlock()
		return
	}
	sess := p.sess
	p.sess = nil
	p.state = StateDisconnected
	p.gen++
	p.mu.Unlock()

	p.log.Warn("broker connection lost, scheduling reconnect", logger.Err(cause), slog.Duration("delay", p.delay))
	go func() { _ = sess.Close() }()
	p.scheduleReconnect()
}

// scheduleReconnect arms the reconnect timer unless one is already pending.
func (p *Publisher) scheduleReconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.timer != nil || p.state == StateConnected {
		return
	}
	p.timerID++
	id := p.timerID
	p.timer = time.AfterFunc(p.delay, func() { p.reconnect(id) })
}

// reconnect runs when timer id fires. A timer that fired while being stopped
// is superseded and must not touch the pending one.
func (p *Publisher) reconnect(id uint64) {
	p.mu.Lock()
	if id != p.timerID {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	if p.closed || p.state == StateConnected {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.log.Info("attempting to reconnect to broker")
	ctx, cancel := context.WithTimeout(context.Background(), p.delay+defaultConnectTimeout)
	defer cancel()
	if err := p.connect(ctx); err != nil {
		if errors.Is(err, ErrClosed) {
			return
		}
		p.log.Error("failed to reconnect to broker", logger.Err(err))
		p.scheduleReconnect()
		return
	}
	p.log.Info("successfully reconnected to broker")
}
