package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
	// prefetchCount keeps one unacknowledged delivery in flight, so a failing
	// handler holds back the queue instead of spinning through it.
	prefetchCount = 1
)

// ErrCircuitOpen is returned by Publish while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes and consumes trip change events on a direct exchange.
// The connection is established lazily and re-established after connection
// errors.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time

	// retryDelay is the wait before a failed delivery is requeued, by
	// consecutive failure count starting at 0.
	retryDelay func(failures int) time.Duration
}

// NewClient connects to the broker and declares the exchange and queue.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		retryDelay:   exponentialBackoff,
	}
	if _, err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// connect returns the open channel, dialling and declaring the topology if
// needed.
func (c *Client) connect() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return channel, nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on a direct exchange
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishTripEvent publishes a persistent trip change message.
func (c *Client) PublishTripEvent(ctx context.Context, tripID string, kind EventKind) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s for trip %s: %w", kind, tripID, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := NewTripChangedMessage(tripID, kind).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.connect()
	if err != nil {
		c.recordFailure()
		return err
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		pctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.reset()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published trip event",
		"trip_id", tripID,
		"kind", kind,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Consume delivers trip change messages to handler until ctx is cancelled.
// Malformed messages are rejected. Failed ones are requeued after a delay
// that doubles with each consecutive failure. When the connection drops the
// client reconnects with exponential backoff.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, *TripChangedMessage) error) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Consumer interrupted, reconnecting",
			"error", err, "attempt", attempt+1, "backoff", wait)
		c.reset()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		// consumeOnce returns nil only after it received at least one delivery
		if err == nil {
			attempt = 0
		} else {
			attempt++
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *TripChangedMessage) error) error {
	ch, err := c.connect()
	if err != nil {
		return err
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming trip events", "queue", c.queueName)

	received := false
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				if received {
					return nil
				}
				return fmt.Errorf("message channel closed")
			}
			received = true
			if c.process(ctx, delivery, handler, failures) {
				failures++
			} else {
				failures = 0
			}
		}
	}
}

// process handles one delivery and acknowledges it. It reports whether the
// handler failed; a failed delivery is requeued once the retry delay for the
// given number of earlier consecutive failures has passed.
func (c *Client) process(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, *TripChangedMessage) error, failures int) bool {
	msg, err := TripChangedMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode message", "error", err)
		_ = delivery.Nack(false, false) // reject and don't requeue
		return false
	}

	if err := handler(ctx, msg); err != nil {
		wait := time.Duration(0)
		if c.retryDelay != nil {
			wait = c.retryDelay(failures)
		}
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"trip_id", msg.TripID,
			"kind", msg.Kind,
			"retry_in", wait)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
			timer.Stop()
		}
		_ = delivery.Nack(false, true) // reject and requeue
		return true
	}

	_ = delivery.Ack(false)
	slog.InfoContext(ctx, "Processed trip event",
		"trip_id", msg.TripID,
		"kind", msg.Kind)
	return false
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		last := c.lastFailure
		c.mu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.reset()
	return nil
}

// Ping reports whether the broker is reachable, reconnecting if needed. An
// open circuit counts as unavailable.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return ErrCircuitOpen
	}
	_, err := c.connect()
	return err
}
