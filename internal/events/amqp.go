package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	// publishTimeout bounds a single broker publish.
	publishTimeout = 5 * time.Second
	// forwardBuffer is how many events may wait for the broker before new
	// ones are dropped.
	forwardBuffer = 256
)

var errForwardQueueFull = errors.New("amqp forward queue is full")

// amqpChannel is the subset of *amqp.Channel the forwarder uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPForwarder copies bus events to durable RabbitMQ queues, one queue per
// event type. Attached to a bus it publishes from its own goroutine, so a slow
// broker never holds up the publisher; publish failures are only logged.
type AMQPForwarder struct {
	conn     *amqp.Connection
	ch       amqpChannel
	prefix   string
	logger   *zerolog.Logger
	mu       sync.Mutex
	declared map[string]bool

	queue   chan *Event
	queueMu sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

// DialAMQP connects to the broker and opens the channel used for publishing.
func DialAMQP(url, queuePrefix string, logger *zerolog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	f := newAMQPForwarder(ch, queuePrefix, logger)
	f.conn = conn
	return f, nil
}

func newAMQPForwarder(ch amqpChannel, queuePrefix string, logger *zerolog.Logger) *AMQPForwarder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AMQPForwarder{
		ch:       ch,
		prefix:   queuePrefix,
		logger:   logger,
		declared: make(map[string]bool),
		queue:    make(chan *Event, forwardBuffer),
		done:     make(chan struct{}),
	}
}

// QueueName maps an event type to its queue, e.g. booking_created ->
// guesthouse.booking.created.
func (f *AMQPForwarder) QueueName(eventType string) string {
	name := strings.ReplaceAll(eventType, "_", ".")
	if f.prefix == "" {
		return name
	}
	return f.prefix + "." + name
}

// Attach subscribes the forwarder to every event of the bus and starts the
// publishing goroutine. Close drains what is still queued.
func (f *AMQPForwarder) Attach(bus *EventBus) {
	f.queueMu.Lock()
	if !f.started {
		f.started = true
		go f.run()
	}
	f.queueMu.Unlock()

	bus.SubscribeAll(f.enqueue)
}

// enqueue hands the event to the publishing goroutine without blocking.
func (f *AMQPForwarder) enqueue(event *Event) error {
	f.queueMu.RLock()
	defer f.queueMu.RUnlock()
	if f.closed {
		return nil
	}

	select {
	case f.queue <- event:
		return nil
	default:
		f.logger.Warn().Str("event_type", event.Type).Msg("amqp forward queue full, event dropped")
		return errForwardQueueFull
	}
}

func (f *AMQPForwarder) run() {
	defer close(f.done)
	for event := range f.queue {
		// failures are already logged by Handle
		_ = f.Handle(event)
	}
}

// Handle publishes one event as a persistent JSON message.
func (f *AMQPForwarder) Handle(event *Event) error {
	queue := f.QueueName(event.Type)

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.declared[queue] {
		if _, err := f.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			f.logger.Error().Err(err).Str("queue", queue).Msg("amqp queue declare failed")
			return fmt.Errorf("declare %s: %w", queue, err)
		}
		f.declared[queue] = true
	}

	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts.UTC(),
		Type:         event.Type,
		Body:         event.Payload,
	}
	if err := f.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		f.logger.Error().Err(err).Str("queue", queue).Msg("amqp publish failed")
		return fmt.Errorf("publish %s: %w", queue, err)
	}

	f.logger.Debug().Str("queue", queue).Msg("event forwarded")
	return nil
}

// Close stops accepting events, waits for the queued ones to be published and
// releases the channel and the connection.
func (f *AMQPForwarder) Close() error {
	if f == nil {
		return nil
	}

	f.queueMu.Lock()
	wasClosed, started := f.closed, f.started
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.queueMu.Unlock()
	if !wasClosed && started {
		<-f.done
	}

	var firstErr error
	if f.ch != nil {
		if err := f.ch.Close(); err != nil {
			firstErr = err
		}
	}
	if f.conn != nil {
		if err := f.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
