package events

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	a := m.Called(name, durable)
	return amqp.Queue{Name: name}, a.Error(0)
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestAMQPForwarder_QueueName(t *testing.T) {
	f := newAMQPForwarder(new(mockChannel), "guesthouse", nil)
	assert.Equal(t, "guesthouse.booking.created", f.QueueName(EventBookingCreated))

	bare := newAMQPForwarder(new(mockChannel), "", nil)
	assert.Equal(t, "payment.recorded", bare.QueueName(EventPaymentRecorded))
}

func TestAMQPForwarder_Forward(t *testing.T) {
	ch := new(mockChannel)
	f := newAMQPForwarder(ch, "gh", nil)
	bus := NewEventBus()
	f.Attach(bus)

	ch.On("QueueDeclare", "gh.booking.created", true).Return(nil).Once()
	ch.On("PublishWithContext", "", "gh.booking.created", mock.MatchedBy(func(msg amqp.Publishing) bool {
		return msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp.Persistent &&
			msg.Type == EventBookingCreated &&
			string(msg.Body) == `{"booking_id":"b-1"}`
	})).Return(nil).Twice()

	ch.On("Close").Return(nil).Once()

	require.NoError(t, bus.PublishJSON(EventBookingCreated, map[string]string{"booking_id": "b-1"}))
	// queue is declared only once
	require.NoError(t, bus.PublishJSON(EventBookingCreated, map[string]string{"booking_id": "b-1"}))

	// Close drains the queued events
	require.NoError(t, f.Close())
	ch.AssertExpectations(t)
}

func TestAMQPForwarder_SlowBrokerDoesNotBlockPublisher(t *testing.T) {
	ch := new(mockChannel)
	f := newAMQPForwarder(ch, "gh", nil)
	f.queue = make(chan *Event, 1)
	bus := NewEventBus()

	var busErrors []error
	bus.OnError(func(_ *Event, err error) { busErrors = append(busErrors, err) })
	f.Attach(bus)

	release := make(chan time.Time)
	ch.On("QueueDeclare", "gh.booking.created", true).Return(nil).Once()
	ch.On("PublishWithContext", "", "gh.booking.created", mock.Anything).WaitUntil(release).Return(nil)
	ch.On("Close").Return(nil).Once()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.PublishJSON(EventBookingCreated, map[string]int{"n": i}))
	}
	assert.Less(t, time.Since(start), time.Second)
	// one event is in flight, one is buffered, the rest overflow
	assert.NotEmpty(t, busErrors)
	for _, err := range busErrors {
		assert.ErrorIs(t, err, errForwardQueueFull)
	}

	close(release)
	require.NoError(t, f.Close())
	ch.AssertExpectations(t)

	// events after Close are ignored
	require.NoError(t, bus.PublishJSON(EventBookingCreated, map[string]int{"n": 6}))
}

func TestAMQPForwarder_Errors(t *testing.T) {
	ch := new(mockChannel)
	f := newAMQPForwarder(ch, "gh", nil)

	ch.On("QueueDeclare", "gh.payment.recorded", true).Return(errors.New("channel closed")).Once()
	err := f.Handle(&Event{Type: EventPaymentRecorded, Payload: []byte(`{}`)})
	assert.ErrorContains(t, err, "declare gh.payment.recorded")

	ch.On("QueueDeclare", "gh.payment.recorded", true).Return(nil).Once()
	ch.On("PublishWithContext", "", "gh.payment.recorded", mock.Anything).Return(errors.New("nack")).Once()
	err = f.Handle(&Event{Type: EventPaymentRecorded, Payload: []byte(`{}`)})
	assert.ErrorContains(t, err, "nack")

	ch.On("Close").Return(nil).Once()
	assert.NoError(t, f.Close())
	ch.AssertExpectations(t)

	var nilForwarder *AMQPForwarder
	assert.NoError(t, nilForwarder.Close())
}
