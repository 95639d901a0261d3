package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"guesthouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventBookingCreated, map[string]string{"foo": "bar"}))

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, "bar", decoded["foo"])
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2, all int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })
	bus.SubscribeAll(func(_ *Event) error { all++; return nil })

	bus.Publish(&Event{Type: "event"})
	bus.Publish(&Event{Type: "other"})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
	assert.Equal(t, 2, all)
}

func TestEventBusHandlerError(t *testing.T) {
	bus := NewEventBus()
	var failed []string
	bus.OnError(func(event *Event, err error) { failed = append(failed, event.Type+": "+err.Error()) })

	calledAfter := false
	bus.Subscribe("event", func(_ *Event) error { return errors.New("boom") })
	bus.Subscribe("event", func(_ *Event) error { calledAfter = true; return nil })

	bus.Publish(&Event{Type: "event"})

	assert.True(t, calledAfter)
	assert.Equal(t, []string{"event: boom"}, failed)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() { bus.Publish(&Event{Type: "unknown"}) })
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON("unknown", nil))
}

func TestPayloads(t *testing.T) {
	b := &models.Booking{
		ID:            "b-1",
		RoomID:        "2",
		RoomName:      "Double Room",
		GuestName:     "Wanjiru",
		CheckIn:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
		Guests:        2,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentStatusDepositPaid,
		TotalAmount:   8600,
		DepositAmount: 4300,
		DepositPaid:   true,
	}
	bp := NewBookingPayload(b)
	assert.Equal(t, "b-1", bp.BookingID)
	assert.Equal(t, int64(8600), bp.TotalAmount)
	assert.True(t, bp.DepositPaid)
	assert.Empty(t, bp.PreviousStatus)

	p := &models.Payment{ID: "p-1", BookingID: "b-1", Amount: 4300, PaymentMethod: models.PaymentMethodMpesa, Status: models.PaymentCompleted}
	pp := NewPaymentPayload(p, b)
	assert.Equal(t, models.PaymentStatusDepositPaid, pp.PaymentStatus)

	raw, err := json.Marshal(NewPaymentPayload(p, nil))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "booking_payment_status")
	assert.Contains(t, string(raw), `"payment_method":"mpesa"`)
}
