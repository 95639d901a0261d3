package notify

import (
	"errors"
	"io"
	"testing"
	"time"

	"guesthouse/internal/events"
	"guesthouse/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func newNotifier(sender *mockSender, chats ...int64) *TelegramNotifier {
	logger := zerolog.New(io.Discard)
	return NewTelegramNotifier(sender, chats, &logger)
}

func bookingCreated() *models.Booking {
	return &models.Booking{
		ID:            "b-42",
		RoomID:        "2",
		RoomName:      "Double <Room>",
		GuestName:     "Mwangi & Co",
		GuestPhone:    "+254700000000",
		GuestEmail:    "mwangi@example.com",
		CheckIn:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
		Guests:        2,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentStatusPendingDeposit,
		TotalAmount:   12900,
		DepositAmount: 6450,
	}
}

func TestTelegramNotifier_BookingCreated(t *testing.T) {
	sender := new(mockSender)
	n := newNotifier(sender, 100, 200)
	bus := events.NewEventBus()
	n.Attach(bus)

	var sent []tgbotapi.MessageConfig
	sender.On("Send", mock.AnythingOfType("tgbotapi.MessageConfig")).Run(func(args mock.Arguments) {
		sent = append(sent, args.Get(0).(tgbotapi.MessageConfig))
	}).Return(nil)

	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.NewBookingPayload(bookingCreated())))

	require.Len(t, sent, 2)
	assert.Equal(t, int64(100), sent[0].ChatID)
	assert.Equal(t, int64(200), sent[1].ChatID)
	assert.Equal(t, parseModeHTML, sent[0].ParseMode)
	assert.Contains(t, sent[0].Text, "New booking request")
	assert.Contains(t, sent[0].Text, "Mwangi &amp; Co")
	assert.Contains(t, sent[0].Text, "Double &lt;Room&gt;")
	assert.Contains(t, sent[0].Text, "2025-06-10 → 2025-06-13")
	assert.Contains(t, sent[0].Text, "KSh 12900")
}

func TestTelegramNotifier_SendError(t *testing.T) {
	sender := new(mockSender)
	n := newNotifier(sender, 1, 2)

	sender.On("Send", mock.Anything).Return(errors.New("forbidden")).Once()
	sender.On("Send", mock.Anything).Return(nil).Once()

	event, err := jsonEvent(events.EventPaymentRecorded, events.PaymentEventPayload{
		BookingID: "b-1", Amount: 500, PaymentMethod: models.PaymentMethodMpesa, Reference: "QWE123", Status: models.PaymentCompleted,
	})
	require.NoError(t, err)

	assert.EqualError(t, n.Handle(event), "forbidden")
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestFormat(t *testing.T) {
	b := bookingCreated()
	payload := events.NewBookingPayload(b)
	payload.PreviousStatus = models.StatusPending
	payload.Status = models.StatusConfirmed

	event, err := jsonEvent(events.EventBookingStatusChanged, payload)
	require.NoError(t, err)
	text, err := Format(event)
	require.NoError(t, err)
	assert.Contains(t, text, "pending → confirmed")

	text, err = Format(&events.Event{Type: events.EventBookingsPurged, Payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = Format(&events.Event{Type: events.EventPaymentRecorded, Payload: []byte(`{`)})
	assert.Error(t, err)
}

func jsonEvent(eventType string, payload interface{}) (*events.Event, error) {
	var captured *events.Event
	bus := events.NewEventBus()
	bus.SubscribeAll(func(e *events.Event) error { captured = e; return nil })
	if err := bus.PublishJSON(eventType, payload); err != nil {
		return nil, err
	}
	return captured, nil
}
