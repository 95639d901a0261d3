package events

import (
	"encoding/json"
	"sync"
	"time"

	"guesthouse/internal/models"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventBookingReconciled    = "booking_payment_reconciled"
	EventBookingsPurged       = "bookings_purged"
	EventPaymentRecorded      = "payment_recorded"
	EventPaymentStatusChanged = "payment_status_changed"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []string{
	EventBookingCreated,
	EventBookingStatusChanged,
	EventBookingReconciled,
	EventBookingsPurged,
	EventPaymentRecorded,
	EventPaymentStatusChanged,
}

// wildcard subscribers receive every event type.
const wildcard = "*"

// BookingEventPayload describes the booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID      string    `json:"booking_id"`
	RoomID         string    `json:"room_id"`
	RoomName       string    `json:"room_name,omitempty"`
	GuestName      string    `json:"guest_name"`
	GuestEmail     string    `json:"guest_email"`
	GuestPhone     string    `json:"guest_phone"`
	CheckIn        time.Time `json:"check_in_date"`
	CheckOut       time.Time `json:"check_out_date"`
	Guests         int       `json:"guests"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	PaymentStatus  string    `json:"payment_status"`
	TotalAmount    int64     `json:"total_amount"`
	DepositAmount  int64     `json:"deposit_amount"`
	DepositPaid    bool      `json:"deposit_paid"`
}

// NewBookingPayload snapshots b.
func NewBookingPayload(b *models.Booking) BookingEventPayload {
	return BookingEventPayload{
		BookingID:     b.ID,
		RoomID:        b.RoomID,
		RoomName:      b.RoomName,
		GuestName:     b.GuestName,
		GuestEmail:    b.GuestEmail,
		GuestPhone:    b.GuestPhone,
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		Guests:        b.Guests,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		TotalAmount:   b.TotalAmount,
		DepositAmount: b.DepositAmount,
		DepositPaid:   b.DepositPaid,
	}
}

// PaymentEventPayload describes a payment and the booking state it produced.
type PaymentEventPayload struct {
	PaymentID     string     `json:"payment_id"`
	BookingID     string     `json:"booking_id"`
	Amount        int64      `json:"amount"`
	PaymentType   string     `json:"payment_type"`
	PaymentMethod string     `json:"payment_method"`
	Reference     string     `json:"payment_reference,omitempty"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PaymentStatus string     `json:"booking_payment_status,omitempty"`
}

// NewPaymentPayload snapshots p; booking may be nil.
func NewPaymentPayload(p *models.Payment, booking *models.Booking) PaymentEventPayload {
	payload := PaymentEventPayload{
		PaymentID:     p.ID,
		BookingID:     p.BookingID,
		Amount:        p.Amount,
		PaymentType:   p.PaymentType,
		PaymentMethod: p.PaymentMethod,
		Reference:     p.PaymentReference,
		Status:        p.Status,
		PaidAt:        p.PaidAt,
	}
	if booking != nil {
		payload.PaymentStatus = booking.PaymentStatus
	}
	return payload
}

// PurgeEventPayload reports a maintenance purge.
type PurgeEventPayload struct {
	Purged int64     `json:"purged"`
	Cutoff time.Time `json:"cutoff"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	onError     func(event *Event, err error)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError installs a callback for handler failures.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.Subscribe(wildcard, handler)
}

// Publish notifies subscribers of the event type. Handlers run synchronously
// on the caller's goroutine, so a handler that talks to the network must hand
// the work off (see AMQPForwarder) to keep request latency bounded.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[wildcard]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
